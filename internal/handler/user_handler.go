package handler

import (
	"net/http"
	"strconv"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/internal/upload"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/Alonso-dfg/Project-Alimentos/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRequest defines the structure for user creation requests. An
// optional multipart "image" file may accompany the form fields.
type UserRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
	City  string `json:"city" form:"city"`
}

// UserUpdateRequest defines the structure for partial user updates
type UserUpdateRequest struct {
	Name  *string `json:"name" form:"name"`
	Email *string `json:"email" form:"email"`
	Phone *string `json:"phone" form:"phone"`
	City  *string `json:"city" form:"city"`
}

// UserHandler serves the user CRUD endpoints
type UserHandler struct {
	db      *gorm.DB
	uploads *upload.Store
}

// NewUserHandler creates a user handler bound to the given database and
// upload store
func NewUserHandler(db *gorm.DB, uploads *upload.Store) *UserHandler {
	return &UserHandler{db: db, uploads: uploads}
}

// List retrieves all active users
func (h *UserHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing active users")
	prometheus.RecordEntityOperation("user", "list")

	var users []model.User
	result := h.db.Where("estado = ?", model.EstadoActivo).Find(&users)
	if result.Error != nil {
		log.Error("Failed to retrieve users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve users",
		})
	}

	log.Info("Users retrieved successfully", zap.Int("count", len(users)))
	return c.JSON(http.StatusOK, users)
}

// ListInactive retrieves all deactivated users
func (h *UserHandler) ListInactive(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing inactive users")
	prometheus.RecordEntityOperation("user", "list_inactive")

	var users []model.User
	result := h.db.Where("estado = ?", model.EstadoInactivo).Find(&users)
	if result.Error != nil {
		log.Error("Failed to retrieve inactive users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve users",
		})
	}

	return c.JSON(http.StatusOK, users)
}

// Get retrieves a single user by ID, regardless of estado
func (h *UserHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting user by ID", zap.String("user_id", id))
	prometheus.RecordEntityOperation("user", "get")

	var user model.User
	result := h.db.First(&user, "id = ?", id)
	if result.Error != nil {
		log.Warn("User not found", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "User not found",
		})
	}

	return c.JSON(http.StatusOK, user)
}

// Create adds a new user with estado activo. The email pre-check races
// with concurrent requests; the unique index is the real backstop.
func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new user")
	prometheus.RecordEntityOperation("user", "create")

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.Email == "" {
		log.Warn("Missing user name or email")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and email are required",
		})
	}

	// Check if the email is already registered
	var count int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Email is already registered", zap.String("email", req.Email))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Email is already registered",
		})
	}

	user := model.User{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		City:   req.City,
		Estado: model.EstadoActivo,
	}

	// Store the profile image when one was uploaded with the form
	if file, err := c.FormFile("image"); err == nil {
		name, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store user image", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to store image",
			})
		}
		user.Image = name
	}

	result := h.db.Create(&user)
	if result.Error != nil {
		log.Error("Failed to create user",
			zap.String("email", req.Email),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create user",
		})
	}

	log.Info("User created successfully",
		zap.String("user_id", strconv.FormatUint(uint64(user.ID), 10)),
		zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// Update applies the fields present in the request to an existing user
func (h *UserHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating user", zap.String("user_id", id))
	prometheus.RecordEntityOperation("user", "update")

	var req UserUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var user model.User
	result := h.db.First(&user, "id = ?", id)
	if result.Error != nil {
		log.Warn("User not found", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "User not found",
		})
	}

	// Re-validate uniqueness when the email changes
	if req.Email != nil && *req.Email != user.Email {
		var count int64
		h.db.Model(&model.User{}).
			Where("email = ? AND id != ?", *req.Email, user.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Email is already registered", zap.String("email", *req.Email))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Email is already registered",
			})
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.City != nil {
		user.City = *req.City
	}

	// Replace the profile image when a new one was uploaded
	if file, err := c.FormFile("image"); err == nil {
		name, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store user image", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to store image",
			})
		}
		user.Image = name
	}

	result = h.db.Save(&user)
	if result.Error != nil {
		log.Error("Failed to update user", zap.String("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update user",
		})
	}

	log.Info("User updated successfully",
		zap.String("user_id", id),
		zap.String("email", user.Email))
	return c.JSON(http.StatusOK, user)
}

// Deactivate flips a user to estado inactivo. The operation is blocked
// while active products still reference the user.
func (h *UserHandler) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deactivating user", zap.String("user_id", id))
	prometheus.RecordEntityOperation("user", "deactivate")

	var user model.User
	result := h.db.First(&user, "id = ?", id)
	if result.Error != nil {
		log.Warn("User not found", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "User not found",
		})
	}

	// Check if any active products are using this user
	var count int64
	h.db.Model(&model.Product{}).
		Where("user_id = ? AND estado = ?", user.ID, model.EstadoActivo).
		Count(&count)
	if count > 0 {
		log.Warn("Cannot deactivate user that is being used by active products",
			zap.String("user_id", id),
			zap.Int64("product_count", count))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot deactivate user that is being used by active products",
		})
	}

	user.Estado = model.EstadoInactivo
	result = h.db.Save(&user)
	if result.Error != nil {
		log.Error("Failed to deactivate user", zap.String("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to deactivate user",
		})
	}

	log.Info("User deactivated successfully", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User deactivated successfully",
	})
}

// Reactivate flips a deactivated user back to estado activo
func (h *UserHandler) Reactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Reactivating user", zap.String("user_id", id))
	prometheus.RecordEntityOperation("user", "reactivate")

	var user model.User
	result := h.db.First(&user, "id = ?", id)
	if result.Error != nil {
		log.Warn("User not found", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "User not found",
		})
	}

	if user.Estado == model.EstadoActivo {
		log.Warn("User is already active", zap.String("user_id", id))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "User is already active",
		})
	}

	user.Estado = model.EstadoActivo
	result = h.db.Save(&user)
	if result.Error != nil {
		log.Error("Failed to reactivate user", zap.String("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reactivate user",
		})
	}

	log.Info("User reactivated successfully", zap.String("user_id", id))
	return c.JSON(http.StatusOK, user)
}
