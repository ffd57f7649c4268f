package handler

import (
	"net/http"
	"strconv"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/Alonso-dfg/Project-Alimentos/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CategoryRequest defines the structure for category creation requests
type CategoryRequest struct {
	Name string `json:"name" form:"name"`
}

// CategoryUpdateRequest defines the structure for partial category updates
type CategoryUpdateRequest struct {
	Name *string `json:"name" form:"name"`
}

// CategoryHandler serves the category CRUD endpoints
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler creates a category handler bound to the given database
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// List retrieves all active categories
func (h *CategoryHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing active categories")
	prometheus.RecordEntityOperation("category", "list")

	var categories []model.Category
	result := h.db.Where("estado = ?", model.EstadoActivo).Find(&categories)
	if result.Error != nil {
		log.Error("Failed to retrieve categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	log.Info("Categories retrieved successfully", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, categories)
}

// ListInactive retrieves all deactivated categories
func (h *CategoryHandler) ListInactive(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing inactive categories")
	prometheus.RecordEntityOperation("category", "list_inactive")

	var categories []model.Category
	result := h.db.Where("estado = ?", model.EstadoInactivo).Find(&categories)
	if result.Error != nil {
		log.Error("Failed to retrieve inactive categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	return c.JSON(http.StatusOK, categories)
}

// Get retrieves a single category by ID, regardless of its estado
func (h *CategoryHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting category by ID", zap.String("category_id", id))
	prometheus.RecordEntityOperation("category", "get")

	var category model.Category
	result := h.db.First(&category, "id = ?", id)
	if result.Error != nil {
		log.Warn("Category not found", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	return c.JSON(http.StatusOK, category)
}

// Create adds a new category with estado activo
func (h *CategoryHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new category")
	prometheus.RecordEntityOperation("category", "create")

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" {
		log.Warn("Missing category name")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	// Check if a category with the same name exists
	var count int64
	h.db.Model(&model.Category{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		log.Warn("Category with this name already exists", zap.String("name", req.Name))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Category with this name already exists",
		})
	}

	category := model.Category{
		Name:   req.Name,
		Estado: model.EstadoActivo,
	}

	result := h.db.Create(&category)
	if result.Error != nil {
		log.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create category",
		})
	}

	log.Info("Category created successfully",
		zap.String("category_id", strconv.FormatUint(uint64(category.ID), 10)),
		zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, category)
}

// Update applies the fields present in the request to an existing category
func (h *CategoryHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating category", zap.String("category_id", id))
	prometheus.RecordEntityOperation("category", "update")

	var req CategoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var category model.Category
	result := h.db.First(&category, "id = ?", id)
	if result.Error != nil {
		log.Warn("Category not found", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	// Re-validate uniqueness when the name changes
	if req.Name != nil && *req.Name != category.Name {
		var count int64
		h.db.Model(&model.Category{}).
			Where("name = ? AND id != ?", *req.Name, category.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Category with this name already exists", zap.String("name", *req.Name))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Category with this name already exists",
			})
		}
		category.Name = *req.Name
	}

	result = h.db.Save(&category)
	if result.Error != nil {
		log.Error("Failed to update category", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update category",
		})
	}

	log.Info("Category updated successfully",
		zap.String("category_id", id),
		zap.String("name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// Deactivate flips a category to estado inactivo. The row is kept;
// the operation is blocked while active products still reference it.
func (h *CategoryHandler) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deactivating category", zap.String("category_id", id))
	prometheus.RecordEntityOperation("category", "deactivate")

	var category model.Category
	result := h.db.First(&category, "id = ?", id)
	if result.Error != nil {
		log.Warn("Category not found", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	// Check if any active products are using this category
	var count int64
	h.db.Model(&model.Product{}).
		Where("category_id = ? AND estado = ?", category.ID, model.EstadoActivo).
		Count(&count)
	if count > 0 {
		log.Warn("Cannot deactivate category that is being used by active products",
			zap.String("category_id", id),
			zap.Int64("product_count", count))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot deactivate category that is being used by active products",
		})
	}

	category.Estado = model.EstadoInactivo
	result = h.db.Save(&category)
	if result.Error != nil {
		log.Error("Failed to deactivate category", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to deactivate category",
		})
	}

	log.Info("Category deactivated successfully", zap.String("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Category deactivated successfully",
	})
}

// Reactivate flips a deactivated category back to estado activo
func (h *CategoryHandler) Reactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Reactivating category", zap.String("category_id", id))
	prometheus.RecordEntityOperation("category", "reactivate")

	var category model.Category
	result := h.db.First(&category, "id = ?", id)
	if result.Error != nil {
		log.Warn("Category not found", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	if category.Estado == model.EstadoActivo {
		log.Warn("Category is already active", zap.String("category_id", id))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Category is already active",
		})
	}

	category.Estado = model.EstadoActivo
	result = h.db.Save(&category)
	if result.Error != nil {
		log.Error("Failed to reactivate category", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reactivate category",
		})
	}

	log.Info("Category reactivated successfully", zap.String("category_id", id))
	return c.JSON(http.StatusOK, category)
}
