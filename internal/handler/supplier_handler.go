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

// SupplierRequest defines the structure for supplier creation requests
type SupplierRequest struct {
	Name    string `json:"name" form:"name"`
	Contact string `json:"contact" form:"contact"`
	Phone   string `json:"phone" form:"phone"`
	City    string `json:"city" form:"city"`
}

// SupplierUpdateRequest defines the structure for partial supplier updates
type SupplierUpdateRequest struct {
	Name    *string `json:"name" form:"name"`
	Contact *string `json:"contact" form:"contact"`
	Phone   *string `json:"phone" form:"phone"`
	City    *string `json:"city" form:"city"`
}

// SupplierHandler serves the supplier CRUD endpoints
type SupplierHandler struct {
	db *gorm.DB
}

// NewSupplierHandler creates a supplier handler bound to the given database
func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{db: db}
}

// List retrieves all active suppliers
func (h *SupplierHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing active suppliers")
	prometheus.RecordEntityOperation("supplier", "list")

	var suppliers []model.Supplier
	result := h.db.Where("estado = ?", model.EstadoActivo).Find(&suppliers)
	if result.Error != nil {
		log.Error("Failed to retrieve suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	log.Info("Suppliers retrieved successfully", zap.Int("count", len(suppliers)))
	return c.JSON(http.StatusOK, suppliers)
}

// ListInactive retrieves all deactivated suppliers
func (h *SupplierHandler) ListInactive(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing inactive suppliers")
	prometheus.RecordEntityOperation("supplier", "list_inactive")

	var suppliers []model.Supplier
	result := h.db.Where("estado = ?", model.EstadoInactivo).Find(&suppliers)
	if result.Error != nil {
		log.Error("Failed to retrieve inactive suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	return c.JSON(http.StatusOK, suppliers)
}

// Get retrieves a single supplier by ID, regardless of its estado
func (h *SupplierHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting supplier by ID", zap.String("supplier_id", id))
	prometheus.RecordEntityOperation("supplier", "get")

	var supplier model.Supplier
	result := h.db.First(&supplier, "id = ?", id)
	if result.Error != nil {
		log.Warn("Supplier not found", zap.String("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(http.StatusOK, supplier)
}

// Create adds a new supplier with estado activo
func (h *SupplierHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new supplier")
	prometheus.RecordEntityOperation("supplier", "create")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" {
		log.Warn("Missing supplier name")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	// Check if a supplier with the same name exists
	var count int64
	h.db.Model(&model.Supplier{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		log.Warn("Supplier with this name already exists", zap.String("name", req.Name))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Supplier with this name already exists",
		})
	}

	supplier := model.Supplier{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
		City:    req.City,
		Estado:  model.EstadoActivo,
	}

	result := h.db.Create(&supplier)
	if result.Error != nil {
		log.Error("Failed to create supplier",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create supplier",
		})
	}

	log.Info("Supplier created successfully",
		zap.String("supplier_id", strconv.FormatUint(uint64(supplier.ID), 10)),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusCreated, supplier)
}

// Update applies the fields present in the request to an existing supplier
func (h *SupplierHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating supplier", zap.String("supplier_id", id))
	prometheus.RecordEntityOperation("supplier", "update")

	var req SupplierUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var supplier model.Supplier
	result := h.db.First(&supplier, "id = ?", id)
	if result.Error != nil {
		log.Warn("Supplier not found", zap.String("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	// Re-validate uniqueness when the name changes
	if req.Name != nil && *req.Name != supplier.Name {
		var count int64
		h.db.Model(&model.Supplier{}).
			Where("name = ? AND id != ?", *req.Name, supplier.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Supplier with this name already exists", zap.String("name", *req.Name))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this name already exists",
			})
		}
		supplier.Name = *req.Name
	}
	if req.Contact != nil {
		supplier.Contact = *req.Contact
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.City != nil {
		supplier.City = *req.City
	}

	result = h.db.Save(&supplier)
	if result.Error != nil {
		log.Error("Failed to update supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	log.Info("Supplier updated successfully",
		zap.String("supplier_id", id),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusOK, supplier)
}

// Deactivate flips a supplier to estado inactivo. The operation is
// blocked while active products still reference the supplier.
func (h *SupplierHandler) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deactivating supplier", zap.String("supplier_id", id))
	prometheus.RecordEntityOperation("supplier", "deactivate")

	var supplier model.Supplier
	result := h.db.First(&supplier, "id = ?", id)
	if result.Error != nil {
		log.Warn("Supplier not found", zap.String("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	// Check if any active products are using this supplier
	var count int64
	h.db.Model(&model.Product{}).
		Where("supplier_id = ? AND estado = ?", supplier.ID, model.EstadoActivo).
		Count(&count)
	if count > 0 {
		log.Warn("Cannot deactivate supplier that is being used by active products",
			zap.String("supplier_id", id),
			zap.Int64("product_count", count))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot deactivate supplier that is being used by active products",
		})
	}

	supplier.Estado = model.EstadoInactivo
	result = h.db.Save(&supplier)
	if result.Error != nil {
		log.Error("Failed to deactivate supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to deactivate supplier",
		})
	}

	log.Info("Supplier deactivated successfully", zap.String("supplier_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Supplier deactivated successfully",
	})
}

// Reactivate flips a deactivated supplier back to estado activo
func (h *SupplierHandler) Reactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Reactivating supplier", zap.String("supplier_id", id))
	prometheus.RecordEntityOperation("supplier", "reactivate")

	var supplier model.Supplier
	result := h.db.First(&supplier, "id = ?", id)
	if result.Error != nil {
		log.Warn("Supplier not found", zap.String("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	if supplier.Estado == model.EstadoActivo {
		log.Warn("Supplier is already active", zap.String("supplier_id", id))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Supplier is already active",
		})
	}

	supplier.Estado = model.EstadoActivo
	result = h.db.Save(&supplier)
	if result.Error != nil {
		log.Error("Failed to reactivate supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reactivate supplier",
		})
	}

	log.Info("Supplier reactivated successfully", zap.String("supplier_id", id))
	return c.JSON(http.StatusOK, supplier)
}
