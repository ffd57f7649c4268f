package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/internal/upload"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/Alonso-dfg/Project-Alimentos/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRequest defines the structure for product creation requests.
// An optional multipart "image" file may accompany the form fields.
type ProductRequest struct {
	Name       string  `json:"name" form:"name"`
	Price      float64 `json:"price" form:"price"`
	Quantity   int     `json:"quantity" form:"quantity"`
	City       string  `json:"city" form:"city"`
	CategoryID *uint   `json:"category_id" form:"category_id"`
	SupplierID *uint   `json:"supplier_id" form:"supplier_id"`
	UserID     *uint   `json:"user_id" form:"user_id"`
}

// ProductUpdateRequest defines the structure for partial product updates
type ProductUpdateRequest struct {
	Name       *string  `json:"name" form:"name"`
	Price      *float64 `json:"price" form:"price"`
	Quantity   *int     `json:"quantity" form:"quantity"`
	City       *string  `json:"city" form:"city"`
	CategoryID *uint    `json:"category_id" form:"category_id"`
	SupplierID *uint    `json:"supplier_id" form:"supplier_id"`
	UserID     *uint    `json:"user_id" form:"user_id"`
}

// ProductHandler serves the product CRUD endpoints
type ProductHandler struct {
	db      *gorm.DB
	uploads *upload.Store
}

// NewProductHandler creates a product handler bound to the given
// database and upload store
func NewProductHandler(db *gorm.DB, uploads *upload.Store) *ProductHandler {
	return &ProductHandler{db: db, uploads: uploads}
}

// List retrieves all active products
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing active products")
	prometheus.RecordEntityOperation("product", "list")

	var products []model.Product
	result := h.db.Where("estado = ?", model.EstadoActivo).Find(&products)
	if result.Error != nil {
		log.Error("Failed to retrieve products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// ListInactive retrieves all deactivated products
func (h *ProductHandler) ListInactive(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing inactive products")
	prometheus.RecordEntityOperation("product", "list_inactive")

	var products []model.Product
	result := h.db.Where("estado = ?", model.EstadoInactivo).Find(&products)
	if result.Error != nil {
		log.Error("Failed to retrieve inactive products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	return c.JSON(http.StatusOK, products)
}

// Search filters products by name, city and category. Name and city are
// case-insensitive substring matches.
func (h *ProductHandler) Search(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Searching products")
	prometheus.RecordEntityOperation("product", "search")

	query := h.db.Model(&model.Product{})

	if name := c.QueryParam("name"); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
		log.Info("Filtering products by name", zap.String("name", name))
	}
	if city := c.QueryParam("city"); city != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(city)+"%")
		log.Info("Filtering products by city", zap.String("city", city))
	}
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
		log.Info("Filtering products by category", zap.String("category_id", categoryID))
	}

	var products []model.Product
	result := query.Find(&products)
	if result.Error != nil {
		log.Error("Failed to search products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to search products",
		})
	}

	if len(products) == 0 {
		log.Info("No products matched the search criteria")
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "No products matched the search criteria",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":    len(products),
		"products": products,
	})
}

// Get retrieves a single product by ID, regardless of estado
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting product by ID", zap.String("product_id", id))
	prometheus.RecordEntityOperation("product", "get")

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// Create adds a new product with estado activo
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new product")
	prometheus.RecordEntityOperation("product", "create")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" {
		log.Warn("Missing product name")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	product := model.Product{
		Name:       req.Name,
		Price:      req.Price,
		Quantity:   req.Quantity,
		City:       req.City,
		CategoryID: req.CategoryID,
		SupplierID: req.SupplierID,
		UserID:     req.UserID,
		Estado:     model.EstadoActivo,
	}

	// Store the product image when one was uploaded with the form
	if file, err := c.FormFile("image"); err == nil {
		name, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store product image", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to store image",
			})
		}
		product.Image = name
	}

	result := h.db.Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	log.Info("Product created successfully",
		zap.String("product_id", strconv.FormatUint(uint64(product.ID), 10)),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// Update applies the fields present in the request to an existing product
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating product", zap.String("product_id", id))
	prometheus.RecordEntityOperation("product", "update")

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.City != nil {
		product.City = *req.City
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.SupplierID != nil {
		product.SupplierID = req.SupplierID
	}
	if req.UserID != nil {
		product.UserID = req.UserID
	}

	// Replace the product image when a new one was uploaded
	if file, err := c.FormFile("image"); err == nil {
		name, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store product image", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to store image",
			})
		}
		product.Image = name
	}

	result = h.db.Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// Deactivate flips a product to estado inactivo. Products with
// remaining stock cannot be deactivated.
func (h *ProductHandler) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deactivating product", zap.String("product_id", id))
	prometheus.RecordEntityOperation("product", "deactivate")

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	if product.Quantity > 0 {
		log.Warn("Cannot deactivate product with remaining stock",
			zap.String("product_id", id),
			zap.Int("quantity", product.Quantity))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot deactivate product with remaining stock",
		})
	}

	product.Estado = model.EstadoInactivo
	result = h.db.Save(&product)
	if result.Error != nil {
		log.Error("Failed to deactivate product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to deactivate product",
		})
	}

	log.Info("Product deactivated successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deactivated successfully",
	})
}

// Reactivate flips a deactivated product back to estado activo
func (h *ProductHandler) Reactivate(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Reactivating product", zap.String("product_id", id))
	prometheus.RecordEntityOperation("product", "reactivate")

	var product model.Product
	result := h.db.First(&product, "id = ?", id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	if product.Estado == model.EstadoActivo {
		log.Warn("Product is already active", zap.String("product_id", id))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Product is already active",
		})
	}

	product.Estado = model.EstadoActivo
	result = h.db.Save(&product)
	if result.Error != nil {
		log.Error("Failed to reactivate product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reactivate product",
		})
	}

	log.Info("Product reactivated successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, product)
}
