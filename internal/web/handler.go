package web

import (
	"net/http"
	"strconv"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/internal/upload"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the server-rendered HTML pages. Each operation has a
// paired GET (render form) / POST (process submission) route; the
// template context carries the Error or Success message.
type Handler struct {
	db      *gorm.DB
	uploads *upload.Store
}

// NewHandler creates the web handler bound to the given database and
// upload store
func NewHandler(db *gorm.DB, uploads *upload.Store) *Handler {
	return &Handler{db: db, uploads: uploads}
}

// pageData is the template context shared by all pages
type pageData struct {
	Error      string
	Success    string
	Products   []model.Product
	Categories []model.Category
	Suppliers  []model.Supplier
	Users      []model.User
}

// Index renders the landing page with the active product catalog
func (h *Handler) Index(c echo.Context) error {
	log := logger.FromContext(c)

	var data pageData
	if err := h.db.Where("estado = ?", model.EstadoActivo).Find(&data.Products).Error; err != nil {
		log.Error("Failed to load products for index page", zap.Error(err))
		data.Error = "Failed to load the product catalog"
	}
	return c.Render(http.StatusOK, "index.html", data)
}

// CategoryForm renders the category creation form
func (h *Handler) CategoryForm(c echo.Context) error {
	return c.Render(http.StatusOK, "category_form.html", pageData{})
}

// CategoryCreate processes the category creation form
func (h *Handler) CategoryCreate(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.FormValue("name")
	if name == "" {
		return c.Render(http.StatusBadRequest, "category_form.html", pageData{Error: "Name is required"})
	}

	var count int64
	h.db.Model(&model.Category{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return c.Render(http.StatusConflict, "category_form.html", pageData{Error: "Category with this name already exists"})
	}

	category := model.Category{Name: name, Estado: model.EstadoActivo}
	if err := h.db.Create(&category).Error; err != nil {
		log.Error("Failed to create category from form", zap.Error(err))
		return c.Render(http.StatusInternalServerError, "category_form.html", pageData{Error: "Failed to create category"})
	}

	log.Info("Category created from form", zap.String("name", name))
	return c.Render(http.StatusOK, "category_form.html", pageData{Success: "Category '" + name + "' created"})
}

// SupplierForm renders the supplier creation form
func (h *Handler) SupplierForm(c echo.Context) error {
	return c.Render(http.StatusOK, "supplier_form.html", pageData{})
}

// SupplierCreate processes the supplier creation form
func (h *Handler) SupplierCreate(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.FormValue("name")
	if name == "" {
		return c.Render(http.StatusBadRequest, "supplier_form.html", pageData{Error: "Name is required"})
	}

	var count int64
	h.db.Model(&model.Supplier{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return c.Render(http.StatusConflict, "supplier_form.html", pageData{Error: "Supplier with this name already exists"})
	}

	supplier := model.Supplier{
		Name:    name,
		Contact: c.FormValue("contact"),
		Phone:   c.FormValue("phone"),
		City:    c.FormValue("city"),
		Estado:  model.EstadoActivo,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier from form", zap.Error(err))
		return c.Render(http.StatusInternalServerError, "supplier_form.html", pageData{Error: "Failed to create supplier"})
	}

	log.Info("Supplier created from form", zap.String("name", name))
	return c.Render(http.StatusOK, "supplier_form.html", pageData{Success: "Supplier '" + name + "' created"})
}

// UserForm renders the user creation form
func (h *Handler) UserForm(c echo.Context) error {
	return c.Render(http.StatusOK, "user_form.html", pageData{})
}

// UserCreate processes the user creation form, storing the optional
// profile image
func (h *Handler) UserCreate(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.FormValue("name")
	email := c.FormValue("email")
	if name == "" || email == "" {
		return c.Render(http.StatusBadRequest, "user_form.html", pageData{Error: "Name and email are required"})
	}

	var count int64
	h.db.Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return c.Render(http.StatusConflict, "user_form.html", pageData{Error: "Email is already registered"})
	}

	user := model.User{
		Name:   name,
		Email:  email,
		Phone:  c.FormValue("phone"),
		City:   c.FormValue("city"),
		Estado: model.EstadoActivo,
	}
	if file, err := c.FormFile("image"); err == nil {
		stored, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store user image from form", zap.Error(err))
			return c.Render(http.StatusInternalServerError, "user_form.html", pageData{Error: "Failed to store image"})
		}
		user.Image = stored
	}

	if err := h.db.Create(&user).Error; err != nil {
		log.Error("Failed to create user from form", zap.Error(err))
		return c.Render(http.StatusInternalServerError, "user_form.html", pageData{Error: "Failed to create user"})
	}

	log.Info("User created from form", zap.String("email", email))
	return c.Render(http.StatusOK, "user_form.html", pageData{Success: "User '" + name + "' created"})
}

// ProductForm renders the product creation form with the active
// categories, suppliers and users for its select inputs
func (h *Handler) ProductForm(c echo.Context) error {
	return c.Render(http.StatusOK, "product_form.html", h.productFormData())
}

// ProductCreate processes the product creation form, storing the
// optional product image
func (h *Handler) ProductCreate(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.FormValue("name")
	if name == "" {
		data := h.productFormData()
		data.Error = "Name is required"
		return c.Render(http.StatusBadRequest, "product_form.html", data)
	}

	price, _ := strconv.ParseFloat(c.FormValue("price"), 64)
	quantity, _ := strconv.Atoi(c.FormValue("quantity"))

	product := model.Product{
		Name:       name,
		Price:      price,
		Quantity:   quantity,
		City:       c.FormValue("city"),
		CategoryID: formID(c, "category_id"),
		SupplierID: formID(c, "supplier_id"),
		UserID:     formID(c, "user_id"),
		Estado:     model.EstadoActivo,
	}
	if file, err := c.FormFile("image"); err == nil {
		stored, err := h.uploads.Save(file)
		if err != nil {
			log.Error("Failed to store product image from form", zap.Error(err))
			data := h.productFormData()
			data.Error = "Failed to store image"
			return c.Render(http.StatusInternalServerError, "product_form.html", data)
		}
		product.Image = stored
	}

	if err := h.db.Create(&product).Error; err != nil {
		log.Error("Failed to create product from form", zap.Error(err))
		data := h.productFormData()
		data.Error = "Failed to create product"
		return c.Render(http.StatusInternalServerError, "product_form.html", data)
	}

	log.Info("Product created from form", zap.String("name", name))
	data := h.productFormData()
	data.Success = "Product '" + name + "' created"
	return c.Render(http.StatusOK, "product_form.html", data)
}

func (h *Handler) productFormData() pageData {
	var data pageData
	h.db.Where("estado = ?", model.EstadoActivo).Find(&data.Categories)
	h.db.Where("estado = ?", model.EstadoActivo).Find(&data.Suppliers)
	h.db.Where("estado = ?", model.EstadoActivo).Find(&data.Users)
	return data
}

// formID parses an optional numeric form value into a nullable FK
func formID(c echo.Context, field string) *uint {
	v := c.FormValue(field)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(n)
	return &id
}
