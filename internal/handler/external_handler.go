package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/config"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/openfoodfacts"
	"github.com/Alonso-dfg/Project-Alimentos/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportSource labels products persisted by the importer.
const ImportSource = "Open Food Facts"

// ImportedProduct is the normalized shape of an upstream record as
// returned to the caller.
type ImportedProduct struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	City     string  `json:"city"`
	Source   string  `json:"source"`
	Price    float64 `json:"price"`
	Barcode  string  `json:"barcode,omitempty"`
	Image    string  `json:"image,omitempty"`
	Imported bool    `json:"imported"`
}

// ExternalHandler pulls product data from the Open Food Facts API and
// persists previously unseen items.
type ExternalHandler struct {
	db  *gorm.DB
	off *openfoodfacts.Client
	cfg config.OpenFoodFactsConfig
}

// NewExternalHandler creates an importer handler bound to the given
// database and upstream client
func NewExternalHandler(db *gorm.DB, off *openfoodfacts.Client, cfg config.OpenFoodFactsConfig) *ExternalHandler {
	return &ExternalHandler{db: db, off: off, cfg: cfg}
}

// Import queries the external search endpoint, normalizes the returned
// records and stores the ones not seen before. All inserts happen in a
// single transaction; an individual record's insert failure is logged
// and skipped without aborting the rest of the batch.
func (h *ExternalHandler) Import(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Importing products from external catalog")

	limit := h.cfg.DefaultPageSize
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn("Invalid limit parameter", zap.String("value", v))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = n
	}
	if limit > h.cfg.MaxPageSize {
		limit = h.cfg.MaxPageSize
	}

	opts := openfoodfacts.SearchOptions{
		Terms:       c.QueryParam("search"),
		PageSize:    limit,
		CategoryTag: c.QueryParam("category"),
		CountryTag:  c.QueryParam("country"),
	}

	searchStart := time.Now()
	resp, err := h.off.Search(c.Request().Context(), opts)
	prometheus.TrackUpstreamRequest("search")(searchStart)
	if err != nil {
		prometheus.ImportErrorsCounter.Inc()
		log.Error("External product search failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to query external product API: " + err.Error(),
		})
	}
	prometheus.ImportFetchedCounter.Add(float64(len(resp.Products)))

	var (
		results  []ImportedProduct
		imported int
	)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range resp.Products {
			name := strings.TrimSpace(rec.ProductName)
			if name == "" {
				log.Warn("Skipping record without a usable name", zap.String("barcode", rec.Code))
				continue
			}

			item := ImportedProduct{
				Name:     name,
				Category: normalizeCategory(rec.Categories),
				City:     normalizeCountry(rec.CountriesTags),
				Source:   ImportSource,
				Price:    openfoodfacts.ParsePrice(rec.Price),
				Barcode:  rec.Code,
				Image:    rec.ImageURL,
			}

			if h.alreadyImported(tx, item) {
				log.Info("Skipping already imported product",
					zap.String("name", name),
					zap.String("barcode", rec.Code))
				results = append(results, item)
				continue
			}

			product := model.Product{
				Name:    item.Name,
				Price:   item.Price,
				City:    item.City,
				Image:   item.Image,
				Source:  item.Source,
				Barcode: item.Barcode,
				Estado:  model.EstadoActivo,
			}
			// Nested transaction so a failed insert rolls back to its
			// savepoint instead of aborting the whole batch.
			err := tx.Transaction(func(tx2 *gorm.DB) error {
				return tx2.Create(&product).Error
			})
			if err != nil {
				log.Warn("Failed to persist imported product, skipping record",
					zap.String("name", name),
					zap.Error(err))
				results = append(results, item)
				continue
			}

			item.Imported = true
			imported++
			results = append(results, item)
		}
		return nil
	})
	if err != nil {
		log.Error("Import transaction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to store imported products",
		})
	}
	prometheus.ImportPersistedCounter.Add(float64(imported))

	log.Info("External import completed",
		zap.Int("upstream_count", resp.Count),
		zap.Int("processed", len(results)),
		zap.Int("imported", imported))
	return c.JSON(http.StatusOK, echo.Map{
		"count":     resp.Count,
		"processed": len(results),
		"imported":  imported,
		"products":  results,
	})
}

// GetByBarcode resolves a single product by its exact upstream barcode.
// Nothing is persisted.
func (h *ExternalHandler) GetByBarcode(c echo.Context) error {
	log := logger.FromContext(c)
	barcode := c.Param("barcode")
	log.Info("Looking up external product by barcode", zap.String("barcode", barcode))

	lookupStart := time.Now()
	rec, err := h.off.Product(c.Request().Context(), barcode)
	prometheus.TrackUpstreamRequest("product")(lookupStart)
	if err != nil {
		if errors.Is(err, openfoodfacts.ErrProductNotFound) {
			log.Warn("External product not found", zap.String("barcode", barcode))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found in external catalog",
			})
		}
		prometheus.ImportErrorsCounter.Inc()
		log.Error("External product lookup failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to query external product API: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ImportedProduct{
		Name:     strings.TrimSpace(rec.ProductName),
		Category: normalizeCategory(rec.Categories),
		City:     normalizeCountry(rec.CountriesTags),
		Source:   ImportSource,
		Price:    openfoodfacts.ParsePrice(rec.Price),
		Barcode:  rec.Code,
		Image:    rec.ImageURL,
	})
}

// alreadyImported reports whether a record is already present locally.
// Records carrying a barcode are matched on it exactly; the rest fall
// back to an exact case-insensitive name match.
func (h *ExternalHandler) alreadyImported(tx *gorm.DB, item ImportedProduct) bool {
	var count int64
	if item.Barcode != "" {
		tx.Model(&model.Product{}).Where("barcode = ?", item.Barcode).Count(&count)
		return count > 0
	}
	tx.Model(&model.Product{}).Where("LOWER(name) = ?", strings.ToLower(item.Name)).Count(&count)
	return count > 0
}

// normalizeCategory keeps the first comma-separated segment of the
// upstream categories string.
func normalizeCategory(categories string) string {
	first := categories
	if i := strings.Index(categories, ","); i >= 0 {
		first = categories[:i]
	}
	first = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(first), "en:"))
	if first == "" {
		return "uncategorized"
	}
	return first
}

// normalizeCountry keeps the first upstream country tag, stripped of
// its language prefix and capitalized.
func normalizeCountry(tags []string) string {
	if len(tags) == 0 {
		return "unknown"
	}
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tags[0]), "en:"))
	if t == "" {
		return "unknown"
	}
	r, size := utf8.DecodeRuneInString(t)
	return string(unicode.ToUpper(r)) + t[size:]
}
