package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/config"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/openfoodfacts"
)

func newExternalHandler(t *testing.T, upstream http.HandlerFunc, timeout time.Duration) (*ExternalHandler, *gorm.DB) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	db := newTestDB(t)
	client := openfoodfacts.NewClient(srv.URL, timeout, zap.NewNop())
	cfg := config.OpenFoodFactsConfig{
		BaseURL:         srv.URL,
		Timeout:         timeout,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
	return NewExternalHandler(db, client, cfg), db
}

func searchPayload(records ...openfoodfacts.Record) []byte {
	body, _ := json.Marshal(openfoodfacts.SearchResponse{
		Count:    len(records),
		Products: records,
	})
	return body
}

// TestImportNormalizesAndPersists feeds records with messy upstream
// fields and checks what ends up in the database.
func TestImportNormalizesAndPersists(t *testing.T) {
	h, db := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchPayload(
			openfoodfacts.Record{
				Code:          "7501000111",
				ProductName:   "  Cola Light ",
				Categories:    "en:beverages, en:sodas",
				CountriesTags: []string{"en:colombia", "en:mexico"},
				Price:         "3,50",
			},
			openfoodfacts.Record{
				Code:        "7501000222",
				ProductName: "Plain Crackers",
			},
			openfoodfacts.Record{
				Code:        "7501000333",
				ProductName: "   ",
			},
		))
	}, 5*time.Second)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count     int               `json:"count"`
		Processed int               `json:"processed"`
		Imported  int               `json:"imported"`
		Products  []ImportedProduct `json:"products"`
	}
	decodeBody(t, rec, &body)
	if body.Imported != 2 {
		t.Fatalf("expected 2 imported records, got %d", body.Imported)
	}
	if body.Processed != 2 {
		t.Errorf("expected the blank-name record skipped, processed = %d", body.Processed)
	}

	first := body.Products[0]
	if first.Name != "Cola Light" {
		t.Errorf("expected trimmed name, got %q", first.Name)
	}
	if first.Category != "beverages" {
		t.Errorf("expected first category segment without prefix, got %q", first.Category)
	}
	if first.City != "Colombia" {
		t.Errorf("expected capitalized first country, got %q", first.City)
	}
	if first.Price != 3.5 {
		t.Errorf("expected comma price parsed, got %v", first.Price)
	}

	second := body.Products[1]
	if second.Category != "uncategorized" || second.City != "unknown" {
		t.Errorf("expected defaults for missing fields, got %+v", second)
	}

	var stored model.Product
	db.First(&stored, "barcode = ?", "7501000111")
	if stored.Source != ImportSource || stored.Estado != model.EstadoActivo {
		t.Errorf("expected imported product active with source set, got %+v", stored)
	}
}

// TestImportExactDedup verifies dedup keys on exact barcode or exact
// name. Names that merely share a prefix both persist, and re-running
// the same import stores nothing new.
func TestImportExactDedup(t *testing.T) {
	h, db := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchPayload(
			openfoodfacts.Record{ProductName: "Chocolate"},
			openfoodfacts.Record{ProductName: "Chocolate Bar"},
			openfoodfacts.Record{Code: "7501000444", ProductName: "Cola"},
		))
	}, 5*time.Second)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	var body struct {
		Imported int `json:"imported"`
	}
	decodeBody(t, rec, &body)
	if body.Imported != 3 {
		t.Fatalf("expected prefix-sharing names to both persist, imported = %d", body.Imported)
	}

	// Second run against identical upstream data imports nothing
	c, rec = newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	decodeBody(t, rec, &body)
	if body.Imported != 0 {
		t.Errorf("expected re-import to store nothing, imported = %d", body.Imported)
	}

	var count int64
	db.Model(&model.Product{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 rows after both runs, got %d", count)
	}
}

func TestImportInvalidLimit(t *testing.T) {
	h, _ := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchPayload())
	}, 5*time.Second)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products?limit=abc", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", rec.Code)
	}

	c, rec = newJSONContext(t, http.MethodGet, "/api/external/products?limit=-2", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", rec.Code)
	}
}

// TestImportUpstreamTimeout verifies that a hanging upstream produces a
// 502 and leaves the database untouched.
func TestImportUpstreamTimeout(t *testing.T) {
	h, db := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}, 50*time.Millisecond)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on upstream timeout, got %d", rec.Code)
	}

	var count int64
	db.Model(&model.Product{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no rows persisted after upstream failure, got %d", count)
	}
}

// TestImportInsertFailureSkipsRecord rejects one record's insert at the
// gorm layer and verifies the records before and after it still land.
func TestImportInsertFailureSkipsRecord(t *testing.T) {
	h, db := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchPayload(
			openfoodfacts.Record{Code: "7501000666", ProductName: "Cola"},
			openfoodfacts.Record{Code: "7501000777", ProductName: "Broken Snack"},
			openfoodfacts.Record{Code: "7501000888", ProductName: "Crackers"},
		))
	}, 5*time.Second)

	err := db.Callback().Create().Before("gorm:create").Register("reject_broken_snack", func(tx *gorm.DB) {
		if p, ok := tx.Statement.Dest.(*model.Product); ok && p.Name == "Broken Snack" {
			tx.AddError(errors.New("insert rejected"))
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite one failed insert, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Processed int `json:"processed"`
		Imported  int `json:"imported"`
	}
	decodeBody(t, rec, &body)
	if body.Imported != 2 || body.Processed != 3 {
		t.Fatalf("expected 2 imported of 3 processed, got %d of %d", body.Imported, body.Processed)
	}

	var count int64
	db.Model(&model.Product{}).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 rows persisted, got %d", count)
	}
	if err := db.First(&model.Product{}, "name = ?", "Broken Snack").Error; err == nil {
		t.Error("expected the rejected record absent")
	}
	var kept model.Product
	if err := db.First(&kept, "barcode = ?", "7501000888").Error; err != nil {
		t.Errorf("expected the record after the failure persisted: %v", err)
	}
}

// upstreamSearchSamples reads the sample count of the upstream duration
// histogram for the search endpoint.
func upstreamSearchSamples(t *testing.T) uint64 {
	t.Helper()
	families, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "handlertest_upstream_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "endpoint" && l.GetValue() == "search" {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func TestImportRecordsUpstreamDuration(t *testing.T) {
	h, _ := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchPayload(openfoodfacts.Record{Code: "7501000999", ProductName: "Cola"}))
	}, 5*time.Second)

	before := upstreamSearchSamples(t)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products", "")
	if err := h.Import(c); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if after := upstreamSearchSamples(t); after != before+1 {
		t.Errorf("expected one upstream duration sample per search call, got %d new", after-before)
	}
}

func TestGetByBarcodeNotFound(t *testing.T) {
	h, _ := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":         0,
			"status_verbose": "product not found",
		})
	}, 5*time.Second)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products/000", "")
	withParam(c, "barcode", "000")
	if err := h.GetByBarcode(c); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown barcode, got %d", rec.Code)
	}
}

func TestGetByBarcode(t *testing.T) {
	h, _ := newExternalHandler(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": 1,
			"product": openfoodfacts.Record{
				Code:          "7501000555",
				ProductName:   "Cola Zero",
				Categories:    "en:beverages",
				CountriesTags: []string{"en:spain"},
			},
		})
	}, 5*time.Second)

	c, rec := newJSONContext(t, http.MethodGet, "/api/external/products/7501000555", "")
	withParam(c, "barcode", "7501000555")
	if err := h.GetByBarcode(c); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var item ImportedProduct
	decodeBody(t, rec, &item)
	if item.Name != "Cola Zero" || item.City != "Spain" || item.Category != "beverages" {
		t.Errorf("unexpected normalized product: %+v", item)
	}
	if item.Imported {
		t.Error("barcode lookup must not mark the product imported")
	}
}
