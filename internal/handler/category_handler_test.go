package handler

import (
	"net/http"
	"testing"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
)

// TestCategoryLifecycle walks a category through create, list,
// deactivate and reactivate.
func TestCategoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)

	// Create
	c, rec := newJSONContext(t, http.MethodPost, "/api/categories", `{"name":"Beverages"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created model.Category
	decodeBody(t, rec, &created)
	if created.ID != 1 {
		t.Errorf("expected id 1, got %d", created.ID)
	}
	if created.Estado != model.EstadoActivo {
		t.Errorf("expected estado %q, got %q", model.EstadoActivo, created.Estado)
	}

	// Active list contains the category
	c, rec = newJSONContext(t, http.MethodGet, "/api/categories", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var active []model.Category
	decodeBody(t, rec, &active)
	if len(active) != 1 || active[0].ID != created.ID {
		t.Fatalf("expected active list with id %d, got %+v", created.ID, active)
	}

	// Deactivate succeeds while nothing references the category
	c, rec = newJSONContext(t, http.MethodDelete, "/api/categories/1", "")
	withParam(c, "id", "1")
	if err := h.Deactivate(c); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Active list is now empty
	c, rec = newJSONContext(t, http.MethodGet, "/api/categories", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	active = nil
	decodeBody(t, rec, &active)
	if len(active) != 0 {
		t.Fatalf("expected empty active list, got %+v", active)
	}

	// Reactivate restores estado activo
	c, rec = newJSONContext(t, http.MethodPut, "/api/categories/reactivate/1", "")
	withParam(c, "id", "1")
	if err := h.Reactivate(c); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	var reactivated model.Category
	decodeBody(t, rec, &reactivated)
	if reactivated.Estado != model.EstadoActivo {
		t.Errorf("expected estado %q after reactivate, got %q", model.EstadoActivo, reactivated.Estado)
	}
	if reactivated.Name != "Beverages" {
		t.Errorf("expected name unchanged, got %q", reactivated.Name)
	}
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)

	c, rec := newJSONContext(t, http.MethodPost, "/api/categories", `{"name":"Snacks"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, rec = newJSONContext(t, http.MethodPost, "/api/categories", `{"name":"Snacks"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", rec.Code)
	}

	var count int64
	db.Model(&model.Category{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 row after duplicate create, got %d", count)
	}
}

func TestCategoryGetNotFound(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)

	c, rec := newJSONContext(t, http.MethodGet, "/api/categories/42", "")
	withParam(c, "id", "42")
	if err := h.Get(c); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCategoryReactivateAlreadyActive(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)
	db.Create(&model.Category{Name: "Dairy", Estado: model.EstadoActivo})

	c, rec := newJSONContext(t, http.MethodPut, "/api/categories/reactivate/1", "")
	withParam(c, "id", "1")
	if err := h.Reactivate(c); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for already active category, got %d", rec.Code)
	}
}

// TestCategoryDeactivateGuard verifies deactivation is blocked while an
// active product references the category, and allowed once that
// product is deactivated.
func TestCategoryDeactivateGuard(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)

	category := model.Category{Name: "Beverages", Estado: model.EstadoActivo}
	db.Create(&category)
	product := model.Product{Name: "Cola", CategoryID: &category.ID, Estado: model.EstadoActivo}
	db.Create(&product)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/categories/1", "")
	withParam(c, "id", "1")
	if err := h.Deactivate(c); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while an active product references the category, got %d", rec.Code)
	}

	// Deactivate the referencing product, then the guard lifts
	db.Model(&product).Update("estado", model.EstadoInactivo)

	c, rec = newJSONContext(t, http.MethodDelete, "/api/categories/1", "")
	withParam(c, "id", "1")
	if err := h.Deactivate(c); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after product deactivation, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored model.Category
	db.First(&stored, category.ID)
	if stored.Estado != model.EstadoInactivo {
		t.Errorf("expected estado %q, got %q", model.EstadoInactivo, stored.Estado)
	}
}

func TestCategoryUpdateRenameConflict(t *testing.T) {
	db := newTestDB(t)
	h := NewCategoryHandler(db)
	db.Create(&model.Category{Name: "Beverages", Estado: model.EstadoActivo})
	db.Create(&model.Category{Name: "Snacks", Estado: model.EstadoActivo})

	c, rec := newJSONContext(t, http.MethodPut, "/api/categories/2", `{"name":"Beverages"}`)
	withParam(c, "id", "2")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when renaming to a taken name, got %d", rec.Code)
	}
}
