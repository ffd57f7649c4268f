package handler

import (
	"net/http"
	"testing"

	"github.com/Alonso-dfg/Project-Alimentos/internal/model"
)

// TestSupplierPartialUpdate verifies that only the fields present in the
// request body change, the rest keep their stored values.
func TestSupplierPartialUpdate(t *testing.T) {
	db := newTestDB(t)
	h := NewSupplierHandler(db)

	supplier := model.Supplier{
		Name:    "Acme Foods",
		Contact: "Maria",
		Phone:   "3001234567",
		City:    "Medellin",
		Estado:  model.EstadoActivo,
	}
	db.Create(&supplier)

	c, rec := newJSONContext(t, http.MethodPut, "/api/suppliers/1", `{"phone":"3119998877"}`)
	withParam(c, "id", "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored model.Supplier
	db.First(&stored, supplier.ID)
	if stored.Phone != "3119998877" {
		t.Errorf("expected phone updated, got %q", stored.Phone)
	}
	if stored.Name != "Acme Foods" || stored.Contact != "Maria" || stored.City != "Medellin" {
		t.Errorf("expected untouched fields preserved, got %+v", stored)
	}
}

func TestSupplierUpdateRenameConflict(t *testing.T) {
	db := newTestDB(t)
	h := NewSupplierHandler(db)

	db.Create(&model.Supplier{Name: "Acme Foods", Estado: model.EstadoActivo})
	db.Create(&model.Supplier{Name: "Beta Dist", Estado: model.EstadoActivo})

	c, rec := newJSONContext(t, http.MethodPut, "/api/suppliers/2", `{"name":"Acme Foods"}`)
	withParam(c, "id", "2")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for rename onto existing name, got %d", rec.Code)
	}
}

// TestSupplierDeactivateGuard verifies that a supplier with active
// referencing products cannot be deactivated, and that deactivating the
// product lifts the guard.
func TestSupplierDeactivateGuard(t *testing.T) {
	db := newTestDB(t)
	h := NewSupplierHandler(db)

	supplier := model.Supplier{Name: "Acme Foods", Estado: model.EstadoActivo}
	db.Create(&supplier)
	product := model.Product{Name: "Cola", SupplierID: &supplier.ID, Estado: model.EstadoActivo}
	db.Create(&product)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/suppliers/1", "")
	withParam(c, "id", "1")
	if err := h.Deactivate(c); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while an active product references the supplier, got %d", rec.Code)
	}

	db.Model(&model.Product{}).Where("id = ?", product.ID).Update("estado", model.EstadoInactivo)

	c, rec = newJSONContext(t, http.MethodDelete, "/api/suppliers/1", "")
	withParam(c, "id", "1")
	if err := h.Deactivate(c); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once no active products remain, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored model.Supplier
	db.First(&stored, supplier.ID)
	if stored.Estado != model.EstadoInactivo {
		t.Errorf("expected estado %q, got %q", model.EstadoInactivo, stored.Estado)
	}
}

func TestSupplierCreateMissingName(t *testing.T) {
	db := newTestDB(t)
	h := NewSupplierHandler(db)

	c, rec := newJSONContext(t, http.MethodPost, "/api/suppliers", `{"contact":"Maria"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}

	var count int64
	db.Model(&model.Supplier{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no rows inserted, got %d", count)
	}
}
