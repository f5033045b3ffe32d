package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"asset-lifecycle-api/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(brand ILIKE $%d OR model ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}
	if categoryID := strings.TrimSpace(r.URL.Query().Get("category_id")); categoryID != "" {
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", arg))
		args = append(args, categoryID)
		arg++
	}
	if serial := strings.TrimSpace(r.URL.Query().Get("uses_serial_number")); serial != "" {
		clauses = append(clauses, fmt.Sprintf("uses_serial_number = $%d", arg))
		args = append(args, serial == "true" || serial == "1")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT id, category_id, brand, model, uses_serial_number, minimum_stock,
		       created_at, updated_at, COUNT(*) OVER() as total_count
		FROM products%s`, whereClause)

	allowedSort := map[string]string{
		"id":         "id",
		"brand":      "brand",
		"model":      "model",
		"created_at": "created_at",
	}
	sqlStr += buildOrderBy(params.sort, allowedSort)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", params.limit, params.offset)

	rows, err := s.DB.QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []interface{}{}
	var totalCount int
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Brand, &p.Model, &p.UsesSerialNumber, &p.MinimumStock,
			&p.CreatedAt, &p.UpdatedAt, &totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, p)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p models.Product
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, category_id, brand, model, uses_serial_number, minimum_stock,
		       created_at, updated_at
		FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.CategoryID, &p.Brand, &p.Model, &p.UsesSerialNumber, &p.MinimumStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if in.CategoryID == 0 || strings.TrimSpace(in.Brand) == "" || strings.TrimSpace(in.Model) == "" {
		http.Error(w, "category_id, brand and model are required", 400)
		return
	}
	if in.MinimumStock < 0 {
		http.Error(w, "minimum_stock must not be negative", 400)
		return
	}

	var requiresSerial bool
	err := s.DB.QueryRowContext(r.Context(),
		`SELECT requires_serial FROM categories WHERE id = $1`, in.CategoryID).Scan(&requiresSerial)
	if err == sql.ErrNoRows {
		http.Error(w, "category does not exist", 400)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if requiresSerial && !in.UsesSerialNumber {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": map[string]string{"uses_serial_number": "category requires serialized tracking"},
		})
		return
	}

	var p models.Product
	p.CategoryID = in.CategoryID
	p.Brand = strings.TrimSpace(in.Brand)
	p.Model = strings.TrimSpace(in.Model)
	p.UsesSerialNumber = in.UsesSerialNumber
	p.MinimumStock = in.MinimumStock
	err = s.DB.QueryRowContext(r.Context(), `
		INSERT INTO products (category_id, brand, model, uses_serial_number, minimum_stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.CategoryID, p.Brand, p.Model, p.UsesSerialNumber, p.MinimumStock).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "a product with this brand and model already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// updateProduct edits catalog fields. The tracking mode
// (uses_serial_number) is immutable once units or movements exist, so it
// is not updatable at all.
func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 4)
	arg := 1

	if req.CategoryID != nil {
		var exists bool
		if err := s.DB.QueryRowContext(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, *req.CategoryID).Scan(&exists); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if !exists {
			http.Error(w, "category does not exist", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("category_id = $%d", arg), *req.CategoryID})
		arg++
	}
	if req.Brand != nil {
		if strings.TrimSpace(*req.Brand) == "" {
			http.Error(w, "brand must not be empty", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("brand = $%d", arg), strings.TrimSpace(*req.Brand)})
		arg++
	}
	if req.Model != nil {
		if strings.TrimSpace(*req.Model) == "" {
			http.Error(w, "model must not be empty", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("model = $%d", arg), strings.TrimSpace(*req.Model)})
		arg++
	}
	if req.MinimumStock != nil {
		if *req.MinimumStock < 0 {
			http.Error(w, "minimum_stock must not be negative", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("minimum_stock = $%d", arg), *req.MinimumStock})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+1)
	sqlStr := "UPDATE products SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(` WHERE id = $%d
		RETURNING id, category_id, brand, model, uses_serial_number, minimum_stock,
		          created_at, updated_at`, len(args)+1)
	args = append(args, id)

	var p models.Product
	err := s.DB.QueryRowContext(r.Context(), sqlStr, args...).Scan(
		&p.ID, &p.CategoryID, &p.Brand, &p.Model, &p.UsesSerialNumber, &p.MinimumStock,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "product still has inventory items or stock records", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
