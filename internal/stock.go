package internal

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"asset-lifecycle-api/internal/auth"
	"asset-lifecycle-api/internal/models"
	"asset-lifecycle-api/internal/stock"

	"github.com/go-chi/chi/v5"
)

// getStockAlerts projects the supply status of every bulk product.
func (s *Server) getStockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := stock.LoadAlerts(r.Context(), s.DB)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": alerts})
}

// getProductStock returns the current level for one bulk product.
func (s *Server) getProductStock(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var usesSerial bool
	err = s.DB.QueryRowContext(r.Context(),
		`SELECT uses_serial_number FROM products WHERE id = $1`, productID).Scan(&usesSerial)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if usesSerial {
		http.Error(w, "product is tracked as serialized units, not bulk stock", 400)
		return
	}

	level := models.StockLevel{ProductID: productID}
	err = s.DB.QueryRowContext(r.Context(),
		`SELECT quantity, updated_at FROM stock_levels WHERE product_id = $1`, productID).
		Scan(&level.Quantity, &level.UpdatedAt)
	if err != nil && err != sql.ErrNoRows {
		http.Error(w, err.Error(), 500)
		return
	}
	// no row yet means zero on hand; UpdatedAt stays zero-valued
	writeJSON(w, http.StatusOK, level)
}

func (s *Server) listStockMovements(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}
	params := parseListParams(r)

	rows, err := s.DB.QueryContext(r.Context(), `
		SELECT id, product_id, delta, reason, actor_id, moved_at,
		       COUNT(*) OVER() as total_count
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY moved_at DESC, id DESC
		LIMIT $2 OFFSET $3`, productID, params.limit, params.offset)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []interface{}{}
	var totalCount int
	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &m.ActorID, &m.MovedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, m)
	}

	sendListResponse(w, items, totalCount, params)
}

// createStockMovement appends to the movements ledger and adjusts the
// level row in the same transaction. Levels never go negative.
func (s *Server) createStockMovement(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var req models.CreateStockMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": map[string]string{"delta": "must be non-zero"},
		})
		return
	}
	actorID := auth.UserIDFromContext(r.Context())

	tx, err := s.DB.BeginTx(r.Context(), nil)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	var usesSerial bool
	err = tx.QueryRowContext(r.Context(),
		`SELECT uses_serial_number FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&usesSerial)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if usesSerial {
		http.Error(w, "product is tracked as serialized units, not bulk stock", 400)
		return
	}

	var current int
	err = tx.QueryRowContext(r.Context(),
		`SELECT quantity FROM stock_levels WHERE product_id = $1 FOR UPDATE`, productID).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		http.Error(w, err.Error(), 500)
		return
	}
	next := current + req.Delta
	if next < 0 {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "state_conflict",
			"message": "movement would drive stock below zero",
		})
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO stock_levels (product_id, quantity, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO UPDATE SET quantity = $2, updated_at = now()`,
		productID, next)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var m models.StockMovement
	m.ProductID = productID
	m.Delta = req.Delta
	m.Reason = req.Reason
	m.ActorID = actorID
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO stock_movements (product_id, delta, reason, actor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, moved_at`,
		productID, req.Delta, nullIfEmpty(req.Reason), actorID).Scan(&m.ID, &m.MovedAt)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
