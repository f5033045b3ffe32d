package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"asset-lifecycle-api/internal/auth"
	"asset-lifecycle-api/internal/lifecycle"
	"asset-lifecycle-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// LIST with basic filters & pagination
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	// optional state filter
	if state := strings.TrimSpace(r.URL.Query().Get("state")); state != "" {
		if !models.ItemState(state).IsValid() {
			http.Error(w, "invalid state filter", 400)
			return
		}
		clauses = append(clauses, fmt.Sprintf("i.state = $%d", arg))
		args = append(args, state)
		arg++
	}

	// optional product filter
	if productID := strings.TrimSpace(r.URL.Query().Get("product_id")); productID != "" {
		clauses = append(clauses, fmt.Sprintf("i.product_id = $%d", arg))
		args = append(args, productID)
		arg++
	}

	// optional text search on serial
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("i.serial ILIKE $%d", arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT i.id, i.product_id, i.serial, i.state, i.ingested_at,
		       i.decommissioned_at, i.decommission_reason, i.notes, i.created_at, i.updated_at,
		       COUNT(*) OVER() as total_count
		FROM inventory_items i%s`, whereClause)

	allowedSort := map[string]string{
		"id":          "i.id",
		"serial":      "i.serial",
		"state":       "i.state",
		"ingested_at": "i.ingested_at",
		"created_at":  "i.created_at",
		"updated_at":  "i.updated_at",
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
		var it models.InventoryItem
		if err := rows.Scan(
			&it.ID, &it.ProductID, &it.Serial, &it.State, &it.IngestedAt,
			&it.DecommissionedAt, &it.DecommissionReason, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
			&totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, it)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var it models.InventoryItem
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, product_id, serial, state, ingested_at,
		       decommissioned_at, decommission_reason, notes, created_at, updated_at
		FROM inventory_items WHERE id = $1`, id).Scan(
		&it.ID, &it.ProductID, &it.Serial, &it.State, &it.IngestedAt,
		&it.DecommissionedAt, &it.DecommissionReason, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// createItem ingests one serialized unit. Items always enter the pool as
// available; every later state change goes through assignment, repair or
// decommission.
func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if in.ProductID == 0 || strings.TrimSpace(in.Serial) == "" {
		http.Error(w, "product_id and serial are required", 400)
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
		`SELECT uses_serial_number FROM products WHERE id = $1`, in.ProductID).Scan(&usesSerial)
	if err == sql.ErrNoRows {
		http.Error(w, "product does not exist", 400)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if !usesSerial {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": map[string]string{"product_id": "product is tracked as bulk stock, not serialized units"},
		})
		return
	}

	var it models.InventoryItem
	it.ProductID = in.ProductID
	it.Serial = strings.TrimSpace(in.Serial)
	it.Notes = in.Notes
	it.State = models.StateAvailable
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO inventory_items (product_id, serial, state, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ingested_at, created_at, updated_at`,
		it.ProductID, it.Serial, it.State, it.Notes).
		Scan(&it.ID, &it.IngestedAt, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "an item with this serial already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO item_state_log (item_id, from_state, to_state, cause, actor_id)
		VALUES ($1, $2, $2, $3, $4)`,
		it.ID, models.StateAvailable, lifecycle.CauseIngested, actorID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// updateItem edits descriptive fields only; state is not settable here.
func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 2)
	arg := 1

	if req.Serial != nil {
		if strings.TrimSpace(*req.Serial) == "" {
			http.Error(w, "serial must not be empty", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("serial = $%d", arg), strings.TrimSpace(*req.Serial)})
		arg++
	}
	if req.Notes != nil {
		sets = append(sets, set{fmt.Sprintf("notes = $%d", arg), nullIfEmpty(req.Notes)})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+1)
	sqlStr := "UPDATE inventory_items SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(` WHERE id = $%d
		RETURNING id, product_id, serial, state, ingested_at,
		          decommissioned_at, decommission_reason, notes, created_at, updated_at`, len(args)+1)
	args = append(args, id)

	var out models.InventoryItem
	err := s.DB.QueryRowContext(r.Context(), sqlStr, args...).Scan(
		&out.ID, &out.ProductID, &out.Serial, &out.State, &out.IngestedAt,
		&out.DecommissionedAt, &out.DecommissionReason, &out.Notes, &out.CreatedAt, &out.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "an item with this serial already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decommissionItem retires a unit permanently through the registry.
func (s *Server) decommissionItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var req models.DecommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": map[string]string{"reason": "required"},
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

	if err := lifecycle.Decommission(r.Context(), tx, itemID, strings.TrimSpace(req.Reason), actorID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getItemHistory returns the merged lifecycle timeline, most recent first.
func (s *Server) getItemHistory(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var exists bool
	if err := s.DB.QueryRowContext(r.Context(),
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if !exists {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	events, err := s.Timeline.Build(r.Context(), itemID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item_id": itemID,
		"events":  events,
	})
}
