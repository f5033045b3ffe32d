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

const repairColumns = `
	r.id, r.item_id, r.vendor, r.problem, r.solution,
	r.sent_at, r.returned_at, r.outcome, r.sent_by, r.received_by`

func (s *Server) listRepairs(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if itemID := strings.TrimSpace(r.URL.Query().Get("item_id")); itemID != "" {
		clauses = append(clauses, fmt.Sprintf("r.item_id = $%d", arg))
		args = append(args, itemID)
		arg++
	}
	if outcome := strings.TrimSpace(r.URL.Query().Get("outcome")); outcome != "" {
		clauses = append(clauses, fmt.Sprintf("r.outcome = $%d", arg))
		args = append(args, outcome)
		arg++
	}
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(r.vendor ILIKE $%d OR r.problem ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() as total_count
		FROM repairs r%s`, repairColumns, whereClause)

	allowedSort := map[string]string{
		"id":          "r.id",
		"vendor":      "r.vendor",
		"sent_at":     "r.sent_at",
		"returned_at": "r.returned_at",
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
		var rep models.Repair
		if err := rows.Scan(
			&rep.ID, &rep.ItemID, &rep.Vendor, &rep.Problem, &rep.Solution,
			&rep.SentAt, &rep.ReturnedAt, &rep.Outcome, &rep.SentBy, &rep.ReceivedBy,
			&totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, rep)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getRepair(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var rep models.Repair
	err := s.DB.QueryRowContext(r.Context(),
		fmt.Sprintf(`SELECT %s FROM repairs r WHERE r.id = $1`, repairColumns), id).Scan(
		&rep.ID, &rep.ItemID, &rep.Vendor, &rep.Problem, &rep.Solution,
		&rep.SentAt, &rep.ReturnedAt, &rep.Outcome, &rep.SentBy, &rep.ReceivedBy,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// createRepair sends an available unit to an external vendor.
func (s *Server) createRepair(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.ItemID == 0 {
		http.Error(w, "item_id is required", 400)
		return
	}
	actorID := auth.UserIDFromContext(r.Context())

	tx, err := s.DB.BeginTx(r.Context(), nil)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	rep, err := lifecycle.SendToRepair(r.Context(), tx, req, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// returnRepair closes an open repair with a terminal outcome. The unit
// returns to the available pool either way; a not_repaired unit is
// decommissioned through the registry as a separate, explicit step.
func (s *Server) returnRepair(w http.ResponseWriter, r *http.Request) {
	repairID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var req models.ReturnRepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	receiverID := auth.UserIDFromContext(r.Context())

	tx, err := s.DB.BeginTx(r.Context(), nil)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	rep, err := lifecycle.ReturnFromRepair(r.Context(), tx, repairID, req.Outcome, req.Solution, receiverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
