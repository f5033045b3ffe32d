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

const assignmentColumns = `
	a.id, a.item_id, a.employee_id, a.sector_id, a.branch_id,
	a.assigned_by, a.received_by, a.assigned_at, a.returned_at, a.active, a.notes,
	a.encryption_password, a.phone_number, a.imei1, a.imei2,
	a.email_account, a.email_password, a.messaging_otp`

func scanAssignment(row interface {
	Scan(dest ...interface{}) error
}, a *models.Assignment) error {
	return row.Scan(
		&a.ID, &a.ItemID, &a.EmployeeID, &a.SectorID, &a.BranchID,
		&a.AssignedBy, &a.ReceivedBy, &a.AssignedAt, &a.ReturnedAt, &a.Active, &a.Notes,
		&a.Payload.EncryptionPassword, &a.Payload.PhoneNumber, &a.Payload.IMEI1, &a.Payload.IMEI2,
		&a.Payload.EmailAccount, &a.Payload.EmailPassword, &a.Payload.MessagingOTP,
	)
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if itemID := strings.TrimSpace(r.URL.Query().Get("item_id")); itemID != "" {
		clauses = append(clauses, fmt.Sprintf("a.item_id = $%d", arg))
		args = append(args, itemID)
		arg++
	}
	if active := strings.TrimSpace(r.URL.Query().Get("active")); active != "" {
		clauses = append(clauses, fmt.Sprintf("a.active = $%d", arg))
		args = append(args, active == "true" || active == "1")
		arg++
	}
	if empID := strings.TrimSpace(r.URL.Query().Get("employee_id")); empID != "" {
		clauses = append(clauses, fmt.Sprintf("a.employee_id = $%d", arg))
		args = append(args, empID)
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() as total_count
		FROM assignments a%s`, assignmentColumns, whereClause)

	allowedSort := map[string]string{
		"id":          "a.id",
		"assigned_at": "a.assigned_at",
		"returned_at": "a.returned_at",
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
		var a models.Assignment
		if err := rows.Scan(
			&a.ID, &a.ItemID, &a.EmployeeID, &a.SectorID, &a.BranchID,
			&a.AssignedBy, &a.ReceivedBy, &a.AssignedAt, &a.ReturnedAt, &a.Active, &a.Notes,
			&a.Payload.EncryptionPassword, &a.Payload.PhoneNumber, &a.Payload.IMEI1, &a.Payload.IMEI2,
			&a.Payload.EmailAccount, &a.Payload.EmailPassword, &a.Payload.MessagingOTP,
			&totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, a)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var a models.Assignment
	err := scanAssignment(s.DB.QueryRowContext(r.Context(),
		fmt.Sprintf(`SELECT %s FROM assignments a WHERE a.id = $1`, assignmentColumns), id), &a)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// createAssignment hands an available unit to exactly one destination.
// All checks and the state flip happen inside one transaction so two
// concurrent requests for the same unit cannot both succeed.
func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
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

	a, err := lifecycle.CreateAssignment(r.Context(), tx, req, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// returnAssignment closes an active assignment and puts the unit back
// into the available pool.
func (s *Server) returnAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}

	var req models.ReturnAssignmentRequest
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

	a, err := lifecycle.ReturnAssignment(r.Context(), tx, assignmentID, receiverID, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
