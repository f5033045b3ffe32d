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

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}
	if sectorID := strings.TrimSpace(r.URL.Query().Get("sector_id")); sectorID != "" {
		clauses = append(clauses, fmt.Sprintf("sector_id = $%d", arg))
		args = append(args, sectorID)
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT id, name, email, sector_id, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM employees%s`, whereClause)

	allowedSort := map[string]string{
		"id":   "id",
		"name": "name",
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
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.SectorID, &e.CreatedAt, &e.UpdatedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, e)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var e models.Employee
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, name, email, sector_id, created_at, updated_at
		FROM employees WHERE id = $1`, id).Scan(
		&e.ID, &e.Name, &e.Email, &e.SectorID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string  `json:"name"`
		Email    *string `json:"email,omitempty"`
		SectorID *int64  `json:"sector_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}

	var e models.Employee
	e.Name = strings.TrimSpace(in.Name)
	e.Email = nullStrPtr(in.Email)
	e.SectorID = in.SectorID
	err := s.DB.QueryRowContext(r.Context(), `
		INSERT INTO employees (name, email, sector_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		e.Name, nullIfEmpty(in.Email), e.SectorID).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "sector does not exist", 400)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "employee still has assignments on record", http.StatusConflict)
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

// nullStrPtr normalizes a possibly-blank optional string.
func nullStrPtr(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
