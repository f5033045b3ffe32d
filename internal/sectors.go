package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"asset-lifecycle-api/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listSectors(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}
	if branchID := strings.TrimSpace(r.URL.Query().Get("branch_id")); branchID != "" {
		clauses = append(clauses, fmt.Sprintf("branch_id = $%d", arg))
		args = append(args, branchID)
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT id, name, branch_id, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM sectors%s`, whereClause)

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
		var sec models.Sector
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.BranchID, &sec.CreatedAt, &sec.UpdatedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, sec)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) createSector(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		BranchID *int64 `json:"branch_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}

	var sec models.Sector
	sec.Name = strings.TrimSpace(in.Name)
	sec.BranchID = in.BranchID
	err := s.DB.QueryRowContext(r.Context(), `
		INSERT INTO sectors (name, branch_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		sec.Name, sec.BranchID).Scan(&sec.ID, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "branch does not exist", 400)
			return
		}
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "a sector with this name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, sec)
}

func (s *Server) deleteSector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM sectors WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "sector is still referenced by employees or assignments", http.StatusConflict)
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
