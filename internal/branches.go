package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"asset-lifecycle-api/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT id, name, address, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM branches%s`, whereClause)

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
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, b)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) createBranch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string  `json:"name"`
		Address *string `json:"address,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}

	var b models.Branch
	b.Name = strings.TrimSpace(in.Name)
	b.Address = nullStrPtr(in.Address)
	err := s.DB.QueryRowContext(r.Context(), `
		INSERT INTO branches (name, address)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		b.Name, nullIfEmpty(in.Address)).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "a branch with this name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) deleteBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "branch is still referenced by sectors or assignments", http.StatusConflict)
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
