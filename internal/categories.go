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

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}
	if class := strings.TrimSpace(r.URL.Query().Get("class")); class != "" {
		clauses = append(clauses, fmt.Sprintf("class = $%d", arg))
		args = append(args, class)
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`
		SELECT id, name, parent_id, class, requires_serial, allows_assignment, allows_repair,
		       created_at, updated_at, COUNT(*) OVER() as total_count
		FROM categories%s`, whereClause)

	allowedSort := map[string]string{
		"id":         "id",
		"name":       "name",
		"class":      "class",
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
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.ParentID, &c.Class, &c.RequiresSerial, &c.AllowsAssignment, &c.AllowsRepair,
			&c.CreatedAt, &c.UpdatedAt, &totalCount,
		); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		items = append(items, c)
	}

	sendListResponse(w, items, totalCount, params)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var c models.Category
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, name, parent_id, class, requires_serial, allows_assignment, allows_repair,
		       created_at, updated_at
		FROM categories WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.ParentID, &c.Class, &c.RequiresSerial, &c.AllowsAssignment, &c.AllowsRepair,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}
	if in.Class == "" {
		in.Class = models.ClassOther
	}
	if !in.Class.IsValid() {
		http.Error(w, "invalid class", 400)
		return
	}

	// one level of nesting: the parent must itself be a root category
	if in.ParentID != nil {
		var parentParent *int64
		err := s.DB.QueryRowContext(r.Context(),
			`SELECT parent_id FROM categories WHERE id = $1`, *in.ParentID).Scan(&parentParent)
		if err == sql.ErrNoRows {
			http.Error(w, "parent category does not exist", 400)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if parentParent != nil {
			http.Error(w, "categories nest at most one level deep", 400)
			return
		}
	}

	var c models.Category
	c.Name = strings.TrimSpace(in.Name)
	c.ParentID = in.ParentID
	c.Class = in.Class
	c.RequiresSerial = in.RequiresSerial
	c.AllowsAssignment = in.AllowsAssignment
	c.AllowsRepair = in.AllowsRepair
	err := s.DB.QueryRowContext(r.Context(), `
		INSERT INTO categories (name, parent_id, class, requires_serial, allows_assignment, allows_repair)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		c.Name, c.ParentID, c.Class, c.RequiresSerial, c.AllowsAssignment, c.AllowsRepair).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			http.Error(w, "a category with this name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 6)
	arg := 1

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			http.Error(w, "name must not be empty", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("name = $%d", arg), strings.TrimSpace(*req.Name)})
		arg++
	}
	if req.Class != nil {
		if !req.Class.IsValid() {
			http.Error(w, "invalid class", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("class = $%d", arg), *req.Class})
		arg++
	}
	if req.RequiresSerial != nil {
		sets = append(sets, set{fmt.Sprintf("requires_serial = $%d", arg), *req.RequiresSerial})
		arg++
	}
	if req.AllowsAssignment != nil {
		sets = append(sets, set{fmt.Sprintf("allows_assignment = $%d", arg), *req.AllowsAssignment})
		arg++
	}
	if req.AllowsRepair != nil {
		sets = append(sets, set{fmt.Sprintf("allows_repair = $%d", arg), *req.AllowsRepair})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+1)
	sqlStr := "UPDATE categories SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(` WHERE id = $%d
		RETURNING id, name, parent_id, class, requires_serial, allows_assignment, allows_repair,
		          created_at, updated_at`, len(args)+1)
	args = append(args, id)

	var c models.Category
	err := s.DB.QueryRowContext(r.Context(), sqlStr, args...).Scan(
		&c.ID, &c.Name, &c.ParentID, &c.Class, &c.RequiresSerial, &c.AllowsAssignment, &c.AllowsRepair,
		&c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.DB.ExecContext(r.Context(), `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			http.Error(w, "category is still referenced by products or child categories", http.StatusConflict)
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
