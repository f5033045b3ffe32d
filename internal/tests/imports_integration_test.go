package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"asset-lifecycle-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

// buildWorkbook produces an in-memory .xlsx with one serialized sheet and
// one bulk sheet matching configs/mapping/equipment.yaml.
func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()

	notebooks, err := f.AddSheet("Notebooks")
	require.NoError(t, err)
	header := notebooks.AddRow()
	for _, h := range []string{"Brand", "Model", "Serial Number"} {
		header.AddCell().SetString(h)
	}
	for _, row := range [][]string{
		{"Dell", "Latitude 5440", "NB-IMPORT-001"},
		{"Dell", "Latitude 5440", "NB-IMPORT-002"},
	} {
		r := notebooks.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}

	consumables, err := f.AddSheet("Consumables")
	require.NoError(t, err)
	header = consumables.AddRow()
	for _, h := range []string{"Brand", "Model", "Qty", "Min"} {
		header.AddCell().SetString(h)
	}
	r := consumables.AddRow()
	for _, v := range []string{"Brother", "TN-423 Toner", "12", "4"} {
		r.AddCell().SetString(v)
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func uploadWorkbook(t *testing.T, bearer string, workbook []byte, dryRun bool) *httptest.ResponseRecorder {
	t.Helper()
	root, err := testutil.RepoRoot()
	require.NoError(t, err)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("mapping", filepath.Join(root, "configs", "mapping", "equipment.yaml")))
	if dryRun {
		require.NoError(t, writer.WriteField("dry_run", "true"))
	}
	fw, err := writer.CreateFormFile("file", "inventory.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbook)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/imports/excel", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	w := httptest.NewRecorder()
	testServer.Router.ServeHTTP(w, req)
	return w
}

func TestExcelImport(t *testing.T) {
	testutil.RequireIntegration(t)

	admin := token(t, "admin")
	workbook := buildWorkbook(t)

	t.Run("Dry run leaves the database untouched", func(t *testing.T) {
		w := uploadWorkbook(t, admin, workbook, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var count int
		err := testDB.QueryRow(
			`SELECT COUNT(*) FROM inventory_items WHERE serial LIKE 'NB-IMPORT-%'`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Imports units and bulk stock", func(t *testing.T) {
		w := uploadWorkbook(t, admin, workbook, false)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data struct {
				Inserted int  `json:"inserted"`
				Errors   int  `json:"errors"`
				DryRun   bool `json:"dry_run"`
			} `json:"data"`
		}
		decode(t, w, &resp)
		assert.False(t, resp.Data.DryRun)
		assert.Zero(t, resp.Data.Errors)
		assert.GreaterOrEqual(t, resp.Data.Inserted, 2)

		var count int
		err := testDB.QueryRow(
			`SELECT COUNT(*) FROM inventory_items WHERE serial LIKE 'NB-IMPORT-%' AND state = 'available'`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		var quantity int
		err = testDB.QueryRow(`
			SELECT sl.quantity FROM stock_levels sl
			JOIN products p ON p.id = sl.product_id
			WHERE p.model = 'TN-423 Toner'`).Scan(&quantity)
		require.NoError(t, err)
		assert.Equal(t, 12, quantity)
	})

	t.Run("Re-import skips existing serials", func(t *testing.T) {
		w := uploadWorkbook(t, admin, workbook, false)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var count int
		err := testDB.QueryRow(
			`SELECT COUNT(*) FROM inventory_items WHERE serial LIKE 'NB-IMPORT-%'`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("Technicians cannot import", func(t *testing.T) {
		w := uploadWorkbook(t, token(t, "technician"), workbook, true)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
