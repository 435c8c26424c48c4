package http

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/entities"
)

func TestUsersController(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/admin/users", ts.adminToken, map[string]any{
		"name": "Guest", "email": "Guest@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var guest entities.User
	decode(t, w, &guest)
	assert.Equal(t, "guest@example.com", guest.Email)
	assert.Equal(t, entities.UserRoleUser, guest.Role)

	t.Run("rejects a duplicate email", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/admin/users", ts.adminToken, map[string]any{
			"name": "Again", "email": "guest@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/admin/users", ts.adminToken, map[string]any{
			"name": "Short", "email": "short@example.com", "password": "abc",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists users", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/admin/users", ts.adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":3`)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("keeps the last administrator", func(t *testing.T) {
		w := ts.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", ts.admin.ID), ts.adminToken, map[string]any{"role": "USER"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cannot remove the last administrator", errorMessage(t, w))

		w = ts.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", ts.admin.ID), ts.adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "You cannot delete your own account", errorMessage(t, w))
	})

	t.Run("promotes and deletes", func(t *testing.T) {
		w := ts.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", guest.ID), ts.adminToken, map[string]any{"role": "ADMIN"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"role":"ADMIN"`)

		w = ts.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", guest.ID), ts.adminToken, map[string]any{"role": "OWNER"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", guest.ID), ts.adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = ts.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", guest.ID), ts.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("resets a password", func(t *testing.T) {
		w := ts.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/password", ts.user.ID), ts.adminToken, map[string]any{"password": "brand-new-pass"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		_, err := ts.auth.Authenticate("reader@example.com", "brand-new-pass")
		assert.NoError(t, err)
	})
}

func TestSettingsController(t *testing.T) {
	t.Setenv("BACKUP_PATH", "")
	t.Setenv("BACKUP_ENABLED", "")
	t.Setenv("BACKUP_SCHEDULE", "")
	ts := newTestServer(t)

	t.Run("regular users cannot change settings", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/api/settings", ts.userToken, map[string]string{"theme": "dark"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("stores settings", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/api/settings", ts.adminToken, map[string]string{"theme": "dark"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = ts.do(http.MethodGet, "/api/settings", ts.userToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"theme":"dark"`)
	})

	t.Run("rejects scheduler owned keys", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/api/settings", ts.adminToken, map[string]string{entities.SettingKeyBackupLastStatus: "success"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an invalid schedule", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/api/backup", ts.adminToken, map[string]any{"schedule": "every day"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettingsController_Backup(t *testing.T) {
	t.Setenv("BACKUP_PATH", "")
	t.Setenv("BACKUP_ENABLED", "false")
	t.Setenv("BACKUP_SCHEDULE", "")
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/backup/run", ts.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Backup path not configured. Please save a path first.", errorMessage(t, w))

	dir := t.TempDir()
	w = ts.do(http.MethodPut, "/api/backup", ts.adminToken, map[string]any{"path": dir})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info BackupInfo
	decode(t, w, &info)
	assert.Equal(t, dir, info.Config.Path)
	assert.Equal(t, "database", info.Config.PathSource)
	assert.Equal(t, "Daily at 03:00", info.Description)

	w = ts.do(http.MethodPost, "/api/backup/run", ts.userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/api/backup/run", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "backup-"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".db"))

	w = ts.do(http.MethodGet, "/api/backup", ts.adminToken, nil)
	decode(t, w, &info)
	assert.Equal(t, "success", info.Status.Status)
}

func TestTasksController_Disabled(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/tasks/some-id", ts.adminToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuditController(t *testing.T) {
	ts := newTestServer(t)
	book := ts.createBook(ts.adminToken, map[string]any{"title": "Ephemeral", "author": "Anon"})
	w := ts.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), ts.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		w := ts.do(http.MethodGet, "/api/admin/audit?type=delete", ts.adminToken, nil)
		return w.Code == http.StatusOK && strings.Contains(w.Body.String(), "Ephemeral")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDataController_ExportCSV(t *testing.T) {
	ts := newTestServer(t)
	ts.createBook(ts.userToken, map[string]any{"title": "Dune", "author": "Frank Herbert", "category_names": []string{"SF", "Classics"}})

	w := ts.do(http.MethodGet, "/api/export/csv", ts.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "library_export_")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Title,Author,ISBN,Language,Publish Year,Pages,Owner,Description,Categories,My Status", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Dune,Frank Herbert")
	assert.Contains(t, lines[1], "To read")
}

func TestDataController_ExportJSON(t *testing.T) {
	ts := newTestServer(t)
	ts.createBook(ts.userToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	w := ts.do(http.MethodGet, "/api/export/json", ts.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "library_backup_")

	var backup struct {
		Version    string `json:"version"`
		ExportUser string `json:"exportUser"`
		Books      []struct {
			Title string `json:"title"`
		} `json:"books"`
	}
	decode(t, w, &backup)
	assert.Equal(t, "1.0", backup.Version)
	assert.Equal(t, "reader@example.com", backup.ExportUser)
	require.Len(t, backup.Books, 1)
	assert.Equal(t, "Dune", backup.Books[0].Title)
}

func TestDataController_ImportJSON(t *testing.T) {
	ts := newTestServer(t)
	existing := ts.createBook(ts.userToken, map[string]any{"title": "Old title", "author": "Someone", "isbn": "9780000000001"})

	body := `{"version": "1.0", "books": [
		{"title": "New title", "author": {"name": "Someone"}, "isbn": "9780000000001", "pages": 99},
		{"title": "Fresh", "author": {"name": "Another"}},
		{"author": {"name": "Nobody"}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/import/json", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.userToken)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		Total   int `json:"total"`
		Created int `json:"created"`
		Updated int `json:"updated"`
		Failed  int `json:"failed"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Failed)

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/books/%d", existing.ID), ts.userToken, nil)
	var book entities.Book
	decode(t, w, &book)
	assert.Equal(t, "New title", book.Title)
	assert.Equal(t, 99, book.Pages)
}

func TestDataController_ImportCSVMultipart(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "books.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Title,Author,ISBN,Language,Publish Year,Pages,Owner,Description,Categories,My Status\n" +
		"Emma,Jane Austen,,en,1815,474,,,Classics; Romance,To read\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.userToken)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"created":1`)

	w = ts.do(http.MethodGet, "/api/books?q=Emma", ts.userToken, nil)
	var resp bookList
	decode(t, w, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Books[0].Categories, 2)
}

func TestDataController_ImportRejectsEmptyUpload(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import/json", strings.NewReader("  "))
	req.Header.Set("Authorization", "Bearer "+ts.userToken)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file is empty", errorMessage(t, w))
}
