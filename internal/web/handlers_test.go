package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spark/internal/config"
	"github.com/hpungsan/spark/internal/ops"
)

func setupTest(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	exports := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ImportMaxBytes = 4096
	engine := ops.New(ops.Options{
		Config:     cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ExportsDir: exports,
	})
	srv := httptest.NewServer(NewRouter(engine, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv, exports
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp, out
}

func errorCode(out map[string]any) string {
	errObj, _ := out["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestFolderRoutes(t *testing.T) {
	srv, _ := setupTest(t)

	resp, folder := doJSON(t, srv, http.MethodPost, "/api/folders", map[string]any{"name": "Work"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := folder["id"].(string)

	resp, updated := doJSON(t, srv, http.MethodPatch, "/api/folders/"+id, map[string]any{"name": "Office"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Office", updated["name"])

	_, list := doJSON(t, srv, http.MethodGet, "/api/folders", nil)
	assert.Len(t, list["folders"], 1)

	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/folders/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := doJSON(t, srv, http.MethodDelete, "/api/folders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(out))
}

func TestSnippetRoutes(t *testing.T) {
	srv, _ := setupTest(t)

	resp, created := doJSON(t, srv, http.MethodPost, "/api/snippets", map[string]any{
		"name":     "Address",
		"shortcut": "addr;",
		"body":     "**1 Main St**",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)
	assert.Equal(t, true, created["is_active"])

	resp, updated := doJSON(t, srv, http.MethodPatch, "/api/snippets/"+id, map[string]any{"match_type": "prefix"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "prefix", updated["match_type"])

	_, preview := doJSON(t, srv, http.MethodGet, "/api/snippets/"+id+"/preview", nil)
	assert.Equal(t, "<p><strong>1 Main St</strong></p>\n", preview["html"])

	_, list := doJSON(t, srv, http.MethodGet, "/api/snippets", nil)
	assert.Len(t, list["snippets"], 1)

	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/snippets/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, list = doJSON(t, srv, http.MethodGet, "/api/snippets", nil)
	assert.Len(t, list["snippets"], 0)
}

func TestSnippetRoutes_Errors(t *testing.T) {
	srv, _ := setupTest(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"empty shortcut", map[string]any{"name": "x", "shortcut": "  "}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", map[string]any{"name": "x", "shortcut": "x", "hotkey": "y"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing folder", map[string]any{"name": "x", "shortcut": "x", "folder_id": "nope"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := doJSON(t, srv, http.MethodPost, "/api/snippets", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(out))
		})
	}
}

func TestImportExportRoutes(t *testing.T) {
	srv, exports := setupTest(t)

	resp, out := doJSON(t, srv, http.MethodPost, "/api/import", map[string]any{
		"payload": `[{"name":"Thanks","shortcut":"/ty","content":"thank you"},{"name":"","shortcut":"/x"}]`,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), out["imported"])
	assert.Equal(t, float64(1), out["skipped"])

	resp, out = doJSON(t, srv, http.MethodPost, "/api/import", map[string]any{"payload": "just words"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "UNRECOGNIZED_FORMAT", errorCode(out))

	resp, out = doJSON(t, srv, http.MethodPost, "/api/import", map[string]any{"payload": strings.Repeat("a", 5000)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", errorCode(out))

	resp, doc := doJSON(t, srv, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, true, doc["_spark_export"])
	assert.Len(t, doc["snippets"], 1)

	path := filepath.Join(exports, "web.json")
	resp, out = doJSON(t, srv, http.MethodPost, "/api/export", map[string]any{"path": path})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, path, out["path"])
	_, err := os.Stat(path)
	assert.NoError(t, err)

	resp, out = doJSON(t, srv, http.MethodPost, "/api/export", map[string]any{"path": filepath.Join(exports, "web.txt")})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(out))
}

func TestSettingsRoutes(t *testing.T) {
	srv, _ := setupTest(t)

	_, got := doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, true, got["expand_enabled"])

	resp, got := doJSON(t, srv, http.MethodPut, "/api/settings", map[string]any{"expand_enabled": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, got["expand_enabled"])
	assert.Equal(t, "Ctrl+Alt+Space", got["trigger"])

	resp, out := doJSON(t, srv, http.MethodPut, "/api/settings", map[string]any{"trigger": "Ctrl+Q+W"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(out))
}

func TestKeystrokeAndExpandRoutes(t *testing.T) {
	srv, _ := setupTest(t)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/snippets", map[string]any{
		"name": "Thanks", "shortcut": "/ty", "body": "thank you",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var last map[string]any
	for _, ch := range []string{"space", "/", "t", "y"} {
		resp, last = doJSON(t, srv, http.MethodPost, "/api/keystrokes", map[string]any{"char": ch, "app": "Notes"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, "expand", last["kind"])
	assert.Equal(t, float64(3), last["remove_count"])
	assert.Equal(t, "thank you", last["insert_text"])

	resp, out := doJSON(t, srv, http.MethodPost, "/api/keystrokes", map[string]any{"char": "ab"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(out))

	resp, out = doJSON(t, srv, http.MethodPost, "/api/expand", map[string]any{"text": "ok /ty!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok thank you!", out["result"])
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := setupTest(t)

	resp, _ := doJSON(t, srv, http.MethodGet, "/api/folders", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}
