package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/database"
	"github.com/weiwangfds/vidshare/internal/middleware"
	oss "github.com/weiwangfds/vidshare/internal/service/oss"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Port: 3000, StaticDir: filepath.Join(dir, "public")},
		Database: config.DatabaseConfig{
			Driver:   "sqlite",
			DSN:      filepath.Join(dir, "router.db"),
			LogLevel: "silent",
		},
		Storage: config.StorageConfig{
			Provider:  oss.ProviderLocal,
			LocalPath: filepath.Join(dir, "media"),
			KeyPrefix: "videos",
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, FieldName: "video"},
		Viewer: config.ViewerConfig{RelatedCount: 4},
		Admin:  config.AdminConfig{Accounts: map[string]string{"admin": "secret"}},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Init(cfg.Database)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	storage, err := oss.NewLocalProvider(cfg.Storage)
	require.NoError(t, err)

	r := NewRouter(Dependencies{
		Config:        cfg,
		Videos:        videoservice.NewService(db, storage, cfg.Storage.KeyPrefix),
		Storage:       storage,
		DB:            sqlDB,
		Authenticator: middleware.NewAccountAuthenticator(cfg.Admin.Accounts),
	})
	return r.GetEngine()
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// panicService fails any call, proving a route never reached the store.
type panicService struct {
	videoservice.Service
}

func TestAdminRoutesRequireCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	storage, err := oss.NewLocalProvider(cfg.Storage)
	require.NoError(t, err)

	engine := NewRouter(Dependencies{
		Config:        cfg,
		Videos:        panicService{},
		Storage:       storage,
		DB:            nil,
		Authenticator: middleware.NewAccountAuthenticator(cfg.Admin.Accounts),
	}).GetEngine()

	paths := []string{
		"/admin",
		"/admin/videos",
		"/admin/videos/abc/edit",
		"/admin/videos/abc/delete",
		"/admin/storage-logs",
	}
	for _, path := range paths {
		for _, creds := range [][2]string{{"", ""}, {"admin", "wrong"}, {"nobody", "secret"}} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if creds[0] != "" {
				req.SetBasicAuth(creds[0], creds[1])
			}
			w := serve(engine, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s as %q", path, creds[0])
			assert.Equal(t, `Basic realm="`+AdminRealm+`"`, w.Header().Get("WWW-Authenticate"))
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/videos/abc/edit", strings.NewReader("description=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, serve(engine, req).Code)
}

func TestAdminIndexWithCredentials(t *testing.T) {
	engine := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("admin", "secret")
	w := serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/admin/videos"`)
}

func TestUploadViewAndMedia(t *testing.T) {
	engine := newTestRouter(t, testConfig(t))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("description", "local"))
	part, err := mw.CreateFormFile("video", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("local-video-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(engine, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var res struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)

	view := serve(engine, httptest.NewRequest(http.MethodGet, res.URL, nil))
	require.Equal(t, http.StatusOK, view.Code)

	// the player points at /media/videos/<token>.mp4
	page := view.Body.String()
	start := strings.Index(page, oss.LocalMediaRoute+"/videos/")
	require.GreaterOrEqual(t, start, 0, page)
	end := strings.Index(page[start:], `"`)
	mediaURL := page[start : start+end]

	media := serve(engine, httptest.NewRequest(http.MethodGet, mediaURL, nil))
	assert.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, "local-video-bytes", media.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	engine := newTestRouter(t, testConfig(t))

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"storage":"local"`)

	serve(engine, httptest.NewRequest(http.MethodGet, "/videos", nil))

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vidshare_http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), `route="/videos"`)
}

func TestStaticFiles(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Server.StaticDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Server.StaticDir, "upload.html"), []byte("<form></form>"), 0o644))
	engine := newTestRouter(t, cfg)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/upload.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<form></form>", w.Body.String())

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// routes win over files
	w = serve(engine, httptest.NewRequest(http.MethodGet, "/videos", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaticDirMissing(t *testing.T) {
	engine := newTestRouter(t, testConfig(t))
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/upload.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
