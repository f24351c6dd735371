package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventra/landingpages/config"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

type testEnv struct {
	db     *gorm.DB
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmp := t.TempDir()
	config.SetForTesting(config.AppConfig{
		AppPort:            "0",
		JWTSecret:          "test-secret",
		DataDir:            filepath.Join(tmp, "data"),
		MediaDir:           filepath.Join(tmp, "media"),
		RedisHost:          "127.0.0.1",
		RedisPort:          6390,
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
		GinMode:            "test",
		GinPath:            filepath.Join(tmp, "gin.log"),
		LogLevel:           "error",
	})
	utils.Sugar = zap.NewNop().Sugar()

	db, err := gorm.Open(sqlite.Open(filepath.Join(tmp, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.OrganizerPermission{},
		&models.Organizer{}, &models.Event{},
		&models.LandingpageSettings{}, &models.StartingpageSettings{},
		&models.LandingpageFile{}, &models.StartingpageFile{},
		&models.AuditLog{}, &models.GlobalSetting{},
	))

	cfg := config.Get()
	store := storage.New(cfg.DataDir, cfg.MediaDir)
	svc := services.New(db, store, zap.NewNop().Sugar(), nil)

	return &testEnv{db: db, router: SetupRouter(db, svc)}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createUser(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: hash, IsStaff: staff}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createOrganizer(t *testing.T, slug, name string) *models.Organizer {
	t.Helper()
	organizer := &models.Organizer{Slug: slug, Name: name, Description: "<p>About us</p>"}
	require.NoError(t, e.db.Create(organizer).Error)
	return organizer
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("file_field", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decodeEnvelope(t, w)["status"])
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", false)

	body := bytes.NewBufferString(`{"username":"alice","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decodeEnvelope(t, w)["token"].(string)
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOrganizerPageUnknownSlug(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/nobody/", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizerDefaultPage(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createOrganizer(t, "acme", "ACME Events")
	env.db.Create(&models.Event{
		OrganizerID: organizer.ID, Slug: "conf", Name: "ACME Conf",
		DateFrom: time.Now().Add(24 * time.Hour), Live: true, IsPublic: true,
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/acme/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ACME Events")
	require.Contains(t, w.Body.String(), "ACME Conf")
	require.Contains(t, w.Body.String(), "About us")
}

func TestHomeDefaultPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Welcome")
}

func TestHomeRedirect(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.StartingpageSettings{
		ID: models.StartingpageSettingsID, RedirectActive: true, RedirectLink: "https://tickets.example.com",
	}).Error)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "https://tickets.example.com", w.Header().Get("Location"))
}

func TestControlRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")

	w := env.do(httptest.NewRequest(http.MethodGet, "/control/organizer/acme/landingpage/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestControlPermissionDenied(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")
	user := env.createUser(t, "bob", false)

	req := httptest.NewRequest(http.MethodGet, "/control/organizer/acme/landingpage/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, user))
	w := env.do(req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestControlGrantedByPermission(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createOrganizer(t, "acme", "ACME Events")
	user := env.createUser(t, "carol", false)
	require.NoError(t, env.db.Create(&models.OrganizerPermission{
		UserID: user.ID, OrganizerID: organizer.ID, Capability: models.CanChangeOrganizerSettings,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/control/organizer/acme/landingpage/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, user))
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decodeEnvelope(t, w)["active"])
}

func TestControlUnknownOrganizer(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "admin", true)

	req := httptest.NewRequest(http.MethodGet, "/control/organizer/ghost/landingpage/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, staff))
	w := env.do(req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestControlUnavailableWhenDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")
	staff := env.createUser(t, "admin", true)
	require.NoError(t, models.SetGlobalSetting(env.db, models.SettingEnableForAll, "false"))

	req := httptest.NewRequest(http.MethodGet, "/control/organizer/acme/landingpage/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, staff))
	w := env.do(req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLandingpageUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")
	staff := env.createUser(t, "admin", true)
	token := env.token(t, staff)

	body, contentType := multipartBody(t,
		map[string]string{"active": "true", "override_files": "false"},
		map[string]string{"index.html": "<h1>the custom acme page</h1>"})
	req := httptest.NewRequest(http.MethodPost, "/control/organizer/acme/landingpage/", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	require.Equal(t, true, data["saved"])
	require.Equal(t, true, data["uploaded"])
	require.Equal(t, false, data["duplicated"])
	require.Equal(t, false, data["failed"])

	req = httptest.NewRequest(http.MethodGet, "/control/organizer/acme/landingpage/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeEnvelope(t, w)
	require.Equal(t, true, data["active"])
	require.Equal(t, true, data["has_index"])

	w = env.do(httptest.NewRequest(http.MethodGet, "/acme/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "the custom acme page")
}

func TestLandingpageDeleteIndexDisablesPage(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")
	staff := env.createUser(t, "admin", true)
	token := env.token(t, staff)

	body, contentType := multipartBody(t,
		map[string]string{"active": "true"},
		map[string]string{"index.html": "<h1>custom</h1>"})
	req := httptest.NewRequest(http.MethodPost, "/control/organizer/acme/landingpage/", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	require.Equal(t, http.StatusOK, env.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/control/organizer/acme/landingpage/delete_files/index.html/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeEnvelope(t, w)["deleted"])

	w = env.do(httptest.NewRequest(http.MethodGet, "/acme/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "custom")
	require.Contains(t, w.Body.String(), "ACME Events")
}

func TestLandingpageDeleteMissingFileFailsSoft(t *testing.T) {
	env := newTestEnv(t)
	env.createOrganizer(t, "acme", "ACME Events")
	staff := env.createUser(t, "admin", true)

	req := httptest.NewRequest(http.MethodPost, "/control/organizer/acme/landingpage/delete_files/ghost.css/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, staff))
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	require.Equal(t, false, data["deleted"])
	require.Equal(t, "deletion failed", data["message"])
}

func TestStartingpageRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bob", false)

	req := httptest.NewRequest(http.MethodGet, "/control/startingpage_settings/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, user))
	w := env.do(req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestStartingpageConfigFlow(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "admin", true)
	token := env.token(t, staff)

	// redirect and custom page at once is rejected
	body, contentType := multipartBody(t,
		map[string]string{"enable_redirect": "true", "redirect_link": "https://x.example.com", "use_startingpage": "true"},
		nil)
	req := httptest.NewRequest(http.MethodPost, "/control/startingpage_settings/", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decodeEnvelope(t, w)["saved"])

	// uploading an index together with the flag is accepted
	body, contentType = multipartBody(t,
		map[string]string{"use_startingpage": "true"},
		map[string]string{"index.html": "<h1>the start page</h1>", "style.css": "body{}"})
	req = httptest.NewRequest(http.MethodPost, "/control/startingpage_settings/", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	require.Equal(t, true, data["saved"])
	require.Equal(t, true, data["uploaded"])

	w = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "the start page")

	req = httptest.NewRequest(http.MethodGet, "/control/startingpage_settings/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(req)
	data = decodeEnvelope(t, w)
	require.Equal(t, true, data["startingpage_active"])
	files, _ := data["files"].([]any)
	require.Len(t, files, 2)
}

func TestNavEntries(t *testing.T) {
	env := newTestEnv(t)
	acme := env.createOrganizer(t, "acme", "ACME Events")
	env.createOrganizer(t, "other", "Other Events")
	user := env.createUser(t, "carol", false)
	require.NoError(t, env.db.Create(&models.OrganizerPermission{
		UserID: user.ID, OrganizerID: acme.ID, Capability: models.CanChangeOrganizerSettings,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/control/nav/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, user))
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	entries, _ := decodeEnvelope(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	require.Equal(t, "ACME Events", entry["label"])
	require.Equal(t, "/control/organizer/acme/landingpage/", entry["url"])

	staff := env.createUser(t, "admin", true)
	req = httptest.NewRequest(http.MethodGet, "/control/nav/", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, staff))
	w = env.do(req)
	entries, _ = decodeEnvelope(t, w)["entries"].([]any)
	require.Len(t, entries, 4) // both organizers + the two admin entries
}

func TestGlobalSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	staff := env.createUser(t, "admin", true)
	token := env.token(t, staff)

	payload := `{"enable_landingpage_for_all_organizers":false,"enable_landingpage_individually":[3,7]}`
	req := httptest.NewRequest(http.MethodPost, "/control/global_settings/", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/control/global_settings/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(req)
	data := decodeEnvelope(t, w)
	require.Equal(t, false, data["enable_landingpage_for_all_organizers"])
	require.Equal(t, []any{float64(3), float64(7)}, data["enable_landingpage_individually"])

	require.False(t, models.LandingpageAvailable(env.db, 2))
	require.True(t, models.LandingpageAvailable(env.db, 3))
}
