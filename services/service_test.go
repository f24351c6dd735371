package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *storage.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Organizer{},
		&models.Event{},
		&models.LandingpageSettings{},
		&models.StartingpageSettings{},
		&models.LandingpageFile{},
		&models.StartingpageFile{},
		&models.GlobalSetting{},
		&models.AuditLog{},
	))

	root := t.TempDir()
	store := storage.New(filepath.Join(root, "data"), filepath.Join(root, "media"))
	return New(db, store, zap.NewNop().Sugar(), nil), db, store
}

func upload(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestApplyUploadStoresIndexDocument(t *testing.T) {
	svc, db, store := newTestService(t)
	scope := storage.Scope{OrganizerID: 20}

	res, err := svc.ApplyUpload(scope, []UploadFile{upload("index.html", "<html>OK</html>")}, false, 1)
	require.NoError(t, err)
	assert.False(t, res.Duplicated)
	assert.Equal(t, []string{"index.html"}, res.Written)

	var settings models.LandingpageSettings
	require.NoError(t, db.First(&settings, "organizer_id = ?", 20).Error)
	assert.True(t, settings.HasIndex())

	b, err := store.ReadIndex(scope)
	require.NoError(t, err)
	assert.Equal(t, "<html>OK</html>", string(b))

	// index.html never becomes an asset row
	var count int64
	require.NoError(t, db.Model(&models.LandingpageFile{}).Count(&count).Error)
	assert.Zero(t, count)

	var audit models.AuditLog
	require.NoError(t, db.First(&audit, "action = ?", "landingpagesettings.index_updated").Error)
	assert.Equal(t, "organizer:20", audit.Scope)
}

func TestApplyUploadDuplicateWithoutOverride(t *testing.T) {
	svc, _, store := newTestService(t)
	scope := storage.Scope{OrganizerID: 5}

	_, err := svc.ApplyUpload(scope, []UploadFile{upload("style.css", "v1")}, false, 1)
	require.NoError(t, err)

	res, err := svc.ApplyUpload(scope, []UploadFile{upload("style.css", "v2")}, false, 1)
	require.NoError(t, err)
	assert.True(t, res.Duplicated)
	assert.False(t, res.Uploaded())

	b, err := readFile(store.AssetPath(scope, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "v1", b, "content must be byte-for-byte unchanged")
}

func TestApplyUploadDuplicateWithOverride(t *testing.T) {
	svc, _, store := newTestService(t)
	scope := storage.Scope{OrganizerID: 5}

	_, err := svc.ApplyUpload(scope, []UploadFile{upload("style.css", "v1")}, false, 1)
	require.NoError(t, err)

	res, err := svc.ApplyUpload(scope, []UploadFile{upload("style.css", "v2")}, true, 1)
	require.NoError(t, err)
	assert.True(t, res.Duplicated)
	assert.True(t, res.Uploaded())

	b, err := readFile(store.AssetPath(scope, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "v2", b)
}

func TestApplyUploadInvalidFilenameFailsWholeBatch(t *testing.T) {
	svc, db, store := newTestService(t)
	scope := storage.Scope{OrganizerID: 8}

	_, err := svc.ApplyUpload(scope, []UploadFile{
		upload("ok.css", "fine"),
		upload("bad name.css", "nope"),
	}, false, 1)
	assert.ErrorIs(t, err, storage.ErrInvalidFilename)

	var count int64
	require.NoError(t, db.Model(&models.LandingpageFile{}).Count(&count).Error)
	assert.Zero(t, count, "no partial writes on validation failure")
	_, err = readFile(store.AssetPath(scope, "ok.css"))
	assert.Error(t, err)
}

func TestSetActiveRequiresIndexDocument(t *testing.T) {
	svc, db, _ := newTestService(t)

	applied, err := svc.SetActive(3, true, 1)
	require.NoError(t, err)
	assert.False(t, applied)

	var settings models.LandingpageSettings
	require.NoError(t, db.First(&settings, "organizer_id = ?", 3).Error)
	assert.False(t, settings.Active)

	_, err = svc.ApplyUpload(storage.Scope{OrganizerID: 3}, []UploadFile{upload("index.html", "<html/>")}, false, 1)
	require.NoError(t, err)

	applied, err = svc.SetActive(3, true, 1)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, db.First(&settings, "organizer_id = ?", 3).Error)
	assert.True(t, settings.Active)
	assert.True(t, settings.HasIndex(), "invariant: active implies index present")

	var audit models.AuditLog
	require.NoError(t, db.First(&audit, "action = ?", "landingpagesettings.status_changed").Error)
	assert.Contains(t, audit.Data, "active")
}

func TestDeleteIndexDeactivatesScope(t *testing.T) {
	svc, db, store := newTestService(t)
	scope := storage.Scope{OrganizerID: 11}

	_, err := svc.ApplyUpload(scope, []UploadFile{upload("index.html", "<html/>")}, false, 1)
	require.NoError(t, err)
	_, err = svc.SetActive(11, true, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(scope, "index.html", 1))

	var settings models.LandingpageSettings
	require.NoError(t, db.First(&settings, "organizer_id = ?", 11).Error)
	assert.False(t, settings.Active)
	assert.False(t, settings.HasIndex())
	assert.False(t, store.HasIndex(scope))
}

func TestDeleteMissingAssetIsStable(t *testing.T) {
	svc, db, _ := newTestService(t)
	scope := storage.Scope{OrganizerID: 2}

	err := svc.DeleteFile(scope, "ghost.png", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.DeleteFile(scope, "ghost.png", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// nothing else changed
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteAllIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	scope := storage.Scope{OrganizerID: 6}

	_, err := svc.ApplyUpload(scope, []UploadFile{
		upload("index.html", "<html/>"),
		upload("style.css", "body{}"),
	}, false, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAll(scope, 1))
	require.NoError(t, svc.DeleteAll(scope, 1), "repeated delete-all must not error")

	var settings models.LandingpageSettings
	require.NoError(t, db.First(&settings, "organizer_id = ?", 6).Error)
	assert.False(t, settings.Active)
	assert.False(t, settings.HasIndex())
	var count int64
	require.NoError(t, db.Model(&models.LandingpageFile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStartingPageConfigMutualExclusion(t *testing.T) {
	svc, db, _ := newTestService(t)

	res, err := svc.ApplyStartingPageConfig(StartingPageConfig{
		RedirectEnabled:     true,
		RedirectLink:        "https://example.com",
		StartingpageEnabled: true,
		Files:               []UploadFile{upload("index.html", "<html/>")},
	}, 1)
	require.NoError(t, err)
	assert.False(t, res.Saved)

	var settings models.StartingpageSettings
	require.NoError(t, db.First(&settings, models.StartingpageSettingsID).Error)
	assert.False(t, settings.RedirectActive, "neither flag may change on rejection")
	assert.False(t, settings.StartingpageActive)
}

func TestStartingPageConfigRedirectNeedsLink(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.ApplyStartingPageConfig(StartingPageConfig{RedirectEnabled: true}, 1)
	require.NoError(t, err)
	assert.False(t, res.Saved)
}

func TestStartingPageConfigUploadNeedsIndex(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.ApplyStartingPageConfig(StartingPageConfig{
		StartingpageEnabled: true,
		Files:               []UploadFile{upload("style.css", "body{}")},
	}, 1)
	require.NoError(t, err)
	assert.False(t, res.Saved)

	// with index.html in the batch the same request is accepted
	res, err = svc.ApplyStartingPageConfig(StartingPageConfig{
		StartingpageEnabled: true,
		Files: []UploadFile{
			upload("style.css", "body{}"),
			upload("index.html", "<html/>"),
		},
	}, 1)
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.True(t, res.Uploaded)
}

func TestStartingPageConfigWithoutUploadNeedsStoredIndex(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.ApplyStartingPageConfig(StartingPageConfig{StartingpageEnabled: true}, 1)
	require.NoError(t, err)
	assert.False(t, res.Saved)

	_, err = svc.ApplyUpload(storage.GlobalScope, []UploadFile{upload("index.html", "<html/>")}, false, 1)
	require.NoError(t, err)

	res, err = svc.ApplyStartingPageConfig(StartingPageConfig{StartingpageEnabled: true}, 1)
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.False(t, res.Uploaded)
}

func TestSelectStartingPageRedirectWins(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.ApplyStartingPageConfig(StartingPageConfig{
		RedirectEnabled: true,
		RedirectLink:    "https://example.com",
	}, 1)
	require.NoError(t, err)
	require.True(t, res.Saved)

	choice, err := svc.SelectStartingPage()
	require.NoError(t, err)
	assert.Equal(t, DecisionRedirect, choice.Decision)
	assert.Equal(t, "https://example.com", choice.RedirectLink)
}

func TestSelectStartingPageDefaultsWhenInactive(t *testing.T) {
	svc, _, _ := newTestService(t)

	choice, err := svc.SelectStartingPage()
	require.NoError(t, err)
	assert.Equal(t, DecisionDefault, choice.Decision)
}

func TestSelectOrganizerPage(t *testing.T) {
	svc, db, _ := newTestService(t)
	scope := storage.Scope{OrganizerID: 4}

	// blanket flag off, organizer not listed: feature unavailable
	require.NoError(t, models.SetGlobalSetting(db, models.SettingEnableForAll, "false"))
	decision, err := svc.SelectOrganizerPage(4)
	require.NoError(t, err)
	assert.Equal(t, DecisionDefault, decision)

	// allow-listed but inactive: still default
	require.NoError(t, models.SetGlobalSetting(db, models.SettingEnableIndividually, "4"))
	decision, err = svc.SelectOrganizerPage(4)
	require.NoError(t, err)
	assert.Equal(t, DecisionDefault, decision)

	// active with index: custom page
	_, err = svc.ApplyUpload(scope, []UploadFile{upload("index.html", "<html/>")}, false, 1)
	require.NoError(t, err)
	applied, err := svc.SetActive(4, true, 1)
	require.NoError(t, err)
	require.True(t, applied)

	decision, err = svc.SelectOrganizerPage(4)
	require.NoError(t, err)
	assert.Equal(t, DecisionCustomPage, decision)
}

func TestFileInformationIncludesIndex(t *testing.T) {
	svc, _, _ := newTestService(t)
	scope := storage.Scope{OrganizerID: 9}

	_, err := svc.ApplyUpload(scope, []UploadFile{
		upload("index.html", "<html/>"),
		upload("logo.svg", "<svg/>"),
	}, false, 1)
	require.NoError(t, err)

	infos, err := svc.FileInformation(scope)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name)
	}
	assert.ElementsMatch(t, []string{"index.html", "logo.svg"}, names)
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}
