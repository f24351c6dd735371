package services

import (
	"path/filepath"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
)

// Decision is the outcome of the request-time page selection.
type Decision int

const (
	// DecisionDefault falls back to the host application's default page.
	DecisionDefault Decision = iota
	// DecisionCustomPage serves the uploaded page for the scope.
	DecisionCustomPage
	// DecisionRedirect issues a redirect (starting page only).
	DecisionRedirect
)

// StartingPageChoice is the decision for the global home route.
type StartingPageChoice struct {
	Decision     Decision
	RedirectLink string
}

// SelectStartingPage decides the home route: an active redirect with a
// non-empty link wins without consulting the starting page state, then an
// active starting page with a stored index, then the default homepage.
// Deterministic given the same settings snapshot.
func (s *Service) SelectStartingPage() (StartingPageChoice, error) {
	settings, err := startingSettings(s.db)
	if err != nil {
		return StartingPageChoice{}, err
	}
	if settings.RedirectActive && settings.RedirectLink != "" {
		return StartingPageChoice{Decision: DecisionRedirect, RedirectLink: settings.RedirectLink}, nil
	}
	if settings.StartingpageActive && settings.HasIndex() {
		return StartingPageChoice{Decision: DecisionCustomPage}, nil
	}
	return StartingPageChoice{Decision: DecisionDefault}, nil
}

// SelectOrganizerPage decides an organizer route for an already resolved
// organizer: the custom page is served only when the feature is available for
// the organizer, activated, and an index document exists.
func (s *Service) SelectOrganizerPage(organizerID uint) (Decision, error) {
	if !models.LandingpageAvailable(s.db, organizerID) {
		return DecisionDefault, nil
	}
	settings, err := landingSettings(s.db, organizerID)
	if err != nil {
		return DecisionDefault, err
	}
	if !settings.Active || !settings.HasIndex() {
		return DecisionDefault, nil
	}
	return DecisionCustomPage, nil
}

// PluginAvailable reports whether the landing page feature is enabled for the
// organizer via the blanket flag or the individual allow-list.
func (s *Service) PluginAvailable(organizerID uint) bool {
	return models.LandingpageAvailable(s.db, organizerID)
}

// LandingSettings returns the organizer's settings row, creating it lazily.
func (s *Service) LandingSettings(organizerID uint) (*models.LandingpageSettings, error) {
	return landingSettings(s.db, organizerID)
}

// StartingSettings returns the singleton starting page row, creating it lazily.
func (s *Service) StartingSettings() (*models.StartingpageSettings, error) {
	return startingSettings(s.db)
}

// FileInfo describes one stored file for the settings pages.
type FileInfo struct {
	Name string `json:"name"`
	Base string `json:"base"`
	Ext  string `json:"ext"`
	Size int64  `json:"size"`
}

// FileInformation lists the scope's stored assets plus the index document
// when present, in the shape the settings pages display.
func (s *Service) FileInformation(scope storage.Scope) ([]FileInfo, error) {
	var infos []FileInfo

	if scope.IsGlobal() {
		var rows []models.StartingpageFile
		if err := s.db.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			infos = append(infos, fileInfo(r.Filename, r.Size))
		}
		settings, err := startingSettings(s.db)
		if err != nil {
			return nil, err
		}
		if settings.HasIndex() {
			infos = append(infos, fileInfo(storage.IndexFilename, 0))
		}
		return infos, nil
	}

	var rows []models.LandingpageFile
	if err := s.db.Where("organizer_id = ?", scope.OrganizerID).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		infos = append(infos, fileInfo(r.Filename, r.Size))
	}
	settings, err := landingSettings(s.db, scope.OrganizerID)
	if err != nil {
		return nil, err
	}
	if settings.HasIndex() {
		infos = append(infos, fileInfo(storage.IndexFilename, 0))
	}
	return infos, nil
}

func fileInfo(name string, size int64) FileInfo {
	ext := filepath.Ext(name)
	return FileInfo{
		Name: name,
		Base: name[:len(name)-len(ext)],
		Ext:  ext,
		Size: size,
	}
}
