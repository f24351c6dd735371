package controllers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

var (
	defaultIndexTmpl     = template.Must(template.ParseFS(defaultTemplates, "templates/default_index.html"))
	defaultOrganizerTmpl = template.Must(template.ParseFS(defaultTemplates, "templates/default_organizer.html"))
)

// PresaleController serves the visitor-facing routes: the site home page and
// the per-organizer pages.
type PresaleController struct {
	db  *gorm.DB
	svc *services.Service
}

// NewPresaleController creates a new PresaleController instance.
func NewPresaleController(db *gorm.DB, svc *services.Service) *PresaleController {
	return &PresaleController{db: db, svc: svc}
}

// organizerPageData is the context an uploaded organizer page template (and
// the built-in default page) is rendered with.
type organizerPageData struct {
	Organizer      *models.Organizer
	Description    template.HTML
	UpcomingEvents []models.Event
	PreviousEvents []models.Event
}

// Home serves the site's starting page. An active redirect wins, then an
// uploaded starting page, then the built-in default.
func (p *PresaleController) Home(ctx *gin.Context) {
	choice, err := p.svc.SelectStartingPage()
	if err != nil {
		utils.Sugar.Errorw("starting page selection failed", "err", err)
		p.renderDefaultHome(ctx)
		return
	}

	switch choice.Decision {
	case services.DecisionRedirect:
		ctx.Redirect(http.StatusFound, choice.RedirectLink)
	case services.DecisionCustomPage:
		body, err := p.pageSource(storage.GlobalScope)
		if err != nil {
			utils.Sugar.Errorw("starting page read failed", "err", err)
			p.renderDefaultHome(ctx)
			return
		}
		ctx.Data(http.StatusOK, "text/html; charset=utf-8", body)
	default:
		p.renderDefaultHome(ctx)
	}
}

// OrganizerPage serves an organizer's landing page, falling back to the
// built-in organizer page with its live public events. Unknown slugs are 404.
func (p *PresaleController) OrganizerPage(ctx *gin.Context) {
	slug := ctx.Param("organizer")
	var organizer models.Organizer
	if err := p.db.First(&organizer, "slug = ?", slug).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "the selected organizer was not found")
		return
	}

	data := organizerPageData{
		Organizer:   &organizer,
		Description: template.HTML(utils.Sanitize(organizer.Description)),
	}
	now := time.Now()
	if events, err := models.UpcomingEventsFor(p.db, organizer.ID, now); err == nil {
		data.UpcomingEvents = events
	}
	if events, err := models.PreviousEventsFor(p.db, organizer.ID, now); err == nil {
		data.PreviousEvents = events
	}

	decision, err := p.svc.SelectOrganizerPage(organizer.ID)
	if err != nil {
		utils.Sugar.Errorw("organizer page selection failed", "organizer", slug, "err", err)
		decision = services.DecisionDefault
	}

	if decision == services.DecisionCustomPage {
		if p.renderCustomOrganizerPage(ctx, &organizer, data) {
			return
		}
	}
	p.renderTemplate(ctx, defaultOrganizerTmpl, data)
}

// renderCustomOrganizerPage parses the uploaded index document as a template
// and renders it with the organizer context. Returns false on any failure so
// the caller can fall back to the default page.
func (p *PresaleController) renderCustomOrganizerPage(ctx *gin.Context, organizer *models.Organizer, data organizerPageData) bool {
	scope := storage.Scope{OrganizerID: organizer.ID}
	body, err := p.pageSource(scope)
	if err != nil {
		utils.Sugar.Errorw("organizer page read failed", "organizer", organizer.Slug, "err", err)
		return false
	}
	tmpl, err := template.New(storage.IndexFilename).Parse(string(body))
	if err != nil {
		utils.Sugar.Warnw("organizer page template invalid", "organizer", organizer.Slug, "err", err)
		return false
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		utils.Sugar.Warnw("organizer page render failed", "organizer", organizer.Slug, "err", err)
		return false
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return true
}

// pageSource returns the scope's index document, preferring the Redis cache.
func (p *PresaleController) pageSource(scope storage.Scope) ([]byte, error) {
	key := utils.PageCacheKey(scope)
	if b, ok := utils.CacheGetBytes(key); ok {
		return b, nil
	}
	b, err := p.svc.Store().ReadIndex(scope)
	if err != nil {
		return nil, err
	}
	utils.CacheSetBytes(key, b)
	return b, nil
}

func (p *PresaleController) renderDefaultHome(ctx *gin.Context) {
	p.renderTemplate(ctx, defaultIndexTmpl, gin.H{"SiteName": "Eventra Tickets"})
}

func (p *PresaleController) renderTemplate(ctx *gin.Context, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		utils.Sugar.Errorw("template render failed", "err", err)
		ctx.String(http.StatusInternalServerError, "internal error")
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
