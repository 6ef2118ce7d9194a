package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/dashboard"
	"github.com/ekaya-inc/menu-etl/pkg/jsonutil"
	"github.com/ekaya-inc/menu-etl/ui"
)

var dashboardTemplate = template.Must(template.ParseFS(ui.TemplatesFS(), "templates/dashboard.html"))

// SessionName is the cookie holding the user's dashboard selections.
const SessionName = "menu-dashboard"

// Session value keys.
const (
	sessionKeyCategory   = "category"
	sessionKeyVegetarian = "vegetarian"
	sessionKeyGlutenFree = "gluten_free"
	sessionKeyItem       = "item"
)

// Query parameters understood by the dashboard routes.
var selectionParams = []string{"category", "vegetarian", "gluten_free", "item"}

// DashboardRenderer produces dashboard views.
type DashboardRenderer interface {
	Render(ctx context.Context, filters dashboard.Filters, selectedItem string) dashboard.View
	Invalidate()
}

// DashboardHandler serves the dashboard page and its JSON view model.
type DashboardHandler struct {
	renderer DashboardRenderer
	sessions *sessions.CookieStore
	logger   *zap.Logger
}

// pageData is the template input.
type pageData struct {
	PageTitle string
	View      dashboard.View
}

// NewDashboardHandler creates a handler. sessionKey signs the selection
// cookie; when empty a random key is used, so selections only survive for the
// life of the process.
func NewDashboardHandler(renderer DashboardRenderer, sessionKey string, logger *zap.Logger) *DashboardHandler {
	var key [32]byte
	if sessionKey != "" {
		key = sha256.Sum256([]byte(sessionKey))
	} else {
		_, _ = rand.Read(key[:])
	}

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &DashboardHandler{
		renderer: renderer,
		sessions: store,
		logger:   logger.Named("dashboard-handler"),
	}
}

// RegisterRoutes registers the dashboard routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Page)
	mux.HandleFunc("GET /api/dashboard", h.API)
	mux.HandleFunc("POST /api/dashboard/refresh", h.Refresh)
}

// Page handles GET / and renders the HTML dashboard.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	filters, item := h.selection(w, r)
	view := h.renderer.Render(r.Context(), filters, item)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, pageData{PageTitle: dashboard.PageTitle, View: view}); err != nil {
		h.logger.Error("Failed to render dashboard page", zap.Error(err))
	}
}

// API handles GET /api/dashboard and returns the view model as JSON.
func (h *DashboardHandler) API(w http.ResponseWriter, r *http.Request) {
	filters, item := h.selection(w, r)
	view := h.renderer.Render(r.Context(), filters, item)

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to encode dashboard view", zap.Error(err))
	}
}

// Refresh handles POST /api/dashboard/refresh and drops the cached fetch.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.renderer.Invalidate()
	h.logger.Info("Dashboard cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}

// selection reads filters from the query string, remembering them in the
// session. Without query parameters the remembered selection is used.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (dashboard.Filters, string) {
	session, err := h.sessions.Get(r, SessionName)
	if err != nil {
		// A cookie signed with another key decodes as a fresh session.
		h.logger.Debug("Ignoring unreadable session", zap.Error(err))
	}

	query := r.URL.Query()
	if !hasSelection(query) {
		return sessionSelection(session)
	}

	filters, item := querySelection(query)
	session.Values[sessionKeyCategory] = filters.Category
	session.Values[sessionKeyVegetarian] = filters.VegetarianOnly
	session.Values[sessionKeyGlutenFree] = filters.GlutenFreeOnly
	session.Values[sessionKeyItem] = item
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("Failed to save dashboard session", zap.Error(err))
	}
	return filters, item
}

func hasSelection(query url.Values) bool {
	for _, p := range selectionParams {
		if query.Has(p) {
			return true
		}
	}
	return false
}

func querySelection(query url.Values) (dashboard.Filters, string) {
	filters := dashboard.Filters{
		Category:       query.Get("category"),
		VegetarianOnly: jsonutil.Truthy(query.Get("vegetarian")),
		GlutenFreeOnly: jsonutil.Truthy(query.Get("gluten_free")),
	}
	if filters.Category == "" {
		filters.Category = dashboard.AllCategories
	}
	return filters, query.Get("item")
}

func sessionSelection(session *sessions.Session) (dashboard.Filters, string) {
	filters := dashboard.Filters{Category: dashboard.AllCategories}
	if session == nil {
		return filters, ""
	}
	if v, ok := session.Values[sessionKeyCategory].(string); ok && v != "" {
		filters.Category = v
	}
	filters.VegetarianOnly, _ = session.Values[sessionKeyVegetarian].(bool)
	filters.GlutenFreeOnly, _ = session.Values[sessionKeyGlutenFree].(bool)
	item, _ := session.Values[sessionKeyItem].(string)
	return filters, item
}
