// Package handlers wires the HTTP surface: one handler per user-facing
// action, composing auth check, form validation and persistence, then
// redirecting with a flash or re-rendering the form.
package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/dchest/captcha"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"journal/auth"
	"journal/config"
	"journal/logger"
	"journal/store"
)

//go:embed templates
var templatesFS embed.FS

type Handlers struct {
	cfg   config.Config
	store *store.Store
	auth  *auth.Manager
	log   *logger.Logger
}

func New(cfg config.Config, st *store.Store, am *auth.Manager, log *logger.Logger) *Handlers {
	return &Handlers{cfg: cfg, store: st, auth: am, log: log}
}

// Routes builds the application router. CSRF protection wraps the whole
// router in main, so every POST below carries a validated token.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestLogger)
	r.Use(h.auth.LoadUser(h.store))

	r.Get("/", h.Index)
	r.Get("/entries", h.Index)
	r.Get("/register", h.Register)
	r.Post("/register", h.Register)
	r.Get("/login", h.Login)
	r.Post("/login", h.Login)
	r.Get("/entries/{slug}", h.Detail)
	r.Get("/tag/{tag}", h.Tag)
	if h.cfg.Captcha {
		r.Handle("/captcha/{file}", captcha.Server(captcha.StdWidth, captcha.StdHeight))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		r.Get("/logout", h.Logout)
		r.Get("/entries/new", h.NewEntry)
		r.Post("/entries/new", h.NewEntry)
		r.Get("/entries/{slug}/edit", h.EditEntry)
		r.Post("/entries/{slug}/edit", h.EditEntry)
		r.Get("/entries/{slug}/delete", h.DeleteEntry)
		r.Post("/entries/{slug}/delete", h.DeleteEntry)
	})

	r.NotFound(h.notFound)

	return r
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	h.renderStatus(w, r, http.StatusOK, name, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["AppName"] = h.cfg.AppName
	data["csrfField"] = csrf.TemplateField(r)
	data["Flashes"] = h.auth.Flashes(w, r)
	if user, ok := auth.CurrentUser(r.Context()); ok {
		data["CurrentUser"] = user
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		logger.FromRequest(r).Err(err).Str("template", name).Msg("rendering template")
	}
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusNotFound, "404.html", nil)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromRequest(r).Err(err).Msg("internal server error")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
