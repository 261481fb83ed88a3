package web

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
	"github.com/hpungsan/spinit/internal/wheel"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	coll     *ops.Collection
	sessions *session.Manager
	cfg      *config.Config
	renderer *Renderer
	help     template.HTML
	log      *slog.Logger
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{Title: title, Version: h.renderer.version, Nav: nav}
}


// HandleSplash handles GET /, the launch screen, which moves on to the grid.
func (h *Handlers) HandleSplash(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "splash", SplashPageData{
		PageData: h.page("Spinit", ""),
		Icon:     h.cfg.DefaultIcon,
	})
}

// HandleHelp handles GET /help.
func (h *Handlers) HandleHelp(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "help", HelpPageData{
		PageData: h.page("Help", "help"),
		Body:     h.help,
	})
}

// HandleList handles GET /spinners: the spinner grid.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	spinners := h.coll.ListSpinners()
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"spinners": spinners})
		return
	}
	h.renderer.renderPage(w, "list", ListPageData{
		PageData:    h.page("Spinners", "spinners"),
		Spinners:    spinners,
		DefaultIcon: h.cfg.DefaultIcon,
		MaxOptions:  h.coll.MaxOptions(),
	})
}

// HandleCreate handles POST /spinners.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	s, err := h.coll.CreateSpinner(r.Context(), r.PostFormValue("title"), r.PostFormValue("icon"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusCreated, s, "/spinners")
}

// HandleUpdate handles POST /spinners/{id}.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	id := chi.URLParam(r, "id")
	s, err := h.coll.UpdateSpinner(r.Context(), id, r.PostFormValue("title"), r.PostFormValue("icon"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, s, redirectTarget(r, "/spinners"))
}

// HandleDelete handles POST /spinners/{id}/delete. An open wheel screen for
// the spinner is closed first.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.sessions.Back(id)
	if err := h.coll.DeleteSpinner(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, map[string]any{"deleted": true, "id": id}, "/spinners")
}

// HandleDetail handles GET /spinners/{id}: the wheel screen.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.coll.GetSpinner(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	sess, err := h.sessions.Open(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	options, err := sess.Options()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	geo := wheel.Layout(len(options))
	markers := make([]Marker, len(options))
	for i, o := range options {
		markers[i] = Marker{Option: o, Position: geo.Positions[i]}
	}

	data := DetailPageData{
		PageData:   h.page(s.Title, "spinners"),
		Spinner:    s,
		Options:    options,
		Geometry:   geo,
		Snapshot:   sess.Snapshot(),
		Markers:    markers,
		MaxOptions: h.coll.MaxOptions(),
		AtCapacity: len(options) >= h.coll.MaxOptions(),
		DurationMs: wheel.ParamsFromConfig(h.cfg).Duration.Milliseconds(),
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"spinner":  s,
			"options":  options,
			"geometry": geo,
			"state":    data.Snapshot,
		})
		return
	}
	h.renderer.renderPage(w, "detail", data)
}

// HandleAddOption handles POST /spinners/{id}/options.
func (h *Handlers) HandleAddOption(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	id := chi.URLParam(r, "id")
	o, err := h.coll.AddOption(r.Context(), id, r.PostFormValue("name"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusCreated, o, "/spinners/"+id)
}

// HandleUpdateOption handles POST /spinners/{id}/options/{optionID}.
func (h *Handlers) HandleUpdateOption(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	id := chi.URLParam(r, "id")
	o, err := h.coll.UpdateOption(r.Context(), id, chi.URLParam(r, "optionID"), r.PostFormValue("name"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, o, "/spinners/"+id)
}

// HandleDeleteOption handles POST /spinners/{id}/options/{optionID}/delete.
func (h *Handlers) HandleDeleteOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	optionID := chi.URLParam(r, "optionID")
	if err := h.coll.DeleteOption(r.Context(), id, optionID); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, map[string]any{"deleted": true, "id": optionID}, "/spinners/"+id)
}

// HandleSpin handles POST /spinners/{id}/spin. The response carries the
// selected option and the rotation the browser animates to; the option is
// revealed client-side once the duration has elapsed.
func (h *Handlers) HandleSpin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Open(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	res, err := sess.Spin()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, "/spinners/"+id, http.StatusSeeOther)
		return
	}
	renderJSON(w, http.StatusOK, res)
}

// HandleSpinState handles GET /spinners/{id}/spin: the engine snapshot.
func (h *Handlers) HandleSpinState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.coll.GetSpinner(id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	snap := wheel.Snapshot{State: wheel.Idle}
	if sess, ok := h.sessions.Get(id); ok {
		snap = sess.Snapshot()
	}
	renderJSON(w, http.StatusOK, snap)
}

// HandleBack handles POST /spinners/{id}/back: leaving the wheel screen.
// It always succeeds, even when no screen was open.
func (h *Handlers) HandleBack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	closed := h.sessions.Back(id)
	h.done(w, r, http.StatusOK, map[string]any{"handled": true, "closed": closed}, "/spinners")
}

// done answers a successful mutation: JSON clients get body, browsers are
// redirected to target.
func (h *Handlers) done(w http.ResponseWriter, r *http.Request, status int, body any, target string) {
	if wantsJSON(r) {
		renderJSON(w, status, body)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// redirectTarget returns the form's "next" field when it is a local path.
func redirectTarget(r *http.Request, fallback string) string {
	next := r.PostFormValue("next")
	if len(next) > 1 && next[0] == '/' && next[1] != '/' && next[1] != '\\' {
		return next
	}
	return fallback
}
