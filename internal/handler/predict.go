// Package handler contains HTTP handlers for the churn prediction form.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/churnform/internal/controller"
	"github.com/DukeRupert/churnform/internal/csrf"
	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/DukeRupert/churnform/internal/session"
	"github.com/DukeRupert/churnform/internal/templ/components/field"
	"github.com/DukeRupert/churnform/internal/templ/pages/predict"
	"github.com/a-h/templ"
)

// MaxBodySize bounds form and JSON request bodies. The server passes it to
// csrf.Protect, which parses the form first; the handlers apply it again
// for routes mounted without that middleware.
const MaxBodySize = 64 << 10

// PredictHandler serves the prediction form. Each browser session gets its
// own controller from the session store.
type PredictHandler struct {
	sessions *session.Store
	renderer *Renderer
	logger   *slog.Logger
	isSecure bool
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(sessions *session.Store, renderer *Renderer, logger *slog.Logger, isSecure bool) *PredictHandler {
	return &PredictHandler{
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers the form routes on the provided ServeMux.
// limit wraps POST /predict, the only route that calls the prediction
// service.
//
// Routes registered:
// - GET /                -> Show
// - POST /predict        -> Predict
// - POST /example        -> Example
// - POST /fields/{name}  -> UpdateField
// - /                    -> 404 for anything else
func (h *PredictHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	mux.HandleFunc("GET /{$}", h.Show)
	mux.Handle("POST /predict", limit(http.HandlerFunc(h.Predict)))
	mux.HandleFunc("POST /example", h.Example)
	mux.HandleFunc("POST /fields/{name}", h.UpdateField)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundResponse(w, r, h.logger)
	})
}

// Show renders the form in its current state.
func (h *PredictHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.FromRequest(w, r)
	h.respond(w, r, ctrl, "")
}

// Predict applies the posted values and submits the form.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.FromRequest(w, r)

	values, err := h.readValues(w, r, ctrl.Catalog())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	for name, value := range values {
		if err := ctrl.SetField(name, value); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	if err := ctrl.Submit(r.Context()); err != nil {
		if !errors.Is(err, controller.ErrSubmissionInFlight) {
			InternalErrorResponse(w, r, h.logger, err)
			return
		}
		if acceptsJSON(r) {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		h.respond(w, r, ctrl, domain.ErrorMessage(err))
		return
	}

	h.respond(w, r, ctrl, "")
}

// Example fills the form with the sample customer.
func (h *PredictHandler) Example(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.FromRequest(w, r)
	ctrl.FillExample()
	h.respond(w, r, ctrl, "")
}

// UpdateField stores one field and returns its re-rendered component, so
// an error shown under the field disappears as soon as the value changes.
func (h *PredictHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctrl := h.sessions.FromRequest(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.update_field", "Could not read form data"))
		return
	}

	if err := ctrl.SetField(name, r.PostFormValue(name)); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	snap := ctrl.Snapshot()
	if acceptsJSON(r) {
		writeSnapshot(w, http.StatusOK, snap)
		return
	}

	f, _ := ctrl.Catalog().Field(name)
	d := field.Data{
		Field:    f,
		Value:    snap.Values[name],
		Error:    snap.Errors.Get(name),
		Disabled: snap.Loading,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := field.Field(d).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render field", "field", name, "error", err)
	}
}

// respond writes the controller state as JSON, as the form panel for htmx,
// or as the full page.
func (h *PredictHandler) respond(w http.ResponseWriter, r *http.Request, ctrl *controller.Controller, notice string) {
	snap := ctrl.Snapshot()

	if acceptsJSON(r) {
		writeSnapshot(w, snapshotStatus(snap), snap)
		return
	}

	data, err := h.pageData(w, r, ctrl.Catalog(), snap, notice)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.renderer.RenderPartial(w, http.StatusOK, "form_panel", data)
		return
	}
	h.renderer.RenderHTTP(w, "predict", data)
}

func (h *PredictHandler) pageData(w http.ResponseWriter, r *http.Request, catalog *domain.Catalog, snap controller.Snapshot, notice string) (predict.PageData, error) {
	fields := field.FromSnapshot(catalog, snap.Values, snap.Errors, snap.Focus, snap.Loading)
	rendered := make([]template.HTML, len(fields))
	for i, d := range fields {
		html, err := templ.ToGoHTML(r.Context(), field.Field(d))
		if err != nil {
			return predict.PageData{}, fmt.Errorf("render field %s: %w", d.Field.Name, err)
		}
		rendered[i] = html
	}

	return predict.PageData{
		Title:     "churn prediction",
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
		Fields:    rendered,
		Loading:   snap.Loading,
		Notice:    notice,
		Result:    predict.NewResultView(snap.Result),
	}, nil
}

// readValues returns the posted values for catalog fields. Form posts
// carry other inputs such as the CSRF token, so unknown form keys are
// ignored; JSON bodies must only name catalog fields.
func (h *PredictHandler) readValues(w http.ResponseWriter, r *http.Request, catalog *domain.Catalog) (map[string]string, error) {
	const op = "handler.read_values"

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, domain.Invalid(op, "Request body must be a JSON object")
		}
		values := make(map[string]string, len(body))
		for name, raw := range body {
			if !catalog.Has(name) {
				return nil, domain.Invalid(op, "unknown field "+name)
			}
			values[name] = jsonValueString(raw)
		}
		return values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, domain.Invalid(op, "Could not read form data")
	}
	values := make(map[string]string)
	for _, f := range catalog.Fields() {
		if vs, ok := r.PostForm[f.Name]; ok && len(vs) > 0 {
			values[f.Name] = vs[0]
		}
	}
	return values, nil
}

// jsonValueString converts a decoded JSON scalar to the form's string
// representation. Numbers keep their shortest exact form.
func jsonValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// snapshotResponse is the JSON form of controller state.
type snapshotResponse struct {
	Values  domain.FormState `json:"values"`
	Errors  domain.ErrorMap  `json:"errors"`
	Focus   string           `json:"focus,omitempty"`
	Loading bool             `json:"loading"`
	Phase   controller.Phase `json:"phase"`
	Result  domain.Result    `json:"result"`
}

func snapshotStatus(snap controller.Snapshot) int {
	switch snap.Phase {
	case controller.PhaseInvalid:
		return http.StatusUnprocessableEntity
	case controller.PhaseFailure:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func writeSnapshot(w http.ResponseWriter, status int, snap controller.Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(snapshotResponse{
		Values:  snap.Values,
		Errors:  snap.Errors,
		Focus:   snap.Focus,
		Loading: snap.Loading,
		Phase:   snap.Phase,
		Result:  snap.Result,
	})
}
