package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
)

// Renderer manages template parsing and rendering with isolated template
// sets. Templates are organized as:
//   - layouts/app.html - the base layout, defines "app"
//   - partials/*.html - fragments shared by pages and returned to htmx
//   - pages/*.html - pages, each defines "content"
type Renderer struct {
	fsys     fs.FS
	logger   *slog.Logger
	isDev    bool
	mu       sync.RWMutex
	pages    map[string]*template.Template
	partials *template.Template
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	FS     fs.FS
	Logger *slog.Logger
	// IsDev re-parses the templates on every render, for use with os.DirFS.
	IsDev bool
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.FS == nil {
		return nil, fmt.Errorf("renderer: no template filesystem")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Renderer{
		fsys:   cfg.FS,
		logger: cfg.Logger,
		isDev:  cfg.IsDev,
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) loadTemplates() error {
	partialFiles, err := fs.Glob(r.fsys, "partials/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob partials: %w", err)
	}

	partials := template.New("partials").Funcs(TemplateFuncs())
	if len(partialFiles) > 0 {
		partials, err = partials.ParseFS(r.fsys, partialFiles...)
		if err != nil {
			return fmt.Errorf("failed to parse partials: %w", err)
		}
	}

	base, err := partials.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone partials: %w", err)
	}
	base, err = base.ParseFS(r.fsys, "layouts/app.html")
	if err != nil {
		return fmt.Errorf("failed to parse app layout: %w", err)
	}

	pageFiles, err := fs.Glob(r.fsys, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		pageTmpl, err := base.Clone()
		if err != nil {
			return fmt.Errorf("failed to clone app template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(r.fsys, page)
		if err != nil {
			return fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		// Store as "predict" for pages/predict.html
		pages[strings.TrimSuffix(path.Base(page), path.Ext(page))] = pageTmpl
	}

	r.mu.Lock()
	r.pages = pages
	r.partials = partials
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "pages", len(pages), "partials", len(partialFiles))
	return nil
}

// Reload re-parses every template.
func (r *Renderer) Reload() error {
	return r.loadTemplates()
}

// reloadIfDev re-parses templates before each render in development so
// edits under web/templates show up without a restart.
func (r *Renderer) reloadIfDev() error {
	if !r.isDev {
		return nil
	}
	if err := r.Reload(); err != nil {
		return fmt.Errorf("template reload failed: %w", err)
	}
	return nil
}

// Render executes a page through the app layout.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	if err := r.reloadIfDev(); err != nil {
		return err
	}

	r.mu.RLock()
	tmpl, ok := r.pages[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	return tmpl.ExecuteTemplate(w, "app", data)
}

// RenderPartialTo executes a partial by its defined name.
func (r *Renderer) RenderPartialTo(w io.Writer, name string, data any) error {
	if err := r.reloadIfDev(); err != nil {
		return err
	}

	r.mu.RLock()
	partials := r.partials
	r.mu.RUnlock()

	if partials.Lookup(name) == nil {
		return fmt.Errorf("partial %q not found", name)
	}
	return partials.ExecuteTemplate(w, name, data)
}

// RenderHTTP renders a page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus renders a page directly to an http.ResponseWriter.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any) {
	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderPartial renders a partial template (for htmx responses).
func (r *Renderer) RenderPartial(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.RenderPartialTo(&buf, name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// ListTemplates returns the names of all loaded pages.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}
