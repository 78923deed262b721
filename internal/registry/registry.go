// Package registry maps template identifiers to document templates.
//
// A Registry is built once at startup and handed to whoever generates
// sheets; there is no package-level instance.
package registry

import (
	"context"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/types"
)

// DefaultTemplateID is resolved whenever a requested template is unknown.
const DefaultTemplateID = "classic"

// Registry holds the available templates in registration order.
type Registry struct {
	templates map[string]types.Template
	order     []string
	logger    logging.Logger
	mutex     sync.RWMutex
}

// Entry describes one registered template for selection lists.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Description string   `json:"description" yaml:"description"`
	Fonts       []string `json:"required_fonts" yaml:"required_fonts"`
	NeedsLogo   bool     `json:"requires_logo" yaml:"requires_logo"`
}

// New creates an empty registry.
func New(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Registry{
		templates: make(map[string]types.Template),
		order:     make([]string, 0),
		logger:    logger.WithComponent("registry"),
	}
}

// Register adds or replaces the template stored under id. A replaced
// template keeps its original position in List.
func (r *Registry) Register(id string, tmpl types.Template) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[id]; !exists {
		r.order = append(r.order, id)
	}
	r.templates[id] = tmpl
}

// Get retrieves a template by id
func (r *Registry) Get(id string) (types.Template, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tmpl, exists := r.templates[id]
	return tmpl, exists
}

// Remove removes a template from the registry
func (r *Registry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[id]; !exists {
		return
	}
	delete(r.templates, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// List returns every registered template in registration order.
func (r *Registry) List() []Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		tmpl := r.templates[id]
		entries = append(entries, Entry{
			ID:          id,
			DisplayName: tmpl.DisplayName(),
			Description: tmpl.Description(),
			Fonts:       append([]string(nil), tmpl.RequiredFonts()...),
			NeedsLogo:   tmpl.RequiresLogo(),
		})
	}
	return entries
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]string(nil), r.order...)
}

// Count returns the number of registered templates
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.templates)
}

// DisplayName returns the registered display name for id, or a title-cased
// id for templates that are not registered.
func (r *Registry) DisplayName(id string) string {
	if tmpl, ok := r.Get(id); ok {
		return tmpl.DisplayName()
	}
	return cases.Title(language.English).String(id)
}

// Resolve returns the template for id, falling back to DefaultTemplateID
// when id is unknown. fellBack reports whether the fallback was used. An
// error is returned only when the default template is missing too.
func (r *Registry) Resolve(ctx context.Context, id string) (tmpl types.Template, fellBack bool, err error) {
	if tmpl, ok := r.Get(id); ok {
		return tmpl, false, nil
	}

	fallback, ok := r.Get(DefaultTemplateID)
	if !ok {
		return nil, false, lserrors.NewTemplateError(lserrors.ErrCodeNoDefaultTemplate,
			"default template is not registered").
			WithContext("requested", id).
			WithContext("default", DefaultTemplateID)
	}

	r.logger.Warn(ctx, lserrors.ErrTemplateNotFound(id), "Template not registered, using default",
		"requested", id, "default", DefaultTemplateID)
	return fallback, true, nil
}
