// Package template holds the alert templates and renders their
// {{path.to.value}} placeholders against an alert context.
package template

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"

	"netbaseline/internal/types"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var templateFS embed.FS

// placeholder matches {{ path.to.value }}
var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Loader manages alert templates keyed by their event type condition
type Loader struct {
	logger    *zap.Logger
	templates map[string]*types.AlertTemplate
	mu        sync.RWMutex
}

// NewLoader creates new template loader with the built-in templates
func NewLoader(logger *zap.Logger) (*Loader, error) {
	loader := &Loader{
		logger:    logger,
		templates: make(map[string]*types.AlertTemplate),
	}

	if err := loader.loadDefaultTemplates(); err != nil {
		return nil, err
	}

	return loader, nil
}

// loadDefaultTemplates loads templates from embedded filesystem
func (t *Loader) loadDefaultTemplates() error {
	entries, err := templateFS.ReadDir("builtin")
	if err != nil {
		return fmt.Errorf("failed to read template directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := templateFS.ReadFile(path.Join("builtin", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		if err := t.load(content); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// LoadFile loads templates from a YAML file, replacing built-ins with the
// same event type condition
func (t *Loader) LoadFile(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}
	if err := t.load(content); err != nil {
		return fmt.Errorf("failed to parse template file %s: %w", file, err)
	}
	return nil
}

func (t *Loader) load(content []byte) error {
	var list []types.AlertTemplate
	if err := yaml.Unmarshal(content, &list); err != nil {
		return err
	}

	for i := range list {
		if err := t.Register(&list[i]); err != nil {
			return err
		}
	}
	return nil
}

// Register adds or replaces a template
func (t *Loader) Register(tpl *types.AlertTemplate) error {
	key := tpl.Conditions.EventType
	if key == "" {
		return fmt.Errorf("template %q has no event type condition", tpl.ID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.templates[key] = tpl
	return nil
}

// Find returns the template whose event type condition equals key
func (t *Loader) Find(key string) (*types.AlertTemplate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tpl, ok := t.templates[key]
	return tpl, ok
}

// Render substitutes {{path.to.value}} placeholders with values looked up
// in data. Unresolved placeholders are left verbatim and non-scalar values
// are JSON encoded.
func Render(tpl string, data map[string]any) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		value, ok := lookup(data, key)
		if !ok {
			return match
		}
		return format(value)
	})
}

func lookup(data map[string]any, key string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

func format(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
