package view

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// DefaultTemplateName is the built-in text layout inside TemplatesFS.
const DefaultTemplateName = "screen.tmpl"

// DefaultTemplate lays the screen out as plain text.
var DefaultTemplate = mustTemplate(DefaultTemplateName)

// TemplatesFS exposes the built-in templates so callers can copy or extend
// them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return templatesFS
	}
	return sub
}

func mustTemplate(name string) string {
	data, err := fs.ReadFile(TemplatesFS(), name)
	if err != nil {
		panic(fmt.Sprintf("view: embedded template %s: %v", name, err))
	}
	return string(data)
}

// DefaultLogo is the decorative image region shown in portrait mode.
const DefaultLogo = `   .--.
  |o_o |
  |:_/ |`

// TextOption configures a TextRenderer.
type TextOption func(*textConfig)

type textConfig struct {
	template string
	path     string
	logo     string
}

// WithTemplate overrides the template source.
func WithTemplate(content string) TextOption {
	return func(cfg *textConfig) {
		if strings.TrimSpace(content) != "" {
			cfg.template = content
		}
	}
}

// WithTemplateFile loads the template from disk.
func WithTemplateFile(path string) TextOption {
	return func(cfg *textConfig) {
		cfg.path = strings.TrimSpace(path)
	}
}

// WithLogo overrides the decorative image region.
func WithLogo(logo string) TextOption {
	return func(cfg *textConfig) {
		cfg.logo = logo
	}
}

// TextRenderer renders a Screen through a pongo2 template.
type TextRenderer struct {
	tpl  *pongo2.Template
	logo string
}

// NewTextRenderer compiles the configured template.
func NewTextRenderer(options ...TextOption) (*TextRenderer, error) {
	cfg := &textConfig{
		template: DefaultTemplate,
		logo:     DefaultLogo,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.path != "" {
		data, err := os.ReadFile(cfg.path)
		if err != nil {
			return nil, fmt.Errorf("view: read template: %w", err)
		}
		cfg.template = string(data)
	}

	tpl, err := pongo2.FromString(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("view: parse template: %w", err)
	}
	return &TextRenderer{tpl: tpl, logo: cfg.logo}, nil
}

// Render executes the template for screen.
func (r *TextRenderer) Render(screen Screen) (string, error) {
	data, err := toContext(screen)
	if err != nil {
		return "", fmt.Errorf("view: convert screen: %w", err)
	}
	out, err := r.tpl.Execute(pongo2.Context{
		"screen": data,
		"logo":   r.logo,
	})
	if err != nil {
		return "", fmt.Errorf("view: execute template: %w", err)
	}
	return out, nil
}

func toContext(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
