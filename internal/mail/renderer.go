package mail

import (
	"fmt"
	"math"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/shopspring/decimal"
)

// Compiler turns MJML markup into HTML.
type Compiler interface {
	Compile(source string) (string, error)
}

// Passthrough is used when templates are stored already compiled.
type Passthrough struct{}

func (Passthrough) Compile(source string) (string, error) { return source, nil }

// IsMJML reports whether source contains MJML markup.
func IsMJML(source string) bool {
	s := strings.ToLower(source)
	return strings.Contains(s, "<mjml") || strings.Contains(s, "<mj-")
}

// Renderer substitutes handlebars variables. Every top-level variable is
// addressed as {{globalData.<Name>.data}}.
type Renderer struct {
	compiler Compiler
}

func NewRenderer(c Compiler) *Renderer {
	if c == nil {
		c = Passthrough{}
	}
	return &Renderer{compiler: c}
}

func (r *Renderer) Render(source string, vars map[string]any) (string, error) {
	if IsMJML(source) {
		html, err := r.compiler.Compile(source)
		if err != nil {
			return "", fmt.Errorf("compiling mjml: %w", err)
		}
		source = html
	}

	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	out, err := tpl.Exec(WrapGlobalData(vars))
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}

// RenderSubject renders a subject line with the same variables.
func (r *Renderer) RenderSubject(subject string, vars map[string]any) (string, error) {
	if !strings.Contains(subject, "{{") {
		return subject, nil
	}
	return r.Render(subject, vars)
}

func WrapGlobalData(vars map[string]any) map[string]any {
	wrapped := make(map[string]any, len(vars))
	for name, v := range vars {
		wrapped[name] = map[string]any{"data": sanitize(v)}
	}
	return map[string]any{"globalData": wrapped}
}

func sanitize(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return 0
		}
	case decimal.Decimal:
		return x.StringFixed(2)
	case []map[string]any:
		out := make([]map[string]any, len(x))
		for i, m := range x {
			out[i] = sanitizeMap(m)
		}
		return out
	case map[string]any:
		return sanitizeMap(x)
	}
	return v
}

func sanitizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitize(v)
	}
	return out
}
