// Package prompt renders the text prompts sent to the AI gateway using the
// Liquid template language.
package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Template names.
const (
	Offer     = "offer"
	Churn     = "churn"
	Loyalty   = "loyalty"
	Sentiment = "sentiment"
)

// Renderer parses each named template once and renders it with bindings.
type Renderer struct {
	engine    *liquid.Engine
	templates map[string]string
	cache     sync.Map // map[string]*liquid.Template
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Default returns a shared Renderer with the built-in templates.
func Default() *Renderer {
	defaultOnce.Do(func() {
		defaultRenderer = New()
	})
	return defaultRenderer
}

// New creates a Renderer with the built-in templates and filters.
func New() *Renderer {
	r := &Renderer{
		engine: liquid.NewEngine(),
		templates: map[string]string{
			Offer:     offerTemplate,
			Churn:     churnTemplate,
			Loyalty:   loyaltyTemplate,
			Sentiment: sentimentTemplate,
		},
	}
	r.registerFilters()
	return r
}

// WithTemplate returns r after replacing (or adding) the template called
// name. It must be called before the first Render of that name.
func (r *Renderer) WithTemplate(name, source string) *Renderer {
	r.templates[name] = source
	r.cache.Delete(name)
	return r
}

// Render renders the named template.
func (r *Renderer) Render(name string, bindings map[string]interface{}) (string, error) {
	if cached, ok := r.cache.Load(name); ok {
		out, err := cached.(*liquid.Template).RenderString(bindings)
		if err != nil {
			return "", fmt.Errorf("render %s prompt: %w", name, err)
		}
		return out, nil
	}

	src, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return "", fmt.Errorf("parse %s prompt: %w", name, err)
	}
	r.cache.Store(name, tpl)

	out, serr := tpl.RenderString(bindings)
	if serr != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, serr)
	}
	return out, nil
}

func (r *Renderer) registerFilters() {
	// Fixed decimals: {{ total_spent | fixed: 2 }}
	r.engine.RegisterFilter("fixed", func(value interface{}, places int) string {
		return strconv.FormatFloat(toFloat(value), 'f', places, 64)
	})

	// Shortest number form: {{ days_inactive | num }} -> 45, 12.5
	r.engine.RegisterFilter("num", func(value interface{}) string {
		return strconv.FormatFloat(toFloat(value), 'f', -1, 64)
	})

	// Join a list or fall back when it is empty:
	// {{ preferred_categories | join_or: "None identified" }}
	r.engine.RegisterFilter("join_or", func(value interface{}, fallback string) string {
		items := toStrings(value)
		if len(items) == 0 {
			return fallback
		}
		return strings.Join(items, ", ")
	})
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func toStrings(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
