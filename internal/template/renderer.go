// Package template renders subject, body, and PDF templates with lead data
// using the Liquid template language. Rendering is tolerant: unknown or nil
// placeholders blank out rather than failing a send.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// placeholderPattern matches {{ key }} tokens, including keys Liquid would
// reject. Used by the fallback path so malformed templates still render.
var placeholderPattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Renderer compiles and renders Liquid templates with caching. Safe for
// concurrent use.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // template string -> *liquid.Template
}

// NewRenderer creates a renderer with the offer-letter filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// Fallback value: {{ contact1_name | default: "Neighbor" }}
	r.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// Dollar formatting for offer amounts: {{ assessed_total | currency }}
	r.engine.RegisterFilter("currency", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("$%s", groupThousands(f))
	})

	// Uppercase first letter: {{ property_city | capitalize }}
	r.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})
}

// Render substitutes the template's placeholders with values from data.
// Missing or nil keys render as empty string; the input data is never
// mutated. Render never fails: templates Liquid cannot parse fall back to
// plain placeholder substitution with the same tolerance.
func (r *Renderer) Render(tpl string, data map[string]interface{}) string {
	if tpl == "" {
		return ""
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	parsed, err := r.parse(tpl)
	if err != nil {
		return substitute(tpl, data)
	}
	out, err := parsed.RenderString(data)
	if err != nil {
		return substitute(tpl, data)
	}
	return out
}

func (r *Renderer) parse(tpl string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(tpl); ok {
		return cached.(*liquid.Template), nil
	}
	parsed, err := r.engine.ParseString(tpl)
	if err != nil {
		return nil, err
	}
	r.cache.Store(tpl, parsed)
	return parsed, nil
}

// substitute is the non-Liquid fallback: every {{ key }} token becomes the
// string form of data[key], or empty string when absent or nil. Whitespace
// around the key is trimmed before lookup.
func substitute(tpl string, data map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		key := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])
		value, ok := data[key]
		if !ok || value == nil {
			return ""
		}
		return fmt.Sprintf("%v", value)
	})
}

// groupThousands formats a float with comma separators and two decimals.
func groupThousands(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}
