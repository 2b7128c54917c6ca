package template

import (
	"strings"
	"testing"
)

func TestRenderSubstitution(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		tpl  string
		data map[string]interface{}
		want string
	}{
		{
			name: "simple substitution",
			tpl:  "Hello {{ contact1_name }}",
			data: map[string]interface{}{"contact1_name": "Dana"},
			want: "Hello Dana",
		},
		{
			name: "missing key renders empty",
			tpl:  "Hello {{name}}",
			data: map[string]interface{}{},
			want: "Hello ",
		},
		{
			name: "nil data renders empty",
			tpl:  "Hello {{name}}",
			data: nil,
			want: "Hello ",
		},
		{
			name: "nil value renders empty",
			tpl:  "Offer for {{ property_address }}",
			data: map[string]interface{}{"property_address": nil},
			want: "Offer for ",
		},
		{
			name: "whitespace around key is trimmed",
			tpl:  "{{   property_address   }}",
			data: map[string]interface{}{"property_address": "12 Oak St"},
			want: "12 Oak St",
		},
		{
			name: "numeric value stringified",
			tpl:  "Assessed at {{ assessed_total }}",
			data: map[string]interface{}{"assessed_total": 250000},
			want: "Assessed at 250000",
		},
		{
			name: "multiple occurrences all replaced",
			tpl:  "{{ a }} and {{ a }} and {{ b }}",
			data: map[string]interface{}{"a": "x", "b": "y"},
			want: "x and x and y",
		},
		{
			name: "empty template",
			tpl:  "",
			data: map[string]interface{}{"a": "x"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.tpl, tt.data)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.tpl, got, tt.want)
			}
		})
	}
}

func TestRenderNeverErrorsOnMalformedTemplate(t *testing.T) {
	r := NewRenderer()

	// A key Liquid cannot parse falls back to plain substitution.
	got := r.Render("Hi {{ first name }}, re {{ property_address }}", map[string]interface{}{
		"first name":       "Dana",
		"property_address": "12 Oak St",
	})
	want := "Hi Dana, re 12 Oak St"
	if got != want {
		t.Errorf("Render fallback = %q, want %q", got, want)
	}

	// Unterminated tag must not panic or error out.
	got = r.Render("broken {{ tag", nil)
	if got != "broken {{ tag" {
		t.Errorf("Render(broken) = %q, want original", got)
	}
}

func TestRenderCurrencyFilter(t *testing.T) {
	r := NewRenderer()

	got := r.Render("Offer: {{ assessed_total | currency }}", map[string]interface{}{
		"assessed_total": 1234567.5,
	})
	if got != "Offer: $1,234,567.50" {
		t.Errorf("currency render = %q", got)
	}
}

func TestRenderDefaultFilter(t *testing.T) {
	r := NewRenderer()

	got := r.Render(`Dear {{ contact1_name | default: "Neighbor" }}`, map[string]interface{}{})
	if got != "Dear Neighbor" {
		t.Errorf("default render = %q", got)
	}
}

func TestRendererCachesParsedTemplates(t *testing.T) {
	r := NewRenderer()
	tpl := "Hello {{ name }}"

	r.Render(tpl, map[string]interface{}{"name": "a"})
	if _, ok := r.cache.Load(tpl); !ok {
		t.Error("template not cached after first render")
	}

	// Second render hits the cache and still substitutes per-call data.
	got := r.Render(tpl, map[string]interface{}{"name": "b"})
	if !strings.Contains(got, "b") {
		t.Errorf("cached render = %q, want data applied", got)
	}
}
