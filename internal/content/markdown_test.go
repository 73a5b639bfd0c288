package content

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_Sanitises(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		rejected string
	}{
		{"script tag", `<script>alert('xss')</script>`, "<script"},
		{"img onerror", `<img src=x onerror=alert('xss')>`, "<img "},
		{"javascript link", `[click](javascript:alert('xss'))`, "javascript:"},
		{"heading dropped", "# Title", "<h1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderMarkdown(tt.input)
			if err != nil {
				t.Fatalf("RenderMarkdown error: %v", err)
			}
			if strings.Contains(strings.ToLower(out), tt.rejected) {
				t.Errorf("output contains %q:\n%s", tt.rejected, out)
			}
		})
	}
}

func TestRenderMarkdown_Formatting(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"- one\n- two", "<li>one</li>"},
		{"line one\nline two", "<br"},
		{"[site](https://example.com)", `href="https://example.com"`},
	}
	for _, tt := range tests {
		out, err := RenderMarkdown(tt.input)
		if err != nil {
			t.Fatalf("RenderMarkdown(%q): %v", tt.input, err)
		}
		if !strings.Contains(out, tt.contains) {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, out, tt.contains)
		}
	}
}

func TestMarkdown_TemplateHTML(t *testing.T) {
	if got := string(Markdown("plain")); !strings.Contains(got, "<p>plain</p>") {
		t.Errorf("got %q", got)
	}
}
