package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
)

func TestStripTags_Empty(t *testing.T) {
	if got := htmlsanitize.StripTags(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestStripTags_PlainText(t *testing.T) {
	if got := htmlsanitize.StripTags("Ward 4, City Hospital"); got != "Ward 4, City Hospital" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestStripTags_RemovesMarkup(t *testing.T) {
	got := htmlsanitize.StripTags("<b>urgent</b> need")
	if got != "urgent need" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestStripTags_RemovesScript(t *testing.T) {
	got := htmlsanitize.StripTags("note<script>alert('x')</script>")
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_KeepsFormatting(t *testing.T) {
	in := "<p><strong>Camp moved</strong> to the main hall</p>"
	if got := htmlsanitize.Sanitize(in); got != in {
		t.Errorf("expected formatting preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := htmlsanitize.Sanitize("<p>Hello</p><script>alert('x')</script>")
	if got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesEventHandlers(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p onclick="alert('x')">Hi</p>`)
	if strings.Contains(got, "onclick") {
		t.Errorf("expected onclick removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="javascript:alert('x')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript href removed, got %q", got)
	}
}

func TestSanitize_AllowsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com">Sign-up form</a>`)
	if !strings.Contains(got, "https://example.com") {
		t.Errorf("expected safe link preserved, got %q", got)
	}
}

func TestSanitize_RemovesIframe(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p>Content</p><iframe src="https://evil.com"></iframe>`)
	if strings.Contains(got, "iframe") {
		t.Errorf("expected iframe removed, got %q", got)
	}
	if !strings.Contains(got, "Content") {
		t.Errorf("expected content preserved, got %q", got)
	}
}
