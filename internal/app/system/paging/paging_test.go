package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/donors/requests", nil)
	p := Parse(r)
	if p.Number != 1 || p.Size != DefaultPageSize {
		t.Errorf("Parse() = %+v, want page 1 size %d", p, DefaultPageSize)
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantPage int
		wantSize int
	}{
		{"explicit", "/x?page=3&limit=25", 3, 25},
		{"zero page clamped", "/x?page=0", 1, DefaultPageSize},
		{"negative page clamped", "/x?page=-2", 1, DefaultPageSize},
		{"garbage ignored", "/x?page=abc&limit=xyz", 1, DefaultPageSize},
		{"limit capped", "/x?limit=5000", 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tt.url, nil))
			if p.Number != tt.wantPage || p.Size != tt.wantSize {
				t.Errorf("Parse(%q) = %+v, want page %d size %d", tt.url, p, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestSkipAndLimit(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	if p.Skip() != 40 {
		t.Errorf("Skip() = %d, want 40", p.Skip())
	}
	if p.Limit() != 20 {
		t.Errorf("Limit() = %d, want 20", p.Limit())
	}
}

func TestMeta(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		total     int64
		wantPages int
	}{
		{"exact fit", Page{Number: 1, Size: 10}, 30, 3},
		{"partial last page", Page{Number: 2, Size: 10}, 31, 4},
		{"empty collection still one page", Page{Number: 1, Size: 10}, 0, 1},
		{"single row", Page{Number: 1, Size: 10}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.page.Meta(tt.total)
			if m.Pages != tt.wantPages {
				t.Errorf("Meta(%d).Pages = %d, want %d", tt.total, m.Pages, tt.wantPages)
			}
			if m.Current != tt.page.Number || m.Total != tt.total {
				t.Errorf("Meta = %+v", m)
			}
		})
	}
}
