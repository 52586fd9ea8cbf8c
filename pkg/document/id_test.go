package document

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := GenerateID("abc"); got != want {
		t.Errorf("GenerateID(abc) = %s, want %s", got, want)
	}
	if got := HashContent([]byte("abc")); got != want {
		t.Errorf("HashContent(abc) = %s, want %s", got, want)
	}
}

func TestCanonicalKeys(t *testing.T) {
	pageID := PageID("scans/a.png", 0)
	tests := []struct {
		name string
		got  string
		key  string
	}{
		{"document", DocumentID("scans/a.png"), "scans/a.png"},
		{"page", pageID, "page_scans/a.png_0"},
		{"line", LineID(pageID, 3), pageID + "_line_3"},
		{"word", WordID(pageID, 10, 100, "Hello"), pageID + "_10_100_Hello"},
		{"fractional word", WordID(pageID, 10.5, 0.25, "x"), pageID + "_10.5_0.25_x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if want := GenerateID(tt.key); tt.got != want {
				t.Errorf("id = %s, want hash of %q (%s)", tt.got, tt.key, want)
			}
			if !IsID(tt.got) {
				t.Errorf("id %q is not a 64 char lowercase hex string", tt.got)
			}
		})
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", GenerateID("x"), true},
		{"uppercase", strings.ToUpper(GenerateID("x")), false},
		{"short", "abc", false},
		{"non hex", strings.Repeat("g", 64), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsID(tt.in); got != tt.want {
				t.Errorf("IsID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
