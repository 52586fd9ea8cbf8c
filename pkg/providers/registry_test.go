package providers

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string                { return s.name }
func (s stubProvider) ValidateConfig(Config) error { return nil }
func (s stubProvider) Recognize(context.Context, Config, string) ([][]document.Token, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubProvider{name: "Tesseract"}, stubProvider{name: "vision"})

	tests := []struct {
		name    string
		lookup  string
		wantErr bool
	}{
		{"exact", "vision", false},
		{"case insensitive", "TESSERACT", false},
		{"missing", "azure", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Get(tt.lookup)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get(%q) error = %v, wantErr %v", tt.lookup, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownProvider) {
				t.Errorf("Get(%q) error = %v, want ErrUnknownProvider", tt.lookup, err)
			}
			if !tt.wantErr && !strings.EqualFold(p.Name(), tt.lookup) {
				t.Errorf("Get(%q) returned %q", tt.lookup, p.Name())
			}
			if r.HasProvider(tt.lookup) == tt.wantErr {
				t.Errorf("HasProvider(%q) inconsistent with Get", tt.lookup)
			}
		})
	}

	if got, want := r.List(), []string{"tesseract", "vision"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegisterRejects(t *testing.T) {
	r := NewRegistry(stubProvider{name: "vision"})

	tests := []struct {
		name     string
		provider Provider
	}{
		{"duplicate name", stubProvider{name: "VISION"}},
		{"empty name", stubProvider{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.provider); err == nil {
				t.Error("Register() should fail")
			}
		})
	}
	if got := r.List(); len(got) != 1 {
		t.Errorf("List() = %v, want only vision", got)
	}
}

func TestTokenCount(t *testing.T) {
	pages := [][]document.Token{{{Text: "a"}, {Text: "b"}}, nil, {{Text: "c"}}}
	if got := TokenCount(pages); got != 3 {
		t.Errorf("TokenCount() = %d, want 3", got)
	}
}
