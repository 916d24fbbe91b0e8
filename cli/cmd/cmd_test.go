package cmd

import (
	"testing"

	"github.com/pithecene-io/gangway/attr"
	"github.com/pithecene-io/gangway/cli/config"
	"github.com/pithecene-io/gangway/emit"
)

func TestParseWindowsLetters(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    attr.WindowsAttrs
		wantErr bool
	}{
		{"read-only hidden", "RH", attr.WindowsAttrs{ReadOnly: true, Hidden: true}, false},
		{"lowercase accepted", "rhsa", attr.WindowsAttrs{ReadOnly: true, Hidden: true, System: true, Archive: true}, false},
		{"dashes ignored", "R--A", attr.WindowsAttrs{ReadOnly: true, Archive: true}, false},
		{"empty is clear", "", attr.WindowsAttrs{}, false},
		{"unknown letter", "RX", attr.WindowsAttrs{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWindowsLetters(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWindowsLetters(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseWindowsLetters(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWindowsLetters_RoundTrip(t *testing.T) {
	attrs := attr.WindowsAttrs{ReadOnly: true, Archive: true}
	if got := windowsLetters(attrs); got != "R--A" {
		t.Errorf("expected R--A, got %s", got)
	}
}

func TestParseOctal(t *testing.T) {
	mode, err := parseOctal(644)
	if err != nil {
		t.Fatalf("parseOctal(644): %v", err)
	}
	if mode != 0o644 {
		t.Errorf("expected 0o644, got %o", mode)
	}

	if _, err := parseOctal(684); err == nil {
		t.Error("expected error for digit 8")
	}
	if _, err := parseOctal(7777); err == nil {
		t.Error("expected error for out-of-range bits")
	}
}

func TestBuildEmitter_Types(t *testing.T) {
	e, err := buildEmitter(config.EmitterConfig{})
	if err != nil {
		t.Fatalf("default emitter: %v", err)
	}
	if _, ok := e.(emit.Null); !ok {
		t.Errorf("expected Null emitter for empty type, got %T", e)
	}

	if _, err := buildEmitter(config.EmitterConfig{Type: "webhook"}); err == nil {
		t.Error("webhook emitter without URL must fail")
	}

	if _, err := buildEmitter(config.EmitterConfig{Type: "carrier-pigeon"}); err == nil {
		t.Error("unknown emitter type must fail")
	}
}
