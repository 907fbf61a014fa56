package ssr

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	if desc, ok := Lookup("VGML"); !ok || !strings.Contains(desc, "Vegan") {
		t.Fatalf("VGML: got %q ok=%t", desc, ok)
	}
	if _, ok := Lookup("NOPE"); ok {
		t.Fatal("unknown code should not resolve")
	}
}

func TestDescriptionFallback(t *testing.T) {
	if got := Description("ZZZZ"); got != "Unknown SSR code: ZZZZ" {
		t.Fatalf("got %q", got)
	}
	if got := Description("KSML"); strings.HasPrefix(got, "Unknown") {
		t.Fatalf("KSML should be known, got %q", got)
	}
}
