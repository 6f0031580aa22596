package ident

import (
	"strings"
	"testing"
)

func TestParseValid(t *testing.T) {
	namespace, name, err := Parse("acme/resnet-50")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if namespace != "acme" || name != "resnet-50" {
		t.Errorf("Expected (acme, resnet-50), got (%s, %s)", namespace, name)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, _, err := Parse(""); err == nil {
		t.Error("Empty identifier should be rejected")
	}
}

func TestParseRejectsBadLength(t *testing.T) {
	if _, _, err := Parse("a/b"); err == nil {
		t.Error("Identifiers of 3 characters or fewer should be rejected")
	}
	long := strings.Repeat("x", MaxLength) + "/y"
	if _, _, err := Parse(long); err == nil {
		t.Error("Identifiers above MaxLength should be rejected")
	}
}

func TestURL(t *testing.T) {
	got := URL("https://huggingface.co/", "acme", "resnet-50", "main")
	want := "https://huggingface.co/acme/resnet-50/tree/main"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestParseRejectsWrongShape(t *testing.T) {
	for _, id := range []string{"no-slash-here", "too/many/parts"} {
		if _, _, err := Parse(id); err == nil {
			t.Errorf("Identifier %q should be rejected", id)
		}
	}
}
