package common

import "testing"

func TestHasAnyPrefix(t *testing.T) {
	if !HasAnyPrefix("- name: hornsgatan", "- name:", "name:") {
		t.Fatal("expected list-item prefix to match")
	}
	if !HasAnyPrefix("name: hornsgatan", "- name:", "name:") {
		t.Fatal("expected bare prefix to match")
	}
	if HasAnyPrefix("rename: hornsgatan", "- name:", "name:") {
		t.Fatal("expected no match for a different key")
	}
	if HasAnyPrefix("anything") {
		t.Fatal("expected no match without prefixes")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "token-a", "token-b"); got != "token-a" {
		t.Fatalf("expected token-a, got %q", got)
	}
	if got := FirstNonEmpty("", "   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
