package types

import (
	"strings"
	"testing"
)

func TestRecordIDDeterministic(t *testing.T) {
	a := RecordID("user-1", "semantic", "interest", "astronomy")
	b := RecordID("user-1", "semantic", "interest", "astronomy")
	if a != b {
		t.Fatalf("same parts must collide: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-char id, got %d", len(a))
	}
	if c := RecordID("user-2", "semantic", "interest", "astronomy"); c == a {
		t.Fatal("different users must not collide")
	}
}

func TestWorkingRecordID(t *testing.T) {
	if got := WorkingRecordID("sess-1", "current_topic"); got != "wm:sess-1:current_topic" {
		t.Fatalf("unexpected working id: %s", got)
	}
}

func TestPrefixRuneSafe(t *testing.T) {
	if got := Prefix("héllo wörld", 5); got != "héllo" {
		t.Fatalf("expected rune-wise prefix, got %q", got)
	}
	if got := Prefix("short", 100); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	long := strings.Repeat("日", 40)
	if got := Prefix(long, 30); len([]rune(got)) != 30 {
		t.Fatalf("expected 30 runes, got %d", len([]rune(got)))
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"user":      RoleUser,
		"USER":      RoleUser,
		"human":     RoleUser,
		"assistant": RoleAssistant,
		"ai":        RoleAssistant,
		"model":     RoleAssistant,
		"system":    RoleSystem,
		"":          RoleUser,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}
