package storage

import (
	"strings"
	"testing"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/state"
)

func resolverState() state.State {
	return state.State{
		Chats: []chat.Chat{
			testChat("Go generics"),
			testChat("Rust lifetimes"),
			testChat("Go channels"),
		},
		Current: 1,
	}
}

func TestResolve_Aliases(t *testing.T) {
	s := resolverState()
	tests := []struct {
		ref  string
		want int
	}{
		{"@current", 1},
		{"@last", 0},
		{"@LAST", 0},
		{"@first", 2},
		{"1", 0},
		{"3", 2},
		{"rust", 1},
		{"channels", 2},
	}
	for _, tt := range tests {
		got, err := Resolve(s, tt.ref)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}

func TestResolve_ID(t *testing.T) {
	s := resolverState()
	id := s.Chats[2].ID

	got, err := Resolve(s, id)
	if err != nil || got != 2 {
		t.Errorf("Resolve(full id) = %d, %v", got, err)
	}

	got, err = Resolve(s, id[:8])
	if err != nil || got != 2 {
		t.Errorf("Resolve(prefix) = %d, %v", got, err)
	}
}

func TestResolve_Errors(t *testing.T) {
	s := resolverState()

	if _, err := Resolve(s, ""); err == nil {
		t.Error("expected error for empty reference")
	}
	if _, err := Resolve(s, "9"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected out of range error, got %v", err)
	}
	if _, err := Resolve(s, "python"); err == nil {
		t.Error("expected error for no match")
	}

	_, err := Resolve(s, "go")
	if err == nil || !strings.Contains(err.Error(), "multiple chats") {
		t.Errorf("expected ambiguity error, got %v", err)
	}

	if _, err := Resolve(state.State{Current: -1}, "@last"); err == nil {
		t.Error("expected error with no chats")
	}
}

func TestListAliases(t *testing.T) {
	aliases := ListAliases()
	for _, want := range []string{"@current", "@last", "@first"} {
		if !strings.Contains(aliases, want) {
			t.Errorf("ListAliases missing %s", want)
		}
	}
}
