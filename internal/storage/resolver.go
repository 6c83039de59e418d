package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/state"
)

// minIDPrefix is the shortest ID prefix accepted as a reference.
const minIDPrefix = 4

// Resolve converts a user-friendly chat reference into an index into
// snap.Chats.
//
// Supported references:
//   - "@current" - the current chat
//   - "@last" - the newest chat (top of the list)
//   - "@first" - the oldest chat (bottom of the list)
//   - "1", "2", "3" - by position (1-based)
//   - an ID or an ID prefix of at least 4 characters
//   - "substring" - case-insensitive match on title (error if ambiguous)
func Resolve(snap state.State, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, fmt.Errorf("empty reference")
	}
	chats := snap.Chats
	if len(chats) == 0 {
		return -1, fmt.Errorf("no chats found")
	}

	switch strings.ToLower(ref) {
	case "@current":
		if _, ok := snap.CurrentChat(); !ok {
			return -1, fmt.Errorf("no current chat")
		}
		return snap.Current, nil
	case "@last":
		return 0, nil
	case "@first":
		return len(chats) - 1, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(chats) {
			return -1, fmt.Errorf("index %d out of range (1-%d)", index, len(chats))
		}
		return index - 1, nil
	}

	if i, ok := byIDPrefix(chats, ref); ok {
		return i, nil
	}

	refLower := strings.ToLower(ref)
	var matches []int
	for i, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), refLower) {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return -1, fmt.Errorf("no chat matching '%s'", ref)
	case 1:
		return matches[0], nil
	default:
		titles := make([]string, len(matches))
		for i, m := range matches {
			titles[i] = fmt.Sprintf("'%s'", chats[m].Title)
		}
		return -1, fmt.Errorf("multiple chats match '%s': %s. Use an ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

func byIDPrefix(chats []chat.Chat, ref string) (int, bool) {
	found := -1
	for i, c := range chats {
		if c.ID == ref {
			return i, true
		}
		if len(ref) >= minIDPrefix && strings.HasPrefix(c.ID, ref) {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}

// ListAliases describes the accepted references.
func ListAliases() string {
	return `Supported references:
  @current       Chat currently open in the TUI
  @last          Newest chat (top of the list)
  @first         Oldest chat (bottom of the list)
  1, 2, 3        By position (1-based)
  3f2a...        Chat ID or ID prefix
  "text"         Search by title substring`
}
