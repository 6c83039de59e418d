package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
)

// Reducer derives a new snapshot from the previous one. Reducers never
// modify their input: they copy the chat list header and the touched chat's
// message slice, and share everything else.
type Reducer func(State) (State, error)

var (
	// ErrNoChat is returned when a reducer addresses a missing chat.
	ErrNoChat = errors.New("chat not found")
	// ErrNoMessage is returned when a reducer addresses a missing message.
	ErrNoMessage = errors.New("message not found")
)

// Direction of a message move.
type Direction int

const (
	Up Direction = iota
	Down
)

// Compose chains reducers into one.
func Compose(reducers ...Reducer) Reducer {
	return func(s State) (State, error) {
		var err error
		for _, r := range reducers {
			if s, err = r(s); err != nil {
				return s, err
			}
		}
		return s, nil
	}
}

// updateChat replaces chat i with fn's result in a new chat list.
func updateChat(s State, i int, fn func(chat.Chat) (chat.Chat, error)) (State, error) {
	if i < 0 || i >= len(s.Chats) {
		return s, fmt.Errorf("%w: index %d", ErrNoChat, i)
	}
	updated, err := fn(s.Chats[i])
	if err != nil {
		return s, err
	}
	updated.UpdatedAt = time.Now()

	chats := make([]chat.Chat, len(s.Chats))
	copy(chats, s.Chats)
	chats[i] = updated
	s.Chats = chats
	return s, nil
}

func cloneMessages(msgs []chat.Message, extra int) []chat.Message {
	out := make([]chat.Message, len(msgs), len(msgs)+extra)
	copy(out, msgs)
	return out
}

func checkMessage(c chat.Chat, i int) error {
	if i < 0 || i >= len(c.Messages) {
		return fmt.Errorf("%w: index %d", ErrNoMessage, i)
	}
	return nil
}

// AppendMessage adds a message at the end of chat chatIdx. The first user
// message names a chat that still has the default title.
func AppendMessage(chatIdx int, msg chat.Message) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			c.Messages = append(cloneMessages(c.Messages, 1), msg)
			if c.Title == chat.DefaultTitle && msg.Role == chat.User {
				c.Title = chat.TitleFrom(msg.Content.Text())
			}
			return c, nil
		})
	}
}

// SetMessageContent replaces the content of one message.
func SetMessageContent(chatIdx, msgIdx int, buf content.Buffer) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			if err := checkMessage(c, msgIdx); err != nil {
				return c, err
			}
			c.Messages = cloneMessages(c.Messages, 0)
			c.Messages[msgIdx].Content = buf
			return c, nil
		})
	}
}

// TruncateAfter drops every message after msgIdx.
func TruncateAfter(chatIdx, msgIdx int) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			if err := checkMessage(c, msgIdx); err != nil {
				return c, err
			}
			c.Messages = cloneMessages(c.Messages[:msgIdx+1], 0)
			return c, nil
		})
	}
}

// MoveMessage swaps a message with its neighbour in the given direction.
func MoveMessage(chatIdx, msgIdx int, dir Direction) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			other := msgIdx - 1
			if dir == Down {
				other = msgIdx + 1
			}
			if err := checkMessage(c, msgIdx); err != nil {
				return c, err
			}
			if err := checkMessage(c, other); err != nil {
				return c, err
			}
			c.Messages = cloneMessages(c.Messages, 0)
			c.Messages[msgIdx], c.Messages[other] = c.Messages[other], c.Messages[msgIdx]
			return c, nil
		})
	}
}

// DeleteMessage removes one message.
func DeleteMessage(chatIdx, msgIdx int) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			if err := checkMessage(c, msgIdx); err != nil {
				return c, err
			}
			msgs := make([]chat.Message, 0, len(c.Messages)-1)
			msgs = append(msgs, c.Messages[:msgIdx]...)
			c.Messages = append(msgs, c.Messages[msgIdx+1:]...)
			return c, nil
		})
	}
}

// DropLastMessage removes the final message of a chat.
func DropLastMessage(chatIdx int) Reducer {
	return func(s State) (State, error) {
		if chatIdx < 0 || chatIdx >= len(s.Chats) {
			return s, fmt.Errorf("%w: index %d", ErrNoChat, chatIdx)
		}
		return DeleteMessage(chatIdx, s.Chats[chatIdx].LastIndex())(s)
	}
}

// SetConfig replaces a chat's model configuration.
func SetConfig(chatIdx int, cfg chat.Config) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			c.Config = cfg
			return c, nil
		})
	}
}

// SetImageDetail sets a chat's default image detail level.
func SetImageDetail(chatIdx int, detail content.Detail) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			c.ImageDetail = detail
			return c, nil
		})
	}
}

// RenameChat sets a chat's title.
func RenameChat(chatIdx int, title string) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			c.Title = title
			return c, nil
		})
	}
}

// NewChat inserts a chat at the top of the list and makes it current.
func NewChat(c chat.Chat) Reducer {
	return func(s State) (State, error) {
		chats := make([]chat.Chat, 0, len(s.Chats)+1)
		chats = append(chats, c)
		s.Chats = append(chats, s.Chats...)
		s.Current = 0
		return s, nil
	}
}

// DeleteChat removes a chat. The current index keeps pointing at the same
// chat when possible.
func DeleteChat(chatIdx int) Reducer {
	return func(s State) (State, error) {
		if chatIdx < 0 || chatIdx >= len(s.Chats) {
			return s, fmt.Errorf("%w: index %d", ErrNoChat, chatIdx)
		}
		chats := make([]chat.Chat, 0, len(s.Chats)-1)
		chats = append(chats, s.Chats[:chatIdx]...)
		s.Chats = append(chats, s.Chats[chatIdx+1:]...)
		if s.Current > chatIdx {
			s.Current--
		}
		return s, nil
	}
}

// SelectChat makes chatIdx the current chat.
func SelectChat(chatIdx int) Reducer {
	return func(s State) (State, error) {
		if chatIdx < 0 || chatIdx >= len(s.Chats) {
			return s, fmt.Errorf("%w: index %d", ErrNoChat, chatIdx)
		}
		s.Current = chatIdx
		return s, nil
	}
}

// ForChat resolves the chat with the given ID at dispatch time and applies
// the reducer built for its index. Use it from long-running work, where
// chat indices may shift between snapshots.
func ForChat(id string, fn func(chatIdx int) Reducer) Reducer {
	return func(s State) (State, error) {
		for i, c := range s.Chats {
			if c.ID == id {
				return fn(i)(s)
			}
		}
		return s, fmt.Errorf("%w: id %s", ErrNoChat, id)
	}
}

// SetMessageText replaces the text of one message, keeping its attachments.
func SetMessageText(chatIdx, msgIdx int, text string) Reducer {
	return func(s State) (State, error) {
		return updateChat(s, chatIdx, func(c chat.Chat) (chat.Chat, error) {
			if err := checkMessage(c, msgIdx); err != nil {
				return c, err
			}
			c.Messages = cloneMessages(c.Messages, 0)
			c.Messages[msgIdx].Content = c.Messages[msgIdx].Content.SetText(text)
			return c, nil
		})
	}
}
