package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/models"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

// DefaultFlushInterval is how often streamed text is written to the store.
const DefaultFlushInterval = 100 * time.Millisecond

// Generator streams an assistant response to the current chat into the
// store. It implements compose.Submitter.
type Generator struct {
	store     *state.Store
	completer Completer
	registry  *models.Registry
	notifier  notify.Notifier
	log       *slog.Logger
	flush     time.Duration
	now       func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRegistry sets the registry consulted for stream support.
func WithRegistry(r *models.Registry) GeneratorOption {
	return func(g *Generator) {
		g.registry = r
	}
}

// WithNotifier sets where generation failures are reported.
func WithNotifier(n notify.Notifier) GeneratorOption {
	return func(g *Generator) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithGeneratorLogger sets the generator logger.
func WithGeneratorLogger(log *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithFlushInterval sets the minimum delay between streamed store updates.
func WithFlushInterval(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.flush = d
	}
}

// NewGenerator creates a Generator.
func NewGenerator(store *state.Store, completer Completer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		store:     store,
		completer: completer,
		notifier:  notify.Discard,
		log:       slog.Default(),
		flush:     DefaultFlushInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ compose.Submitter = (*Generator)(nil)

// Submit generates a response for the current chat. It returns
// compose.ErrGenerating when another generation is running.
func (g *Generator) Submit(ctx context.Context) error {
	if !g.store.TryStartGenerating() {
		return compose.ErrGenerating
	}
	defer g.store.StopGenerating()

	c, ok := g.store.Snapshot().CurrentChat()
	if !ok {
		return compose.ErrNoChat
	}

	stream := true
	if g.registry != nil {
		stream = g.registry.StreamSupported(c.Config.Model)
	}
	req := NewRequest(c, stream)
	if len(req.Messages) == 0 {
		return fmt.Errorf("chat %s has no messages to send", c.ID)
	}

	if err := g.store.Dispatch(state.ForChat(c.ID, func(i int) state.Reducer {
		return state.AppendMessage(i, chat.NewMessage(chat.Assistant, ""))
	})); err != nil {
		notify.Errorn(g.notifier, fmt.Sprintf("Could not start response: %v", err))
		return fmt.Errorf("failed to add assistant message: %w", err)
	}

	g.log.Info("generation started", "chat", c.ID, "model", c.Config.Model, "stream", stream)
	start := g.now()

	var sb strings.Builder
	lastFlush := start
	text, err := g.completer.Complete(ctx, req, func(delta string) {
		sb.WriteString(delta)
		if now := g.now(); now.Sub(lastFlush) >= g.flush {
			lastFlush = now
			if derr := g.store.Dispatch(setLastText(c.ID, sb.String())); derr != nil {
				g.log.Warn("failed to store partial response", "chat", c.ID, "error", derr)
			}
		}
	})
	if text == "" {
		text = sb.String()
	}

	if err != nil {
		return g.fail(ctx, c.ID, text, err)
	}

	if derr := g.store.Dispatch(setLastText(c.ID, text)); derr != nil {
		notify.Errorn(g.notifier, fmt.Sprintf("Could not save response: %v", derr))
		return fmt.Errorf("failed to store response: %w", derr)
	}
	g.log.Info("generation finished", "chat", c.ID, "chars", len(text), "elapsed", g.now().Sub(start))
	return nil
}

// fail keeps any partial text, or removes the empty placeholder, and
// reports the error.
func (g *Generator) fail(ctx context.Context, chatID, partial string, err error) error {
	var r state.Reducer
	if partial == "" {
		r = state.ForChat(chatID, dropEmptyAssistant)
	} else {
		r = setLastText(chatID, partial)
	}
	if derr := g.store.Dispatch(r); derr != nil {
		g.log.Warn("failed to clean up after generation error", "chat", chatID, "error", derr)
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		g.log.Info("generation cancelled", "chat", chatID)
		notify.Infon(g.notifier, "Generation stopped")
		return err
	}

	g.log.Error("generation failed", "chat", chatID, "error", err)
	notify.Errorn(g.notifier, fmt.Sprintf("Generation failed: %v", err))
	return err
}

// setLastText writes text into the chat's last message when it is from the
// assistant.
func setLastText(chatID, text string) state.Reducer {
	return state.ForChat(chatID, func(i int) state.Reducer {
		return func(s state.State) (state.State, error) {
			c := s.Chats[i]
			last := c.LastIndex()
			if last < 0 || c.Messages[last].Role != chat.Assistant {
				return s, fmt.Errorf("%w: no assistant message to update", state.ErrNoMessage)
			}
			return state.SetMessageText(i, last, text)(s)
		}
	})
}

func dropEmptyAssistant(i int) state.Reducer {
	return func(s state.State) (state.State, error) {
		c := s.Chats[i]
		last := c.LastIndex()
		if last < 0 || c.Messages[last].Role != chat.Assistant || !c.Messages[last].Content.IsEmpty() {
			return s, nil
		}
		return state.DropLastMessage(i)(s)
	}
}
