package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diogo/chatdeck/internal/api"
	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/config"
	"github.com/diogo/chatdeck/internal/ingest"
	"github.com/diogo/chatdeck/internal/logging"
	"github.com/diogo/chatdeck/internal/models"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
	"github.com/diogo/chatdeck/internal/storage"
	"github.com/diogo/chatdeck/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	Run(ctx context.Context, deps tui.Deps) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// TUI is the terminal user interface.
	TUI TUIInterface

	// NewHTTPClient builds the client used for the model descriptor,
	// link probes and attachment downloads.
	NewHTTPClient func() (api.HTTPDoer, error)

	// NewCompleter builds the chat completions client.
	NewCompleter func(cfg config.Config, hc api.HTTPDoer, log *slog.Logger) (api.Completer, error)

	// Clipboard receives copied text; nil means the system clipboard.
	Clipboard compose.Clipboard
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) Run(ctx context.Context, deps tui.Deps) error {
	return tui.Run(ctx, deps)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
		NewHTTPClient: func() (api.HTTPDoer, error) {
			return api.NewHTTPClient(300)
		},
		NewCompleter: func(cfg config.Config, hc api.HTTPDoer, log *slog.Logger) (api.Completer, error) {
			c, err := api.NewClient(cfg.APIKey(),
				api.WithHTTPClient(hc),
				api.WithBaseURL(cfg.APIBaseURL),
				api.WithLogger(log),
			)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// deps is swapped by tests.
var deps = NewDependencies()

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
	store    *state.Store
}

// openApp loads the configuration, the log file and the chat store. With
// ephemeral set, chats start empty and are never written to disk.
func openApp(ephemeral bool) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	dir, err := config.EnsureDataDir()
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logging.New(logging.Options{Dir: dir, Verbose: cfg.Verbose})
	if err != nil {
		return nil, err
	}

	var backend state.Backend
	if ephemeral {
		backend = storage.NewMemoryBackend(cfg.StorageQuotaBytes)
	} else {
		fb, err := storage.NewFileBackend(dir, cfg.StorageQuotaBytes, log)
		if err != nil {
			_ = closeLog()
			return nil, err
		}
		backend = fb
	}

	store, err := state.NewStore(backend, log)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		store:    store,
	}, nil
}

func (a *app) Close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// model returns the model to use: the --model flag, which must exist in
// reg, or the configured default when reg knows it.
func (a *app) model(reg *models.Registry) (string, error) {
	if modelFlag != "" {
		if !reg.Has(modelFlag) {
			return "", fmt.Errorf("unknown model %q (see 'chatdeck models')", modelFlag)
		}
		return modelFlag, nil
	}
	for _, m := range []string{a.cfg.DefaultModel, models.DefaultModel} {
		if m != "" && reg.Has(m) {
			return m, nil
		}
	}
	if opts := reg.Options(); len(opts) > 0 {
		return opts[0], nil
	}
	return "", fmt.Errorf("no models available")
}

// newChat builds an empty chat for model.
func (a *app) newChat(reg *models.Registry, model string) chat.Chat {
	return chat.New(chat.DefaultConfig(model, reg.FindProvider(model)), a.cfg.ImageDetail)
}

// services are the networked collaborators, built only by commands that
// talk to a provider.
type services struct {
	http      api.HTTPDoer
	registry  *models.Registry
	ingestor  *ingest.Ingestor
	completer api.Completer
	// completerErr is kept so the TUI can still open without an API key.
	completerErr error
}

func (a *app) services(ctx context.Context) (*services, error) {
	hc, err := deps.NewHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	s := &services{
		http:     hc,
		registry: models.LoadOrFallback(ctx, a.cfg.ModelsURL, hc, a.log),
		ingestor: ingest.New(ingest.WithHTTPClient(hc), ingest.WithLogger(a.log)),
	}
	s.completer, s.completerErr = deps.NewCompleter(a.cfg, hc, a.log)
	return s, nil
}

// generator wraps the completer, or a stand-in that reports why there is
// none, in an api.Generator notifying n.
func (a *app) generator(s *services, n notify.Notifier) *api.Generator {
	completer := s.completer
	if completer == nil {
		completer = failingCompleter{err: s.completerErr}
	}
	return api.NewGenerator(a.store, completer,
		api.WithRegistry(s.registry),
		api.WithNotifier(notify.Fanout{notify.NewLogger(a.log), n}),
		api.WithGeneratorLogger(a.log),
	)
}

type failingCompleter struct {
	err error
}

func (f failingCompleter) Complete(context.Context, *api.Request, func(string)) (string, error) {
	if f.err == nil {
		return "", fmt.Errorf("no completions client")
	}
	return "", f.err
}
