// Package models loads the model descriptor and answers capability
// questions about models and providers.
package models

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/diogo/chatdeck/internal/errors"
)

//go:embed fallback.json
var fallbackDescriptor []byte

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gpt-4o"

// Capability is the input modality a model accepts.
type Capability string

const (
	CapabilityText  Capability = "text"
	CapabilityImage Capability = "image"
)

// Price is a cost per unit of tokens (or per image).
type Price struct {
	Price float64
	Unit  int
}

// Cost holds the prices of a model.
type Cost struct {
	Prompt     Price
	Completion Price
	Image      Price
}

// Model is one entry of the descriptor.
type Model struct {
	ID                  string // last path segment of FullID
	FullID              string
	Name                string
	Provider            string
	MaxContext          int
	MaxCompletionTokens int
	Modality            string
	Capability          Capability
	Cost                Cost
	StreamSupported     bool
}

// Registry is an immutable view of a model descriptor.
type Registry struct {
	order      []string
	byID       map[string]Model
	providers  []string
	byProvider map[string][]string
}

// Parse builds a registry from descriptor JSON of the form
// {"data": [{id, name, provider, pricing, context_length, ...}]}.
func Parse(data []byte) (*Registry, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.NewParseError("invalid model descriptor JSON", "data")
	}
	list := gjson.GetBytes(data, "data")
	if !list.IsArray() {
		return nil, apperrors.NewParseError("model descriptor has no data array", "data")
	}

	r := &Registry{
		byID:       make(map[string]Model),
		byProvider: make(map[string][]string),
	}

	list.ForEach(func(_, entry gjson.Result) bool {
		m, ok := parseModel(entry)
		if !ok {
			return true
		}
		if _, seen := r.byID[m.ID]; !seen {
			r.order = append(r.order, m.ID)
		}
		r.byID[m.ID] = m

		if _, seen := r.byProvider[m.Provider]; !seen {
			r.providers = append(r.providers, m.Provider)
		}
		r.byProvider[m.Provider] = append(r.byProvider[m.Provider], m.ID)
		return true
	})

	if len(r.order) == 0 {
		return nil, apperrors.NewParseError("model descriptor lists no models", "data")
	}
	return r, nil
}

func parseModel(entry gjson.Result) (Model, bool) {
	fullID := entry.Get("id").String()
	if fullID == "" {
		return Model{}, false
	}
	id := fullID[strings.LastIndex(fullID, "/")+1:]
	if id == "" {
		return Model{}, false
	}

	provider := entry.Get("provider").String()
	if provider == "" {
		if prefix, _, ok := strings.Cut(fullID, "/"); ok {
			provider = prefix
		} else {
			provider = "Other"
		}
	}

	m := Model{
		ID:                  id,
		FullID:              fullID,
		Name:                entry.Get("name").String(),
		Provider:            provider,
		MaxContext:          int(entry.Get("context_length").Int()),
		MaxCompletionTokens: int(entry.Get("top_provider.max_completion_tokens").Int()),
		Modality:            entry.Get("architecture.modality").String(),
		Capability:          CapabilityText,
		Cost: Cost{
			Prompt:     Price{Price: priceOf(entry, "pricing.prompt"), Unit: 1},
			Completion: Price{Price: priceOf(entry, "pricing.completion"), Unit: 1},
			Image:      Price{Price: 0, Unit: 1},
		},
		StreamSupported: !strings.Contains(id, "o1-"),
	}
	if img := priceOf(entry, "pricing.image"); img > 0 {
		m.Capability = CapabilityImage
		m.Cost.Image.Price = img
	}
	return m, true
}

// priceOf reads a price that may be encoded as a string or a number.
func priceOf(entry gjson.Result, path string) float64 {
	return entry.Get(path).Float()
}

// Fallback returns the built-in registry.
func Fallback() *Registry {
	r, err := Parse(fallbackDescriptor)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in model descriptor: %v", err))
	}
	return r
}

// Options returns every model ID in descriptor order.
func (r *Registry) Options() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of distinct model IDs.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns the model with the given ID.
func (r *Registry) Get(id string) (Model, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Has reports whether id is a known model.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Providers returns provider names in first-seen order.
func (r *Registry) Providers() []string {
	return append([]string(nil), r.providers...)
}

// ModelsFor returns the models of a provider in descriptor order.
func (r *Registry) ModelsFor(provider string) []string {
	return append([]string(nil), r.byProvider[provider]...)
}

// FindProvider returns the provider listing model, or the first provider
// when no provider does.
func (r *Registry) FindProvider(model string) string {
	for _, p := range r.providers {
		for _, id := range r.byProvider[p] {
			if id == model {
				return p
			}
		}
	}
	if len(r.providers) == 0 {
		return ""
	}
	return r.providers[0]
}

// MaxContext returns the context window of a model, or 0 when unknown.
func (r *Registry) MaxContext(id string) int {
	return r.byID[id].MaxContext
}

// Capability returns the input capability of a model. Unknown models are
// text-only.
func (r *Registry) Capability(id string) Capability {
	if m, ok := r.byID[id]; ok {
		return m.Capability
	}
	return CapabilityText
}

// SupportsImages reports whether a model accepts image input.
func (r *Registry) SupportsImages(id string) bool {
	return r.Capability(id) == CapabilityImage
}

// StreamSupported reports whether responses for a model can be streamed.
// Unknown models are assumed to stream.
func (r *Registry) StreamSupported(id string) bool {
	if m, ok := r.byID[id]; ok {
		return m.StreamSupported
	}
	return true
}

// DisplayName returns the name shown for a model in selectors.
func (r *Registry) DisplayName(id string) string {
	return id
}
