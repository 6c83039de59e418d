package render

import (
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the color scheme of the TUI.
type Palette struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	Primary   lipgloss.Color // user messages, focused borders
	Secondary lipgloss.Color // assistant messages, success toasts
	Accent    lipgloss.Color // system messages, selection
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var palettes = []Palette{
	{
		Name:        "tokyonight",
		Description: "Tokyo Night, dark with blue accents",
		Surface:     lipgloss.Color("#24283b"),
		Border:      lipgloss.Color("#414868"),
		Primary:     lipgloss.Color("#7aa2f7"),
		Secondary:   lipgloss.Color("#9ece6a"),
		Accent:      lipgloss.Color("#bb9af7"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
		TextMute:    lipgloss.Color("#3b4261"),
	},
	{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha, warm pastels",
		Surface:     lipgloss.Color("#313244"),
		Border:      lipgloss.Color("#45475a"),
		Primary:     lipgloss.Color("#89b4fa"),
		Secondary:   lipgloss.Color("#a6e3a1"),
		Accent:      lipgloss.Color("#cba6f7"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
		TextMute:    lipgloss.Color("#45475a"),
	},
	{
		Name:        "nord",
		Description: "Nord, cool arctic tones",
		Surface:     lipgloss.Color("#3b4252"),
		Border:      lipgloss.Color("#4c566a"),
		Primary:     lipgloss.Color("#88c0d0"),
		Secondary:   lipgloss.Color("#a3be8c"),
		Accent:      lipgloss.Color("#b48ead"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
		TextMute:    lipgloss.Color("#4c566a"),
	},
	{
		Name:        "light",
		Description: "Light background terminals",
		Surface:     lipgloss.Color("#e9e9ed"),
		Border:      lipgloss.Color("#a8aecb"),
		Primary:     lipgloss.Color("#2e7de9"),
		Secondary:   lipgloss.Color("#587539"),
		Accent:      lipgloss.Color("#9854f1"),
		Warning:     lipgloss.Color("#8c6c3e"),
		Error:       lipgloss.Color("#c64343"),
		Text:        lipgloss.Color("#3760bf"),
		TextDim:     lipgloss.Color("#6172b0"),
		TextMute:    lipgloss.Color("#a1a6c5"),
	},
}

var current atomic.Pointer[Palette]

func init() {
	p := palettes[0]
	current.Store(&p)
}

// CurrentPalette returns the active palette.
func CurrentPalette() Palette {
	return *current.Load()
}

// SetPalette activates the palette with the given name. Unknown names keep
// the active palette and return false.
func SetPalette(name string) bool {
	p, ok := PaletteByName(name)
	if !ok {
		return false
	}
	current.Store(&p)
	return true
}

// PaletteByName looks up a palette.
func PaletteByName(name string) (Palette, bool) {
	for _, p := range palettes {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// PaletteNames lists the palettes in display order.
func PaletteNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}
