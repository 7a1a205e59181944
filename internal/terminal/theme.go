package terminal

import "strings"

// Theme is a terminal color palette.
type Theme struct {
	Name       string
	Background string
	Foreground string
	Cursor     string
	// ANSI holds the 8 normal colors followed by the 8 bright ones.
	ANSI [16]string
}

var themes = map[string]Theme{
	"tokyo-night": {
		Name:       "tokyo-night",
		Background: "#1a1b26",
		Foreground: "#c0caf5",
		Cursor:     "#c0caf5",
		ANSI: [16]string{
			"#15161e", "#f7768e", "#9ece6a", "#e0af68", "#7aa2f7", "#bb9af7", "#7dcfff", "#a9b1d6",
			"#414868", "#f7768e", "#9ece6a", "#e0af68", "#7aa2f7", "#bb9af7", "#7dcfff", "#c0caf5",
		},
	},
	"gruvbox": {
		Name:       "gruvbox",
		Background: "#282828",
		Foreground: "#ebdbb2",
		Cursor:     "#ebdbb2",
		ANSI: [16]string{
			"#282828", "#cc241d", "#98971a", "#d79921", "#458588", "#b16286", "#689d6a", "#a89984",
			"#928374", "#fb4934", "#b8bb26", "#fabd2f", "#83a598", "#d3869b", "#8ec07c", "#ebdbb2",
		},
	},
	"catppuccin": {
		Name:       "catppuccin",
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Cursor:     "#f5e0dc",
		ANSI: [16]string{
			"#45475a", "#f38ba8", "#a6e3a1", "#f9e2af", "#89b4fa", "#f5c2e7", "#94e2d5", "#bac2de",
			"#585b70", "#f38ba8", "#a6e3a1", "#f9e2af", "#89b4fa", "#f5c2e7", "#94e2d5", "#a6adc8",
		},
	},
}

var themeAliases = map[string]string{
	"tokyo_night":      "tokyo-night",
	"tokyonight":       "tokyo-night",
	"gruvbox-dark":     "gruvbox",
	"catppuccin-mocha": "catppuccin",
}

// ThemeByName looks a theme up case-insensitively. Unknown names return
// tokyo-night and false.
func ThemeByName(name string) (Theme, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := themeAliases[key]; ok {
		key = alias
	}
	if t, ok := themes[key]; ok {
		return t, true
	}
	return themes["tokyo-night"], false
}

// ThemeNames returns the canonical theme names.
func ThemeNames() []string {
	return []string{"catppuccin", "gruvbox", "tokyo-night"}
}
