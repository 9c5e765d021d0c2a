package config

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/highlight"
)

// ErrUnknownPreset is returned for a theme preset name that does not exist.
var ErrUnknownPreset = errors.New("unknown theme preset")

// Config holds the application configuration
type Config struct {
	Theme        Theme
	ThemePreset  ThemePreset
	HighContrast bool
	ShowLineNo   bool
	TabSize      int
	Inline       InlineConfig
	Spacing      SpacingOptions
	Keybindings  Keybindings
}

// ThemePreset describes a named theme configuration.
type ThemePreset string

const (
	PresetDefault  ThemePreset = "default"
	PresetSolarize ThemePreset = "solarized"
	PresetDracula  ThemePreset = "dracula"
)

// ParsePreset resolves a preset name.
func ParsePreset(name string) (ThemePreset, error) {
	switch p := ThemePreset(name); p {
	case PresetDefault, PresetSolarize, PresetDracula:
		return p, nil
	case "":
		return PresetDefault, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Aligner names accepted in InlineConfig.Aligner.
const (
	AlignerSequence = "sequence"
	AlignerMyers    = "myers"
)

// InlineConfig controls intra-line highlighting. Negative limits disable the
// corresponding guardrail.
type InlineConfig struct {
	Enabled       bool
	Aligner       string
	MaxTotalLines int
	MaxBlockLines int
	MaxLineLength int
	Threshold     float64
}

// Limits converts the inline settings to highlight limits.
func (c InlineConfig) Limits() highlight.Limits {
	return highlight.Limits{
		MaxTotalLines: c.MaxTotalLines,
		MaxBlockLines: c.MaxBlockLines,
		MaxLineLength: c.MaxLineLength,
		Threshold:     c.Threshold,
	}
}

// NewSpanComputer builds the span computer described by c. It returns nil
// without error when inline highlighting is disabled.
func (c InlineConfig) NewSpanComputer() (*highlight.SpanComputer, error) {
	if !c.Enabled {
		return nil, nil
	}
	var aligner highlight.Aligner
	switch c.Aligner {
	case "", AlignerSequence:
		aligner = highlight.SequenceAligner{}
	case AlignerMyers:
		aligner = highlight.MyersAligner{}
	default:
		return nil, fmt.Errorf("unknown aligner %q", c.Aligner)
	}
	return highlight.NewSpanComputer(c.Limits(), highlight.WithAligner(aligner))
}

// SpacingOptions controls layout spacing and line number formatting.
type SpacingOptions struct {
	LineNumberWidth int
}

// Keybindings maps semantic actions to one or more key sequences.
type Keybindings map[string][]string

// Theme defines the color scheme for the application
type Theme struct {
	HeaderFg        lipgloss.Color
	FileMarkerFg    lipgloss.Color
	HunkFg          lipgloss.Color
	HunkContextFg   lipgloss.Color
	MetaKeyFg       lipgloss.Color
	MetaValueFg     lipgloss.Color
	AddedBg         lipgloss.Color
	AddedFg         lipgloss.Color
	RemovedBg       lipgloss.Color
	RemovedFg       lipgloss.Color
	InlineAddedBg   lipgloss.Color
	InlineRemovedBg lipgloss.Color
	WhitespaceBg    lipgloss.Color
	UnchangedFg     lipgloss.Color
	LineNumberFg    lipgloss.Color
	BorderFg        lipgloss.Color
	TitleFg         lipgloss.Color
	TitleBg         lipgloss.Color
	HelpFg          lipgloss.Color
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	limits := highlight.DefaultLimits()
	return &Config{
		ThemePreset:  PresetDefault,
		Theme:        ThemeForPreset(PresetDefault, false),
		HighContrast: false,
		ShowLineNo:   true,
		TabSize:      4,
		Inline: InlineConfig{
			Enabled:       true,
			Aligner:       AlignerSequence,
			MaxTotalLines: limits.MaxTotalLines,
			MaxBlockLines: limits.MaxBlockLines,
			MaxLineLength: limits.MaxLineLength,
			Threshold:     limits.Threshold,
		},
		Spacing:     DefaultSpacing(),
		Keybindings: DefaultKeybindings(),
	}
}

// Validate checks settings that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := ParsePreset(string(c.ThemePreset)); err != nil {
		return err
	}
	if c.TabSize < 1 {
		return fmt.Errorf("tab size must be positive, got %d", c.TabSize)
	}
	if err := c.Inline.Limits().Validate(); err != nil {
		return fmt.Errorf("inline: %w", err)
	}
	switch c.Inline.Aligner {
	case "", AlignerSequence, AlignerMyers:
	default:
		return fmt.Errorf("inline: unknown aligner %q", c.Inline.Aligner)
	}
	return nil
}

// SetPreset switches to preset and recomputes the theme.
func (c *Config) SetPreset(preset ThemePreset) {
	c.ThemePreset = preset
	c.Theme = ThemeForPreset(preset, c.HighContrast)
}

// DefaultTheme returns the default color theme
func DefaultTheme() Theme {
	return Theme{
		HeaderFg:        lipgloss.Color("#FFFFFF"),
		FileMarkerFg:    lipgloss.Color("#E0E0E0"),
		HunkFg:          lipgloss.Color("#5FAFD7"),
		HunkContextFg:   lipgloss.Color("#87AFAF"),
		MetaKeyFg:       lipgloss.Color("#D7AF5F"),
		MetaValueFg:     lipgloss.Color("#D0D0D0"),
		AddedBg:         lipgloss.Color("#2D4A2B"),
		AddedFg:         lipgloss.Color("#A8E6A3"),
		RemovedBg:       lipgloss.Color("#4A2D2D"),
		RemovedFg:       lipgloss.Color("#E6A3A3"),
		InlineAddedBg:   lipgloss.Color("#3F7A3B"),
		InlineRemovedBg: lipgloss.Color("#7A3B3B"),
		WhitespaceBg:    lipgloss.Color("#AF0000"),
		UnchangedFg:     lipgloss.Color("#B0B0B0"),
		LineNumberFg:    lipgloss.Color("#666666"),
		BorderFg:        lipgloss.Color("#3A3A3A"),
		TitleFg:         lipgloss.Color("#FFFFFF"),
		TitleBg:         lipgloss.Color("#5F5FAF"),
		HelpFg:          lipgloss.Color("#888888"),
	}
}

// ThemeForPreset resolves a preset name to a concrete Theme, optionally
// applying a high-contrast variation.
func ThemeForPreset(preset ThemePreset, highContrast bool) Theme {
	switch preset {
	case PresetSolarize:
		return applyContrast(Theme{
			HeaderFg:        lipgloss.Color("#EEE8D5"),
			FileMarkerFg:    lipgloss.Color("#93A1A1"),
			HunkFg:          lipgloss.Color("#268BD2"),
			HunkContextFg:   lipgloss.Color("#2AA198"),
			MetaKeyFg:       lipgloss.Color("#B58900"),
			MetaValueFg:     lipgloss.Color("#93A1A1"),
			AddedBg:         lipgloss.Color("#073642"),
			AddedFg:         lipgloss.Color("#859900"),
			RemovedBg:       lipgloss.Color("#3C1F1E"),
			RemovedFg:       lipgloss.Color("#DC322F"),
			InlineAddedBg:   lipgloss.Color("#2E5A1C"),
			InlineRemovedBg: lipgloss.Color("#6B2423"),
			WhitespaceBg:    lipgloss.Color("#D33682"),
			UnchangedFg:     lipgloss.Color("#93A1A1"),
			LineNumberFg:    lipgloss.Color("#586E75"),
			BorderFg:        lipgloss.Color("#657B83"),
			TitleFg:         lipgloss.Color("#EEE8D5"),
			TitleBg:         lipgloss.Color("#586E75"),
			HelpFg:          lipgloss.Color("#93A1A1"),
		}, highContrast)
	case PresetDracula:
		return applyContrast(Theme{
			HeaderFg:        lipgloss.Color("#F8F8F2"),
			FileMarkerFg:    lipgloss.Color("#F8F8F2"),
			HunkFg:          lipgloss.Color("#8BE9FD"),
			HunkContextFg:   lipgloss.Color("#6272A4"),
			MetaKeyFg:       lipgloss.Color("#F1FA8C"),
			MetaValueFg:     lipgloss.Color("#F8F8F2"),
			AddedBg:         lipgloss.Color("#244443"),
			AddedFg:         lipgloss.Color("#50FA7B"),
			RemovedBg:       lipgloss.Color("#402036"),
			RemovedFg:       lipgloss.Color("#FF79C6"),
			InlineAddedBg:   lipgloss.Color("#2F6B4F"),
			InlineRemovedBg: lipgloss.Color("#6B2F58"),
			WhitespaceBg:    lipgloss.Color("#FF5555"),
			UnchangedFg:     lipgloss.Color("#F8F8F2"),
			LineNumberFg:    lipgloss.Color("#6272A4"),
			BorderFg:        lipgloss.Color("#44475A"),
			TitleFg:         lipgloss.Color("#F8F8F2"),
			TitleBg:         lipgloss.Color("#6272A4"),
			HelpFg:          lipgloss.Color("#BD93F9"),
		}, highContrast)
	default:
		return applyContrast(DefaultTheme(), highContrast)
	}
}

// DefaultSpacing returns the default layout spacing configuration.
func DefaultSpacing() SpacingOptions {
	return SpacingOptions{LineNumberWidth: 5}
}

// DefaultKeybindings returns the built-in keybinding map.
func DefaultKeybindings() Keybindings {
	return Keybindings{
		"quit":                {"ctrl+c", "q"},
		"toggle_help":         {"?", "h"},
		"toggle_stats":        {"s"},
		"toggle_inline":       {"i"},
		"toggle_color":        {"c"},
		"toggle_line_numbers": {"ctrl+n"},
		"next_hunk":           {"n"},
		"prev_hunk":           {"N"},
		"scroll_down":         {"j", "down"},
		"scroll_up":           {"k", "up"},
		"page_down":           {"d", "pgdown"},
		"page_up":             {"u", "pgup"},
		"go_top":              {"g", "home"},
		"go_bottom":           {"G", "end"},
		"next_tab":            {"tab"},
		"prev_tab":            {"shift+tab"},
		"reload":              {"r"},
	}
}

// MergeKeybindings overlays user overrides onto defaults.
func MergeKeybindings(overrides Keybindings) Keybindings {
	defaults := DefaultKeybindings()
	for action, keys := range overrides {
		if len(keys) == 0 {
			continue
		}
		defaults[action] = keys
	}
	return defaults
}

func applyContrast(theme Theme, highContrast bool) Theme {
	if !highContrast {
		return theme
	}

	return Theme{
		HeaderFg:        lipgloss.Color(adjustBrightness(string(theme.HeaderFg), 0.2)),
		FileMarkerFg:    lipgloss.Color(adjustBrightness(string(theme.FileMarkerFg), 0.2)),
		HunkFg:          lipgloss.Color(adjustBrightness(string(theme.HunkFg), 0.25)),
		HunkContextFg:   lipgloss.Color(adjustBrightness(string(theme.HunkContextFg), 0.2)),
		MetaKeyFg:       lipgloss.Color(adjustBrightness(string(theme.MetaKeyFg), 0.25)),
		MetaValueFg:     lipgloss.Color(adjustBrightness(string(theme.MetaValueFg), 0.2)),
		AddedBg:         lipgloss.Color(adjustBrightness(string(theme.AddedBg), 0.15)),
		AddedFg:         lipgloss.Color(adjustBrightness(string(theme.AddedFg), 0.25)),
		RemovedBg:       lipgloss.Color(adjustBrightness(string(theme.RemovedBg), 0.15)),
		RemovedFg:       lipgloss.Color(adjustBrightness(string(theme.RemovedFg), 0.25)),
		InlineAddedBg:   lipgloss.Color(adjustBrightness(string(theme.InlineAddedBg), 0.3)),
		InlineRemovedBg: lipgloss.Color(adjustBrightness(string(theme.InlineRemovedBg), 0.3)),
		WhitespaceBg:    lipgloss.Color(adjustBrightness(string(theme.WhitespaceBg), 0.2)),
		UnchangedFg:     lipgloss.Color(adjustBrightness(string(theme.UnchangedFg), 0.2)),
		LineNumberFg:    lipgloss.Color(adjustBrightness(string(theme.LineNumberFg), 0.2)),
		BorderFg:        lipgloss.Color(adjustBrightness(string(theme.BorderFg), 0.2)),
		TitleFg:         lipgloss.Color(adjustBrightness(string(theme.TitleFg), 0.2)),
		TitleBg:         lipgloss.Color(adjustBrightness(string(theme.TitleBg), 0.2)),
		HelpFg:          lipgloss.Color(adjustBrightness(string(theme.HelpFg), 0.2)),
	}
}

func adjustBrightness(hex string, factor float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}

	var r, g, b int
	_, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return hex
	}

	boost := func(value int) int {
		adjusted := float64(value) * (1 + factor)
		if adjusted > 255 {
			adjusted = 255
		}
		return int(adjusted)
	}

	return fmt.Sprintf("#%02x%02x%02x", boost(r), boost(g), boost(b))
}
