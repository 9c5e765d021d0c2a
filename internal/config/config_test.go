package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, highlight.DefaultLimits(), cfg.Inline.Limits())
	assert.True(t, cfg.Inline.Enabled)
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("dracula")
	require.NoError(t, err)
	assert.Equal(t, PresetDracula, p)

	p, err = ParsePreset("")
	require.NoError(t, err)
	assert.Equal(t, PresetDefault, p)

	_, err = ParsePreset("neon")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestThemeForPreset_HighContrast(t *testing.T) {
	base := ThemeForPreset(PresetDefault, false)
	bright := ThemeForPreset(PresetDefault, true)
	assert.Equal(t, lipgloss.Color("#666666"), base.LineNumberFg)
	assert.Equal(t, lipgloss.Color("#7a7a7a"), bright.LineNumberFg)
	assert.Equal(t, "#ffffff", adjustBrightness("#FFFFFF", 0.5))
	assert.Equal(t, "red", adjustBrightness("red", 0.5))
}

func TestMergeKeybindings(t *testing.T) {
	kb := MergeKeybindings(Keybindings{"quit": {"x"}, "reload": nil})
	assert.Equal(t, []string{"x"}, kb["quit"])
	assert.Equal(t, []string{"r"}, kb["reload"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "default", mutate: func(*Config) {}, ok: true},
		{name: "unknown preset", mutate: func(c *Config) { c.ThemePreset = "neon" }},
		{name: "zero tab size", mutate: func(c *Config) { c.TabSize = 0 }},
		{name: "threshold too high", mutate: func(c *Config) { c.Inline.Threshold = 1.5 }},
		{name: "unknown aligner", mutate: func(c *Config) { c.Inline.Aligner = "patience" }},
		{name: "disabled guardrails", mutate: func(c *Config) { c.Inline.MaxTotalLines = -1; c.Inline.MaxBlockLines = -1 }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestInlineConfig_NewSpanComputer(t *testing.T) {
	cfg := DefaultConfig()

	sc, err := cfg.Inline.NewSpanComputer()
	require.NoError(t, err)
	require.NotNil(t, sc)

	cfg.Inline.Enabled = false
	sc, err = cfg.Inline.NewSpanComputer()
	require.NoError(t, err)
	assert.Nil(t, sc)

	cfg.Inline.Enabled = true
	cfg.Inline.Threshold = -1
	_, err = cfg.Inline.NewSpanComputer()
	require.ErrorIs(t, err, highlight.ErrInvalidThreshold)
}

func TestParse(t *testing.T) {
	t.Setenv("DIFFLIGHT_TEST_THRESHOLD", "0.75")

	cfg, err := Parse([]byte(`
theme: solarized
line_numbers: false
tab_size: 2
inline:
  aligner: myers
  max_block_lines: -1
  threshold: ${DIFFLIGHT_TEST_THRESHOLD}
colors:
  inline_added_bg: "#123456"
keybindings:
  quit: [x]
`))
	require.NoError(t, err)

	assert.Equal(t, PresetSolarize, cfg.ThemePreset)
	assert.False(t, cfg.ShowLineNo)
	assert.Equal(t, 2, cfg.TabSize)
	assert.Equal(t, AlignerMyers, cfg.Inline.Aligner)
	assert.Equal(t, -1, cfg.Inline.MaxBlockLines)
	assert.Equal(t, 10000, cfg.Inline.MaxTotalLines)
	assert.InDelta(t, 0.75, cfg.Inline.Threshold, 1e-9)
	assert.Equal(t, lipgloss.Color("#123456"), cfg.Theme.InlineAddedBg)
	assert.Equal(t, lipgloss.Color("#859900"), cfg.Theme.AddedFg)
	assert.Equal(t, []string{"x"}, cfg.Keybindings["quit"])
	assert.Equal(t, []string{"j", "down"}, cfg.Keybindings["scroll_down"])
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "colour: red\n",
		"unknown preset":    "theme: neon\n",
		"unknown color":     "colors:\n  sparkle: \"#fff\"\n",
		"invalid threshold": "inline:\n  threshold: 2\n",
		"malformed":         "theme: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "difflight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: dracula\nhigh_contrast: true\n"), 0o644))
	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, PresetDracula, cfg.ThemePreset)
	assert.Equal(t, ThemeForPreset(PresetDracula, true), cfg.Theme)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
