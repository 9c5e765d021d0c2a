package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout of a config file. Pointer fields
// distinguish "unset" from zero values so defaults survive.
type fileConfig struct {
	Theme        *string     `yaml:"theme"`
	HighContrast *bool       `yaml:"high_contrast"`
	LineNumbers  *bool       `yaml:"line_numbers"`
	TabSize      *int        `yaml:"tab_size"`
	Inline       *fileInline `yaml:"inline"`
	Colors       fileColors  `yaml:"colors"`
	Keybindings  Keybindings `yaml:"keybindings"`
}

type fileInline struct {
	Enabled       *bool    `yaml:"enabled"`
	Aligner       *string  `yaml:"aligner"`
	MaxTotalLines *int     `yaml:"max_total_lines"`
	MaxBlockLines *int     `yaml:"max_block_lines"`
	MaxLineLength *int     `yaml:"max_line_length"`
	Threshold     *float64 `yaml:"threshold"`
}

// fileColors overrides individual theme colors after the preset is applied.
type fileColors map[string]string

// Load reads a YAML config file and overlays it on DefaultConfig. Environment
// variables referenced as $VAR or ${VAR} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is like Load but returns DefaultConfig when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := fc.apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.HighContrast != nil {
		cfg.HighContrast = *fc.HighContrast
	}
	preset := cfg.ThemePreset
	if fc.Theme != nil {
		p, err := ParsePreset(*fc.Theme)
		if err != nil {
			return err
		}
		preset = p
	}
	cfg.SetPreset(preset)

	if err := fc.Colors.apply(&cfg.Theme); err != nil {
		return err
	}
	if fc.LineNumbers != nil {
		cfg.ShowLineNo = *fc.LineNumbers
	}
	if fc.TabSize != nil {
		cfg.TabSize = *fc.TabSize
	}
	if in := fc.Inline; in != nil {
		setIf(&cfg.Inline.Enabled, in.Enabled)
		setIf(&cfg.Inline.Aligner, in.Aligner)
		setIf(&cfg.Inline.MaxTotalLines, in.MaxTotalLines)
		setIf(&cfg.Inline.MaxBlockLines, in.MaxBlockLines)
		setIf(&cfg.Inline.MaxLineLength, in.MaxLineLength)
		setIf(&cfg.Inline.Threshold, in.Threshold)
	}
	if len(fc.Keybindings) > 0 {
		cfg.Keybindings = MergeKeybindings(fc.Keybindings)
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc fileColors) apply(t *Theme) error {
	for name, value := range fc {
		field := t.colorField(name)
		if field == nil {
			return fmt.Errorf("unknown color %q", name)
		}
		*field = lipgloss.Color(value)
	}
	return nil
}

func (t *Theme) colorField(name string) *lipgloss.Color {
	switch name {
	case "header":
		return &t.HeaderFg
	case "file_marker":
		return &t.FileMarkerFg
	case "hunk":
		return &t.HunkFg
	case "hunk_context":
		return &t.HunkContextFg
	case "meta_key":
		return &t.MetaKeyFg
	case "meta_value":
		return &t.MetaValueFg
	case "added_bg":
		return &t.AddedBg
	case "added_fg":
		return &t.AddedFg
	case "removed_bg":
		return &t.RemovedBg
	case "removed_fg":
		return &t.RemovedFg
	case "inline_added_bg":
		return &t.InlineAddedBg
	case "inline_removed_bg":
		return &t.InlineRemovedBg
	case "whitespace_bg":
		return &t.WhitespaceBg
	case "unchanged":
		return &t.UnchangedFg
	case "line_number":
		return &t.LineNumberFg
	case "border":
		return &t.BorderFg
	case "title_fg":
		return &t.TitleFg
	case "title_bg":
		return &t.TitleBg
	case "help":
		return &t.HelpFg
	default:
		return nil
	}
}
