// Package config loads alignment settings from YAML files.
//
// Every key is optional; missing keys keep the defaults of
// alignment.DefaultScoring, depth 4 and global alignment.
//
//	mismatch: -1
//	mass_mismatch: -1
//	mass_base: 1
//	rotated: 3
//	isobaric: 2
//	gap_open: -5
//	gap_extend: -1
//	matrix: blosum62
//	tolerance: 10ppm
//	mass_mode: monoisotopic
//	pair_mode: same
//	depth: 4
//	type: global
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
)

// DefaultDepth is the maximal step size used when none is configured.
const DefaultDepth = 4

// Config is the full set of alignment settings.
type Config struct {
	Scoring alignment.Scoring
	Depth   int
	Type    alignment.AlignType
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{Scoring: alignment.DefaultScoring(), Depth: DefaultDepth, Type: alignment.Global}
}

// file mirrors the YAML layout. Pointers tell a missing key from a zero value.
type file struct {
	Mismatch     *int    `yaml:"mismatch"`
	MassMismatch *int    `yaml:"mass_mismatch"`
	MassBase     *int    `yaml:"mass_base"`
	Rotated      *int    `yaml:"rotated"`
	Isobaric     *int    `yaml:"isobaric"`
	GapOpen      *int    `yaml:"gap_open"`
	GapExtend    *int    `yaml:"gap_extend"`
	Matrix       *string `yaml:"matrix"`
	Tolerance    *string `yaml:"tolerance"`
	MassMode     *string `yaml:"mass_mode"`
	PairMode     *string `yaml:"pair_mode"`
	Depth        *int    `yaml:"depth"`
	Type         *string `yaml:"type"`
}

// Load reads settings from a YAML file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Read parses settings from YAML. Unknown keys are rejected.
func Read(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var raw file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return raw.apply(Default())
}

func (f *file) apply(cfg Config) (Config, error) {
	s := &cfg.Scoring
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&s.Mismatch, f.Mismatch)
	setInt(&s.MassMismatch, f.MassMismatch)
	setInt(&s.MassBase, f.MassBase)
	setInt(&s.Rotated, f.Rotated)
	setInt(&s.Isobaric, f.Isobaric)
	setInt(&s.GapOpen, f.GapOpen)
	setInt(&s.GapExtend, f.GapExtend)
	setInt(&cfg.Depth, f.Depth)

	if f.Matrix != nil {
		m, ok := alignment.MatrixByName(*f.Matrix)
		if !ok {
			return Config{}, fmt.Errorf("unknown matrix %q", *f.Matrix)
		}
		s.Matrix = m
	}
	if f.Tolerance != nil {
		t, err := mass.ParseTolerance(*f.Tolerance)
		if err != nil {
			return Config{}, err
		}
		s.Tolerance = t
	}
	if f.MassMode != nil {
		m, err := peptide.ParseMassMode(*f.MassMode)
		if err != nil {
			return Config{}, err
		}
		s.MassMode = m
	}
	if f.PairMode != nil {
		p, err := alignment.ParsePairMode(*f.PairMode)
		if err != nil {
			return Config{}, err
		}
		s.Pair = p
	}
	if f.Type != nil {
		t, err := alignment.ParseAlignType(*f.Type)
		if err != nil {
			return Config{}, err
		}
		cfg.Type = t
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the scoring and depth.
func (c Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid scoring: %w", err)
	}
	if c.Depth < 1 {
		return fmt.Errorf("depth %d: %w", c.Depth, alignment.ErrInvalidDepth)
	}
	return nil
}

// Write stores cfg as YAML, with every key present.
func Write(w io.Writer, cfg Config) error {
	out := map[string]any{
		"mismatch":      cfg.Scoring.Mismatch,
		"mass_mismatch": cfg.Scoring.MassMismatch,
		"mass_base":     cfg.Scoring.MassBase,
		"rotated":       cfg.Scoring.Rotated,
		"isobaric":      cfg.Scoring.Isobaric,
		"gap_open":      cfg.Scoring.GapOpen,
		"gap_extend":    cfg.Scoring.GapExtend,
		"tolerance":     cfg.Scoring.Tolerance.String(),
		"mass_mode":     cfg.Scoring.MassMode.String(),
		"pair_mode":     cfg.Scoring.Pair.String(),
		"depth":         cfg.Depth,
		"type":          cfg.Type.String(),
	}
	if cfg.Scoring.Matrix != nil {
		out["matrix"] = cfg.Scoring.Matrix.Name
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return enc.Close()
}
