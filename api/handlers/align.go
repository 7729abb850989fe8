// Package handlers implements the JSON endpoints of the pepalign server.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
	"github.com/aria-lang/pepalign/pkg/pepalign"
)

// Handler serves the alignment endpoints. Config holds the defaults that
// requests may override.
type Handler struct {
	Config pepalign.Config
	// MaxDatabase limits the number of database entries of a search request.
	MaxDatabase int
	Log         *zap.Logger
}

// New creates a handler with the default settings.
func New(log *zap.Logger) *Handler {
	return &Handler{Config: pepalign.DefaultConfig(), MaxDatabase: 10000, Log: log}
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/align", h.Align)
		r.Post("/align/decode", h.Decode)
		r.Post("/search", h.Search)
	})
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Options are the optional per request settings.
type Options struct {
	Type      string `json:"type,omitempty"`
	Depth     int    `json:"depth,omitempty"`
	Tolerance string `json:"tolerance,omitempty"`
	MassMode  string `json:"mass_mode,omitempty"`
	PairMode  string `json:"pair_mode,omitempty"`
	Matrix    string `json:"matrix,omitempty"`
}

// config applies the request options to the handler defaults.
func (h *Handler) config(o Options) (pepalign.Config, error) {
	cfg := h.Config
	if o.Type != "" {
		t, err := alignment.ParseAlignType(o.Type)
		if err != nil {
			return cfg, err
		}
		cfg.Type = t
	}
	if o.Depth != 0 {
		cfg.Depth = o.Depth
	}
	if o.Tolerance != "" {
		t, err := mass.ParseTolerance(o.Tolerance)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.Tolerance = t
	}
	if o.MassMode != "" {
		m, err := peptide.ParseMassMode(o.MassMode)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.MassMode = m
	}
	if o.PairMode != "" {
		p, err := alignment.ParsePairMode(o.PairMode)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.Pair = p
	}
	if o.Matrix != "" {
		m, ok := alignment.MatrixByName(o.Matrix)
		if !ok {
			return cfg, fmt.Errorf("unknown matrix %q", o.Matrix)
		}
		cfg.Scoring.Matrix = m
	}
	return cfg, cfg.Validate()
}

// AlignRequest represents an alignment request.
type AlignRequest struct {
	A string `json:"a"`
	B string `json:"b"`
	Options
}

// DecodeRequest rebuilds an alignment from its path.
type DecodeRequest struct {
	AlignRequest
	Path   string `json:"path"`
	StartA int    `json:"start_a"`
	StartB int    `json:"start_b"`
}

// AlignmentResponse represents one alignment.
type AlignmentResponse struct {
	A              string   `json:"a"`
	B              string   `json:"b"`
	Type           string   `json:"type"`
	Depth          int      `json:"depth"`
	StartA         int      `json:"start_a"`
	StartB         int      `json:"start_b"`
	LenA           int      `json:"len_a"`
	LenB           int      `json:"len_b"`
	Path           string   `json:"path"`
	Score          int      `json:"score"`
	MaxScore       int      `json:"max_score"`
	Normalised     float64  `json:"normalised"`
	Identity       float64  `json:"identity"`
	MassSimilarity float64  `json:"mass_similarity"`
	Gaps           int      `json:"gaps"`
	PPM            *float64 `json:"ppm,omitempty"`
	MassDifference float64  `json:"mass_difference"`
	AlignedA       string   `json:"aligned_a"`
	Matches        string   `json:"matches"`
	AlignedB       string   `json:"aligned_b"`
}

func newAlignmentResponse(al *alignment.Alignment) AlignmentResponse {
	stats := al.Stats()
	lineA, matches, lineB := al.Aligned()
	resp := AlignmentResponse{
		A:              al.SeqA().Peptidoform().String(),
		B:              al.SeqB().Peptidoform().String(),
		Type:           al.Type().String(),
		Depth:          al.Depth(),
		StartA:         al.StartA(),
		StartB:         al.StartB(),
		LenA:           al.LenA(),
		LenB:           al.LenB(),
		Path:           al.Short(),
		Score:          al.Score().Absolute,
		MaxScore:       al.Score().Max,
		Normalised:     al.NormalisedScore(),
		Identity:       stats.Identity(),
		MassSimilarity: stats.MassSimilarity(),
		Gaps:           stats.Gaps,
		MassDifference: al.MassDifference(),
		AlignedA:       lineA,
		Matches:        matches,
		AlignedB:       lineB,
	}
	// JSON has no infinity; the ppm is left out when one region is empty.
	if ppm := al.PPM(); !math.IsInf(ppm, 0) && !math.IsNaN(ppm) {
		resp.PPM = &ppm
	}
	return resp
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	// Position is the offset of the offending path token for decode errors.
	Position *int `json:"position,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// parsePeptide parses a request sequence. An empty string is the empty
// peptide, which aligns as a pure gap.
func parsePeptide(field, s string) (*peptide.Peptide, error) {
	if s == "" {
		return &peptide.Peptide{}, nil
	}
	p, err := peptide.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return p, nil
}

// Align handles alignment requests.
func (h *Handler) Align(w http.ResponseWriter, r *http.Request) {
	var req AlignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	cfg, err := h.config(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := parsePeptide("a", req.A)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := parsePeptide("b", req.B)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	al, err := pepalign.AlignWithConfig(a, b, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, newAlignmentResponse(al))
}

// Decode handles path decoding requests.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	cfg, err := h.config(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := parsePeptide("a", req.A)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := parsePeptide("b", req.B)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	al, err := pepalign.Decode(a, b, req.StartA, req.StartB, req.Path, cfg)
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		var pe *pepalign.PathError
		if errors.As(err, &pe) {
			resp.Position = &pe.Position
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, newAlignmentResponse(al))
}
