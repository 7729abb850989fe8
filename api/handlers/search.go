package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/aria-lang/pepalign/internal/fingerprint"
	"github.com/aria-lang/pepalign/internal/peptide"
	"github.com/aria-lang/pepalign/pkg/pepalign"
)

// Entry is one database sequence of a search request.
type Entry struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
}

// SearchRequest aligns every query against a small database.
type SearchRequest struct {
	Queries  []string `json:"queries"`
	Database []Entry  `json:"database"`
	Options
	Fingerprint bool `json:"fingerprint,omitempty"`
	Parallel    bool `json:"parallel,omitempty"`
	Top         int  `json:"top,omitempty"`
}

// HitResponse is one database match. The database entry is side A of the
// alignment and the query side B.
type HitResponse struct {
	Index     int               `json:"index"`
	ID        string            `json:"id"`
	Alignment AlignmentResponse `json:"alignment"`
}

// QueryResult holds the hits of one query, best first.
type QueryResult struct {
	Query string        `json:"query"`
	Hits  []HitResponse `json:"hits"`
}

// SearchResponse represents the response for a search.
type SearchResponse struct {
	Summary string        `json:"summary"`
	Results []QueryResult `json:"results"`
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// Search handles database search requests.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no queries given"))
		return
	}
	if h.MaxDatabase > 0 && len(req.Database) > h.MaxDatabase {
		writeError(w, http.StatusBadRequest, fmt.Errorf("database of %s entries exceeds the limit of %s",
			humanize.Comma(int64(len(req.Database))), humanize.Comma(int64(h.MaxDatabase))))
		return
	}

	cfg, err := h.config(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	db := make([]*peptide.Peptide, len(req.Database))
	for i, e := range req.Database {
		p, err := peptide.WithID(e.Sequence, e.ID, "")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("database entry %d: %w", i, err))
			return
		}
		db[i] = p
	}
	queries := make([]*peptide.Peptide, len(req.Queries))
	for i, q := range req.Queries {
		p, err := parsePeptide(fmt.Sprintf("query %d", i), q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		queries[i] = p
	}

	opts := pepalign.SearchOptions{Config: cfg, Parallel: req.Parallel, Top: req.Top}
	if req.Fingerprint {
		fp := fingerprint.DefaultOptions()
		opts.Fingerprint = &fp
	}
	searcher, err := pepalign.NewSearcher(db, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	resp := SearchResponse{Results: make([]QueryResult, len(queries))}
	aligned := 0
	for qi, q := range queries {
		if r.Context().Err() != nil {
			return
		}
		hits, err := searcher.Search(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		result := QueryResult{Query: q.String(), Hits: make([]HitResponse, len(hits))}
		for i, hit := range hits {
			result.Hits[i] = HitResponse{
				Index:     hit.Database,
				ID:        searcher.Database(hit.Database).ID,
				Alignment: newAlignmentResponse(hit.Alignment),
			}
		}
		resp.Results[qi] = result
		aligned += len(hits)
	}

	resp.Summary = fmt.Sprintf("%s queries against %s sequences, %s hits",
		humanize.Comma(int64(len(queries))), humanize.Comma(int64(len(db))), humanize.Comma(int64(aligned)))
	h.logger().Info("search",
		zap.Int("queries", len(queries)),
		zap.Int("database", len(db)),
		zap.Int("hits", aligned),
		zap.Bool("fingerprint", req.Fingerprint),
		zap.Duration("duration", time.Since(start)))

	writeJSON(w, http.StatusOK, resp)
}
