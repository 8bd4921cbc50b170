package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mtgtools/metagame/internal/api/response"
	"github.com/mtgtools/metagame/internal/stats"
	"github.com/mtgtools/metagame/internal/storage/repository"
)

// ArchetypeDetail is one archetype's standing plus its row of the
// matchup matrix.
type ArchetypeDetail struct {
	Entry    stats.ReportEntry    `json:"entry"`
	Matchups []stats.MatchupEntry `json:"matchups"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// latestReport loads the newest stored report, writing the response
// itself on failure.
func (s *Server) latestReport(w http.ResponseWriter, r *http.Request) (*stats.Report, bool) {
	report, err := s.store.LatestReport(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, fmt.Errorf("no report has been computed yet"))
		} else {
			response.InternalError(w, err)
		}
		return nil, false
	}
	return report, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latestReport(w, r)
	if !ok {
		return
	}
	response.Success(w, report)
}

func (s *Server) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latestReport(w, r)
	if !ok {
		return
	}
	response.Success(w, report.Entries)
}

func (s *Server) handleArchetype(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		response.BadRequest(w, fmt.Errorf("invalid archetype name: %w", err))
		return
	}

	report, ok := s.latestReport(w, r)
	if !ok {
		return
	}

	for _, entry := range report.Entries {
		if !strings.EqualFold(entry.Archetype, name) {
			continue
		}
		detail := ArchetypeDetail{Entry: entry}
		for _, cell := range report.Matchups {
			if cell.Archetype == entry.Archetype {
				detail.Matchups = append(detail.Matchups, cell)
			}
		}
		response.Success(w, detail)
		return
	}

	response.NotFound(w, fmt.Errorf("archetype %q not in the latest report", name))
}

func (s *Server) handleMatchups(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latestReport(w, r)
	if !ok {
		return
	}
	response.Success(w, report.Matchups)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latestReport(w, r)
	if !ok {
		return
	}
	response.Success(w, report.Diagnostics)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	rows, err := s.store.Reports.List(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, rows)
}
