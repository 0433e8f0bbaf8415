package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

const (
	viewDashboard    = "dashboard"
	viewAnalysis     = "analysis"
	viewReport       = "report"
	viewOrganization = "organization"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a failure onto the status returned to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gateway.ErrUnauthorized), errors.Is(err, usecase.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// fail reports err for the given view. When the request was abandoned the
// result is discarded and nothing is written.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, viewName string, err error) {
	log := s.logger.WithFields(logrus.Fields{"view": viewName, "path": r.URL.Path})
	if errors.Is(err, usecase.ErrViewClosed) || r.Context().Err() != nil {
		s.metrics.recordDerivation(viewName, resultDiscarded)
		log.Debug("client went away; discarding result")
		return
	}
	s.metrics.recordDerivation(viewName, resultError)
	status := statusFor(err)
	log.WithError(err).WithField("status", status).Warn("request failed")
	writeError(w, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	pageSize := s.pageSize
	if raw := query.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid pageSize %q", raw))
			return
		}
		pageSize = n
	}
	expanded, err := usecase.ParseExpansion(strings.Split(query.Get("expand"), ","))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, hit := s.cache.get(s.session.Login)
	s.metrics.recordCacheLookup(hit)
	if !hit {
		started := time.Now()
		snap, err = s.dashboard.Fetch(ctx)
		s.metrics.observeFetch(viewDashboard, started)
		if err != nil {
			s.fail(w, r, viewDashboard, err)
			return
		}
		s.cache.set(s.session.Login, snap)
	}

	d, err := s.dashboard.Derive(ctx, snap)
	if err != nil {
		s.fail(w, r, viewDashboard, err)
		return
	}
	s.metrics.recordDerivation(viewDashboard, resultOK)
	writeJSON(w, http.StatusOK, d.Paged(pageSize, expanded))
}

// handleAnalysis serves the analysis of one repository. With only ?tab= the
// tab is selected by hand. When the client also sends ?showCommits= it is
// reporting the state it last rendered, and the tab is re-derived from that
// state against the fresh counts, so it needs the tab that was active too.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	query := r.URL.Query()

	var (
		tab       view.Tab
		prev      *view.TabState
		parseErrs []string
	)
	if raw := query.Get("tab"); raw != "" {
		t, err := view.ParseTab(raw)
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
		}
		tab = t
	}
	if raw := query.Get("showCommits"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("invalid showCommits %q", raw))
		}
		if query.Get("tab") == "" {
			parseErrs = append(parseErrs, "showCommits requires tab")
		}
		prev = &view.TabState{Active: tab, ShowCommitsTab: show}
	}
	if len(parseErrs) > 0 {
		writeError(w, http.StatusBadRequest, strings.Join(parseErrs, "; "))
		return
	}

	started := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, s.session, owner, repo)
	s.metrics.observeFetch(viewAnalysis, started)
	if err != nil {
		s.fail(w, r, viewAnalysis, err)
		return
	}

	switch {
	case prev != nil:
		analysis.ResumeTabs(*prev)
	case tab != "":
		analysis.SelectTab(tab)
	}
	s.metrics.recordDerivation(viewAnalysis, resultOK)
	writeJSON(w, http.StatusOK, analysis)
}

// handleAnalysisReport serves the analysis of one repository as a
// downloadable Markdown or HTML document.
func (s *Server) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, s.session, owner, repo)
	s.metrics.observeFetch(viewReport, started)
	if err != nil {
		s.fail(w, r, viewReport, err)
		return
	}

	var buf bytes.Buffer
	if err := s.reports.Render(&buf, format, analysis, time.Now()); err != nil {
		s.metrics.recordDerivation(viewReport, resultError)
		s.logger.WithError(err).WithField("format", format).Error("failed to render report")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.recordDerivation(viewReport, resultOK)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(analysis.Repository, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleOrganizationStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org := chi.URLParam(r, "org")
	query := r.URL.Query()

	ranges, err := usecase.ParseDateRanges(query.Get("from"), query.Get("to"), usecase.HTTPDateLayout)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	leadTime := false
	if raw := query.Get("leadTime"); raw != "" {
		leadTime, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid leadTime %q", raw))
			return
		}
	}

	started := time.Now()
	stats, err := s.aggregator.Summarize(ctx, s.session, org, ranges.Commits, ranges.PullRequests, leadTime)
	s.metrics.observeFetch(viewOrganization, started)
	if err != nil {
		s.fail(w, r, viewOrganization, err)
		return
	}
	s.metrics.recordDerivation(viewOrganization, resultOK)
	writeJSON(w, http.StatusOK, stats)
}
