package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/query"
	"github.com/helixir/literature-digest-service/internal/repository"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 50
	maxPageSize        = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// listTopics handles GET /api/v1/topics.
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topicList := s.registry.Topics()

	out := make([]topicResponse, len(topicList))
	for i, t := range topicList {
		out[i] = domainTopicToResponse(t)
	}

	writeJSON(w, http.StatusOK, listTopicsResponse{
		Topics:     out,
		TotalCount: len(out),
	})
}

// listTemplates handles GET /api/v1/templates.
func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates := query.Templates()

	out := make([]templateResponse, len(templates))
	for i, t := range templates {
		out[i] = queryTemplateToResponse(t)
	}

	writeJSON(w, http.StatusOK, listTemplatesResponse{
		Templates:  out,
		TotalCount: len(out),
	})
}

// previewQuery handles GET /api/v1/query/preview?preset=|template=.
// It builds the search string a run would use without executing anything.
func (s *Server) previewQuery(w http.ResponseWriter, r *http.Request) {
	if tplName := r.URL.Query().Get("template"); tplName != "" {
		s.previewTemplateQuery(w, tplName)
		return
	}

	preset := r.URL.Query().Get("preset")

	topicList, err := s.registry.ListActive(preset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	opts := query.SearchOptions{IncludeBaseFilter: true}
	if p, presetErr := s.registry.Preset(preset); presetErr == nil {
		opts.Exclusions = p.Exclusions
	}

	q, err := query.BuildSearchQuery(topicList, s.registry, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	names := make([]string, len(topicList))
	for i, t := range topicList {
		names[i] = t.Name
	}

	report := query.Validate(q)
	writeJSON(w, http.StatusOK, queryPreviewResponse{
		Query:     q,
		Topics:    names,
		Valid:     report.Valid,
		Warnings:  report.Warnings,
		CharCount: report.CharCount,
	})
}

// previewTemplateQuery resolves a named intersection template.
func (s *Server) previewTemplateQuery(w http.ResponseWriter, tplName string) {
	q, err := query.ResolveTemplate(tplName, s.registry)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tpl, err := query.TemplateByName(tplName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report := query.Validate(q)
	writeJSON(w, http.StatusOK, queryPreviewResponse{
		Query:     q,
		Topics:    tpl.TopicNames,
		Valid:     report.Valid,
		Warnings:  report.Warnings,
		CharCount: report.CharCount,
	})
}

// triggerRunRequest is the JSON request body for triggering a digest run.
type triggerRunRequest struct {
	Variant string `json:"variant"`
}

// triggerRun handles POST /api/v1/runs. The run executes asynchronously;
// its progress is observable through GET /api/v1/runs.
func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req triggerRunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	variant, err := domain.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, "variant must be one of: daily, frontier")
		return
	}

	// Detach from the request context: the run outlives this request.
	go func() {
		if _, runErr := s.trigger.Run(context.Background(), variant); runErr != nil {
			s.logger.Error().Err(runErr).
				Str("variant", string(variant)).
				Msg("triggered digest run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, triggerRunResponse{
		Variant: string(variant),
		Status:  "accepted",
		Message: "digest run started",
	})
}

// listRuns handles GET /api/v1/runs.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePaginationParams(r)
	filter := repository.RunFilter{Limit: limit, Offset: offset}

	if variantParam := r.URL.Query().Get("variant"); variantParam != "" {
		variant, err := domain.ParseVariant(variantParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "variant must be one of: daily, frontier")
			return
		}
		filter.Variant = &variant
	}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.RunStatus(statusParam)
		filter.Status = &status
	}

	if startedAfter := r.URL.Query().Get("started_after"); startedAfter != "" {
		t, parseErr := time.Parse(time.RFC3339, startedAfter)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid started_after format: expected RFC3339")
			return
		}
		filter.StartedAfter = &t
	}
	if startedBefore := r.URL.Query().Get("started_before"); startedBefore != "" {
		t, parseErr := time.Parse(time.RFC3339, startedBefore)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid started_before format: expected RFC3339")
			return
		}
		filter.StartedBefore = &t
	}

	runs, totalCount, err := s.runs.ListRuns(ctx, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = domainRunToResponse(run)
	}

	writeJSON(w, http.StatusOK, listRunsResponse{
		Runs:          out,
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getRun handles GET /api/v1/runs/{runID}.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseUUID(w, chi.URLParam(r, "runID"), "run_id")
	if !ok {
		return
	}

	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainRunToResponse(run))
}

// getRunPapers handles GET /api/v1/runs/{runID}/papers. Papers are returned
// in digest order with their one-based rank.
func (s *Server) getRunPapers(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseUUID(w, chi.URLParam(r, "runID"), "run_id")
	if !ok {
		return
	}

	papers, err := s.runs.ListRunPapers(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]rankedPaperResponse, len(papers))
	for i, p := range papers {
		out[i] = domainRankedPaperToResponse(i+1, p)
	}

	writeJSON(w, http.StatusOK, listRunPapersResponse{
		RunID:  runID.String(),
		Papers: out,
	})
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts page_size and page_token from query parameters.
// It applies default and maximum bounds to the page size.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsed, err := strconv.Atoi(pageSizeStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if pageToken := r.URL.Query().Get("page_token"); pageToken != "" {
		decoded, err := base64.StdEncoding.DecodeString(pageToken)
		if err == nil {
			if parsed, parseErr := strconv.Atoi(string(decoded)); parseErr == nil && parsed > 0 {
				offset = parsed
			}
		}
	}

	return limit, offset
}

// encodePageToken encodes the next offset as a base64 page token.
// Returns an empty string if there are no more results.
func encodePageToken(offset, limit, totalCount int) string {
	nextOffset := offset + limit
	if nextOffset < totalCount {
		return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(nextOffset)))
	}
	return ""
}
