package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/query"
)

// Response types for JSON serialization.

type topicResponse struct {
	Name             string   `json:"name"`
	Active           bool     `json:"active"`
	Priority         string   `json:"priority"`
	Synonyms         []string `json:"synonyms,omitempty"`
	IntersectionWith []string `json:"intersection_with,omitempty"`
}

type listTopicsResponse struct {
	Topics     []topicResponse `json:"topics"`
	TotalCount int             `json:"total_count"`
}

type templateResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Topics      []string `json:"topics"`
}

type listTemplatesResponse struct {
	Templates  []templateResponse `json:"templates"`
	TotalCount int                `json:"total_count"`
}

type queryPreviewResponse struct {
	Query     string   `json:"query"`
	Topics    []string `json:"topics"`
	Valid     bool     `json:"valid"`
	Warnings  []string `json:"warnings,omitempty"`
	CharCount int      `json:"char_count"`
}

type triggerRunResponse struct {
	Variant string `json:"variant"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type runResponse struct {
	RunID           string     `json:"run_id"`
	Variant         string     `json:"variant"`
	Preset          string     `json:"preset"`
	Query           string     `json:"query,omitempty"`
	DaysBack        int        `json:"days_back"`
	Status          string     `json:"status"`
	PapersFetched   int        `json:"papers_fetched"`
	PapersScored    int        `json:"papers_scored"`
	PapersPublished int        `json:"papers_published"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Duration        string     `json:"duration,omitempty"`
}

type listRunsResponse struct {
	Runs          []runResponse `json:"runs"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	TotalCount    int           `json:"total_count"`
}

type rankedPaperResponse struct {
	Rank            int        `json:"rank"`
	PMID            string     `json:"pmid,omitempty"`
	DOI             string     `json:"doi,omitempty"`
	Title           string     `json:"title"`
	Authors         []string   `json:"authors,omitempty"`
	Journal         string     `json:"journal,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	URL             string     `json:"url,omitempty"`
	Source          string     `json:"source,omitempty"`
	Relevance       *int       `json:"relevance,omitempty"`
	Evidence        *int       `json:"evidence,omitempty"`
	Frontier        *int       `json:"frontier,omitempty"`
	CombinedScore   int        `json:"combined_score"`
	AltmetricScore  float64    `json:"altmetric_score,omitempty"`
	MatchedTopics   []string   `json:"matched_topics,omitempty"`
}

type listRunPapersResponse struct {
	RunID  string                `json:"run_id"`
	Papers []rankedPaperResponse `json:"papers"`
}

// Converter functions

func domainTopicToResponse(t domain.Topic) topicResponse {
	return topicResponse{
		Name:             t.Name,
		Active:           t.Active,
		Priority:         string(t.Priority),
		Synonyms:         t.Synonyms,
		IntersectionWith: t.IntersectionWith,
	}
}

func queryTemplateToResponse(t query.Template) templateResponse {
	return templateResponse{
		Name:        t.Name,
		DisplayName: t.DisplayName,
		Topics:      t.TopicNames,
	}
}

func domainRunToResponse(r *domain.DigestRun) runResponse {
	resp := runResponse{
		RunID:           r.ID.String(),
		Variant:         string(r.Variant),
		Preset:          r.Preset,
		Query:           r.Query,
		DaysBack:        r.DaysBack,
		Status:          string(r.Status),
		PapersFetched:   r.PapersFetched,
		PapersScored:    r.PapersScored,
		PapersPublished: r.PapersPublished,
		Error:           r.Error,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
	}
	if r.CompletedAt != nil {
		resp.Duration = r.CompletedAt.Sub(r.StartedAt).String()
	}
	return resp
}

func domainRankedPaperToResponse(rank int, p domain.RankedPaper) rankedPaperResponse {
	return rankedPaperResponse{
		Rank:            rank,
		PMID:            p.PMID,
		DOI:             p.DOI,
		Title:           p.Title,
		Authors:         p.AuthorNames(),
		Journal:         p.Journal,
		PublicationDate: p.PublicationDate,
		URL:             p.URL,
		Source:          p.Source,
		Relevance:       p.Relevance,
		Evidence:        p.Evidence,
		Frontier:        p.Frontier,
		CombinedScore:   p.CombinedScore,
		AltmetricScore:  p.AltmetricScore,
		MatchedTopics:   p.MatchedTopics,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to
// clients; not-found and validation messages are safe to surface.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, nf.Error())
		} else {
			writeError(w, http.StatusNotFound, "resource not found")
		}
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
