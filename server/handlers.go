package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"videorank/pipeline"
	"videorank/shared/ai"
	"videorank/shared/storage"
	"videorank/youtube"
)

// Search outcome statuses. An empty result is not an error; the status
// tells the caller which stage came up empty.
const (
	statusOK              = "ok"
	statusNoSearchResults = "no_search_results"
	statusNoRatable       = "no_ratable_results"
)

type searchRequest struct {
	Query string `json:"query"`
	Force bool   `json:"force"`
}

type searchResponse struct {
	Status string `json:"status"`
	Cached bool   `json:"cached"`
	*pipeline.Result
}

func (s *Server) handleSearch(c echo.Context) error {
	user := currentUser(c)

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	if !s.busy.acquire(user.ID) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "a search is already running for this user"})
	}
	defer s.busy.release(user.ID)

	ctx := c.Request().Context()
	cacheTTL := time.Duration(s.cfg.Search.CacheTTLHours) * time.Hour

	if !req.Force {
		videos, err := s.store.GetSearch(user.ID, req.Query, cacheTTL)
		if err != nil {
			slog.Error("Cache lookup failed", "user", user.ID, "err", err)
		} else if videos != nil {
			return c.JSON(http.StatusOK, searchResponse{
				Status: statusOK,
				Cached: true,
				Result: &pipeline.Result{
					Videos:     videos,
					Candidates: len(videos),
					Enriched:   len(videos),
				},
			})
		}
	}

	progress := func(status string) {
		slog.Info("Search progress", "user", user.ID, "status", status)
	}

	start := time.Now()
	result, err := s.ranker.Rank(ctx, req.Query, progress)
	elapsed := time.Since(start)

	if err != nil {
		s.monitor.RecordFailure(err, elapsed)
		var searchErr *youtube.SearchError
		if errors.As(err, &searchErr) {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": fmt.Sprintf("search failed: %s", searchErr.Message),
			})
		}
		return fmt.Errorf("ranking %q: %w", req.Query, err)
	}

	s.monitor.RecordSuccess(
		fmt.Sprintf("ranked %d of %d candidates for %q", len(result.Videos), result.Candidates, req.Query),
		elapsed,
	)

	status := statusOK
	switch {
	case result.Candidates == 0:
		status = statusNoSearchResults
	case len(result.Videos) == 0:
		status = statusNoRatable
	}

	if len(result.Videos) > 0 {
		if err := s.store.SaveSearch(user.ID, req.Query, result.Videos); err != nil {
			slog.Error("Failed to cache search results", "user", user.ID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, searchResponse{Status: status, Result: result})
}

type summarizeRequest struct {
	VideoID string `json:"video_id"`
	Style   string `json:"style"`
}

func (s *Server) handleSummarize(c echo.Context) error {
	user := currentUser(c)

	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.VideoID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "video_id is required"})
	}

	patterns, err := s.store.PatternsVisibleTo(user.ID)
	if err != nil {
		slog.Error("Failed to load patterns", "user", user.ID, "err", err)
		patterns = nil
	}
	prompt := ai.StylePrompt(req.Style, patternStyles(patterns))

	ctx := c.Request().Context()
	transcript, err := s.transcripts.Fetch(ctx, req.VideoID)
	if err != nil {
		// Missing transcripts are reported in the summary text, not as
		// an HTTP error.
		slog.Info("No transcript for summarization", "video", req.VideoID, "err", err)
		transcript = ""
	}

	summary, err := s.summarizer.Summarize(ctx, transcript, prompt)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "summarization failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"video_id": req.VideoID,
		"style":    req.Style,
		"summary":  summary,
	})
}

type styleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Builtin     bool   `json:"builtin"`
}

func (s *Server) handleStyles(c echo.Context) error {
	user := currentUser(c)

	var styles []styleInfo
	for _, st := range ai.DefaultStyles() {
		styles = append(styles, styleInfo{Name: st.Name, Description: st.Description, Builtin: true})
	}

	patterns, err := s.store.PatternsVisibleTo(user.ID)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}
	for _, p := range patterns {
		styles = append(styles, styleInfo{Name: p.Name, Description: p.Description})
	}

	return c.JSON(http.StatusOK, map[string]any{"styles": styles})
}

func (s *Server) handleListPatterns(c echo.Context) error {
	user := currentUser(c)

	patterns, err := s.store.PatternsVisibleTo(user.ID)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}
	if patterns == nil {
		patterns = []storage.Pattern{}
	}
	return c.JSON(http.StatusOK, map[string]any{"patterns": patterns})
}

type patternRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PromptTemplate string `json:"prompt_template"`
	IsPublic       bool   `json:"is_public"`
}

func (s *Server) handleCreatePattern(c echo.Context) error {
	user := currentUser(c)

	var req patternRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.PromptTemplate) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name and prompt_template are required"})
	}

	pattern := &storage.Pattern{
		UserID:         user.ID,
		Name:           req.Name,
		Description:    req.Description,
		PromptTemplate: req.PromptTemplate,
		IsPublic:       req.IsPublic,
	}
	if err := s.store.CreatePattern(pattern); err != nil {
		return fmt.Errorf("creating pattern: %w", err)
	}

	return c.JSON(http.StatusCreated, pattern)
}

func (s *Server) handleDeletePattern(c echo.Context) error {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid pattern id"})
	}

	if err := s.store.DeletePattern(id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "pattern not found"})
		}
		return fmt.Errorf("deleting pattern: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	status := http.StatusOK
	state := "ok"
	if !s.monitor.IsHealthy() {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	return c.JSON(status, map[string]string{
		"status": state,
		"detail": s.monitor.StatusSummary(),
	})
}

func patternStyles(patterns []storage.Pattern) []ai.SummaryStyle {
	styles := make([]ai.SummaryStyle, 0, len(patterns))
	for _, p := range patterns {
		styles = append(styles, ai.SummaryStyle{
			Name:        p.Name,
			Description: p.Description,
			Prompt:      p.PromptTemplate,
		})
	}
	return styles
}
