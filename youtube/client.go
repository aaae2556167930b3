package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"videorank/internal/models"
	"videorank/shared/config"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// SearchError is the structured upstream error for a failed search call.
// A search failure aborts the whole pipeline run; per-video metadata
// failures do not.
type SearchError struct {
	Code    int
	Message string
}

func (e *SearchError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("youtube search error (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("youtube search error: %s", e.Message)
}

// Client talks to the YouTube Data API for search and catalog metadata.
// It authenticates with a developer API key, or with an OAuth token file
// when no key is configured.
type Client struct {
	service *youtube.Service
	cfg     *config.YouTubeConfig
}

// NewClient builds an authenticated Data API client. Extra options are
// appended last so tests can redirect the service at a fake endpoint.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	var clientOpts []option.ClientOption

	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else {
		httpClient, err := oauthHTTPClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up OAuth client: %w", err)
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(httpClient))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service, cfg: cfg}, nil
}

// Search returns candidate video IDs for a free-text query. One page of
// results, bounded by the configured page size; this is not a crawl.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &SearchError{Message: "query cannot be empty"}
	}

	call := c.service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(c.cfg.MaxResults).
		RelevanceLanguage(c.cfg.RelevanceLanguage).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &SearchError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return nil, &SearchError{Message: err.Error()}
	}

	var ids []string
	for _, item := range resp.Items {
		// The request already restricts to videos; filter anyway in case
		// the API slips a channel or playlist into the page.
		if item.Id == nil || item.Id.Kind != "youtube#video" || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}

	log.Printf("Search for %q returned %d video candidates", query, len(ids))
	return ids, nil
}

// VideoMetadata fetches snippet and statistics for one video. It returns
// (nil, nil) when the catalog has no such video, which should not happen
// for IDs that search just returned but must be handled.
func (c *Client) VideoMetadata(ctx context.Context, videoID string) (*models.CandidateVideo, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for video %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	video := &models.CandidateVideo{
		ID:  videoID,
		URL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
		// Optimistic; the transcript fetch later in the pipeline is the
		// source of truth.
		HasTranscript: true,
	}

	if item.Snippet != nil {
		video.Title = item.Snippet.Title
		video.Description = item.Snippet.Description
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
	}

	// Counts default to 0 when stats are hidden, e.g. likes disabled.
	if item.Statistics != nil {
		video.ViewCount = int64(item.Statistics.ViewCount)
		video.LikeCount = int64(item.Statistics.LikeCount)
	}

	return video, nil
}
