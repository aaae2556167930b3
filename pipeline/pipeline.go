// Package pipeline orchestrates one search run: candidate discovery,
// metadata enrichment, per-video transcript retrieval and rating, and the
// final tier-ordered sort. A run is a pure function of the query and the
// upstream responses; the pipeline keeps no state between invocations.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"videorank/internal/models"
)

// Searcher returns candidate video IDs for a free-text query. A failure
// here is fatal to the run.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// MetadataFetcher resolves a video ID to catalog metadata. (nil, nil)
// means the catalog has no such video.
type MetadataFetcher interface {
	VideoMetadata(ctx context.Context, videoID string) (*models.CandidateVideo, error)
}

// TranscriptFetcher retrieves a video's transcript. Any error means the
// transcript is unavailable; the causes are not distinguished.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Rater judges a transcript against the query. Implementations degrade to
// the sentinel rating internally and never fail the pipeline.
type Rater interface {
	Rate(ctx context.Context, transcript, query string) models.Rating
}

// Progress receives advisory status strings at stage transitions. It is
// not part of the data contract and may be nil.
type Progress func(status string)

// Result is the outcome of one run. Videos is totally ordered: ascending
// tier index first, descending score among equal tiers. The counts let a
// caller tell "search found nothing" apart from "candidates found but none
// ratable" - both yield an empty Videos slice.
type Result struct {
	Videos     []models.RankedVideo `json:"videos"`
	Candidates int                  `json:"candidates"`
	Enriched   int                  `json:"enriched"`
	Dropped    int                  `json:"dropped"`
}

type Pipeline struct {
	search      Searcher
	metadata    MetadataFetcher
	transcripts TranscriptFetcher
	rater       Rater
}

func New(search Searcher, metadata MetadataFetcher, transcripts TranscriptFetcher, rater Rater) *Pipeline {
	return &Pipeline{
		search:      search,
		metadata:    metadata,
		transcripts: transcripts,
		rater:       rater,
	}
}

// Rank executes one end-to-end run for a query. Only a search-stage
// failure aborts the run; every later failure is per-item. A metadata
// failure or a missing transcript drops just that video, and a rating
// failure keeps the video with the sentinel D/0 rating. Re-invoking Rank
// with the same query is always safe.
func (p *Pipeline) Rank(ctx context.Context, query string, progress Progress) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	report := func(status string) {
		if progress != nil {
			progress(status)
		}
	}

	report("Searching YouTube...")
	ids, err := p.search.Search(ctx, query)
	if err != nil {
		// Fatal: nothing to enrich without candidates. No partial output.
		return nil, fmt.Errorf("search failed: %w", err)
	}

	// Videos starts non-nil so an all-dropped run still serializes as an
	// empty list rather than null.
	result := &Result{Candidates: len(ids), Videos: []models.RankedVideo{}}

	var candidates []*models.CandidateVideo
	for _, id := range ids {
		video, err := p.metadata.VideoMetadata(ctx, id)
		if err != nil {
			log.Printf("Warning: dropping video %s, metadata fetch failed: %v", id, err)
			continue
		}
		if video == nil {
			log.Printf("Warning: dropping video %s, no catalog entry", id)
			continue
		}
		candidates = append(candidates, video)
		report(fmt.Sprintf("Processed %d of %d videos...", len(candidates), len(ids)))
	}
	result.Enriched = len(candidates)

	report("Ranking videos...")
	for _, video := range candidates {
		ranked, ok := p.processCandidate(ctx, video, query)
		if !ok {
			result.Dropped++
			continue
		}
		result.Videos = append(result.Videos, ranked)
	}

	sort.SliceStable(result.Videos, func(i, j int) bool {
		a, b := result.Videos[i].Rating, result.Videos[j].Rating
		if a.Tier.Index() != b.Tier.Index() {
			return a.Tier.Index() < b.Tier.Index()
		}
		return a.Score > b.Score
	})

	report("Search completed!")
	return result, nil
}

// processCandidate is the per-video unit of work: transcript fetch, then
// rating. It is independent of every other candidate's, so a bounded
// worker pool could run these concurrently without changing the sort or
// exclusion contract.
func (p *Pipeline) processCandidate(ctx context.Context, video *models.CandidateVideo, query string) (models.RankedVideo, bool) {
	transcript, err := p.transcripts.Fetch(ctx, video.ID)
	if err != nil || strings.TrimSpace(transcript) == "" {
		// A video with no transcript cannot be rated or meaningfully
		// summarized; it is excluded entirely rather than down-rated.
		if err != nil {
			log.Printf("No transcript for video %s: %v", video.ID, err)
		}
		return models.RankedVideo{}, false
	}

	return models.RankedVideo{
		Video:  video,
		Rating: p.rater.Rate(ctx, transcript, query),
	}, true
}
