package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"videorank/internal/models"
)

// fakeUpstreams implements every pipeline dependency from plain maps so a
// run can be described declaratively.
type fakeUpstreams struct {
	searchIDs   []string
	searchErr   error
	metadata    map[string]*models.CandidateVideo
	metadataErr map[string]error
	transcripts map[string]string
	ratings     map[string]models.Rating
}

func (f *fakeUpstreams) Search(ctx context.Context, query string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchIDs, nil
}

func (f *fakeUpstreams) VideoMetadata(ctx context.Context, videoID string) (*models.CandidateVideo, error) {
	if err, ok := f.metadataErr[videoID]; ok {
		return nil, err
	}
	return f.metadata[videoID], nil
}

func (f *fakeUpstreams) Fetch(ctx context.Context, videoID string) (string, error) {
	transcript, ok := f.transcripts[videoID]
	if !ok {
		return "", fmt.Errorf("no captions for %s", videoID)
	}
	return transcript, nil
}

func (f *fakeUpstreams) Rate(ctx context.Context, transcript, query string) models.Rating {
	for id, rating := range f.ratings {
		if strings.Contains(transcript, id) {
			return rating
		}
	}
	return models.SentinelRating("")
}

func stubVideo(id string) *models.CandidateVideo {
	return &models.CandidateVideo{ID: id, Title: "Video " + id, HasTranscript: true}
}

func rating(tier models.Tier, score int) models.Rating {
	return models.Rating{Tier: tier, Score: score, Explanation: "Rated"}
}

func newTestPipeline(f *fakeUpstreams) *Pipeline {
	return New(f, f, f, f)
}

// Six candidates, one without a transcript, ratings S/A/A/B/D. The
// transcript-less video is excluded, the rest come back tier-ordered with
// score breaking the tie between the two A's.
func TestRankFullRun(t *testing.T) {
	f := &fakeUpstreams{
		searchIDs: []string{"v1", "v2", "v3", "v4", "v5", "v6"},
		metadata: map[string]*models.CandidateVideo{
			"v1": stubVideo("v1"), "v2": stubVideo("v2"), "v3": stubVideo("v3"),
			"v4": stubVideo("v4"), "v5": stubVideo("v5"), "v6": stubVideo("v6"),
		},
		transcripts: map[string]string{
			"v1": "transcript v1", "v2": "transcript v2", "v3": "transcript v3",
			"v4": "transcript v4", "v6": "transcript v6",
			// v5 has no transcript
		},
		ratings: map[string]models.Rating{
			"v1": rating(models.TierB, 70),
			"v2": rating(models.TierA, 80),
			"v3": rating(models.TierS, 90),
			"v4": rating(models.TierA, 88),
			"v6": rating(models.TierD, 20),
		},
	}

	var progress []string
	result, err := newTestPipeline(f).Rank(context.Background(), "python tutorial", func(s string) {
		progress = append(progress, s)
	})
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	wantOrder := []string{"v3", "v4", "v2", "v1", "v6"} // S, A(88), A(80), B, D
	if len(result.Videos) != len(wantOrder) {
		t.Fatalf("Rank() returned %d videos, want %d", len(result.Videos), len(wantOrder))
	}
	for i, id := range wantOrder {
		if result.Videos[i].Video.ID != id {
			t.Errorf("Videos[%d] = %s, want %s", i, result.Videos[i].Video.ID, id)
		}
	}

	if result.Candidates != 6 || result.Enriched != 6 || result.Dropped != 1 {
		t.Errorf("Counts = %d/%d/%d, want 6/6/1", result.Candidates, result.Enriched, result.Dropped)
	}

	for _, v := range result.Videos {
		if v.Video.ID == "v5" {
			t.Error("Video without transcript must be excluded from the result")
		}
	}

	joined := strings.Join(progress, "|")
	for _, want := range []string{"Searching YouTube...", "Processed 1 of 6 videos...", "Ranking videos...", "Search completed!"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Progress missing %q in %q", want, joined)
		}
	}
}

func TestRankSortTotality(t *testing.T) {
	f := &fakeUpstreams{
		searchIDs: []string{"v1", "v2", "v3", "v4", "v5", "v6"},
		metadata: map[string]*models.CandidateVideo{
			"v1": stubVideo("v1"), "v2": stubVideo("v2"), "v3": stubVideo("v3"),
			"v4": stubVideo("v4"), "v5": stubVideo("v5"), "v6": stubVideo("v6"),
		},
		transcripts: map[string]string{
			"v1": "t v1", "v2": "t v2", "v3": "t v3", "v4": "t v4", "v5": "t v5", "v6": "t v6",
		},
		ratings: map[string]models.Rating{
			// D-tier item with a high raw score: tier stays primary, the
			// score tie-break is never clamped per tier.
			"v1": rating(models.TierD, 99),
			"v2": rating(models.TierC, 10),
			"v3": rating(models.TierB, 55),
			"v4": rating(models.TierB, 56),
			"v5": rating(models.TierS, 1),
			"v6": rating(models.TierA, 100),
		},
	}

	result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	for i := 1; i < len(result.Videos); i++ {
		prev, cur := result.Videos[i-1].Rating, result.Videos[i].Rating
		if prev.Tier.Index() > cur.Tier.Index() {
			t.Errorf("Tier order violated at %d: %s before %s", i, prev.Tier, cur.Tier)
		}
		if prev.Tier.Index() == cur.Tier.Index() && prev.Score < cur.Score {
			t.Errorf("Score order violated at %d within tier %s: %d before %d",
				i, prev.Tier, prev.Score, cur.Score)
		}
	}

	if first := result.Videos[0]; first.Video.ID != "v5" {
		t.Errorf("First video = %s, want the S-tier v5 despite its low score", first.Video.ID)
	}
	if last := result.Videos[len(result.Videos)-1]; last.Video.ID != "v1" {
		t.Errorf("Last video = %s, want the D-tier v1 despite its high score", last.Video.ID)
	}
}

// A search-stage failure aborts the run with no partial output.
func TestRankSearchFailureIsFatal(t *testing.T) {
	upstreamErr := errors.New("quota exceeded")
	f := &fakeUpstreams{searchErr: upstreamErr}

	result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
	if err == nil {
		t.Fatal("Rank() succeeded despite search failure")
	}
	if !errors.Is(err, upstreamErr) {
		t.Errorf("Rank() error = %v, want it to wrap the upstream error", err)
	}
	if result != nil {
		t.Errorf("Rank() produced partial output %+v on a fatal failure", result)
	}
}

// Candidates found but none ratable, versus no candidates at all.
// Both are empty, non-error outcomes that the counts keep distinguishable.
func TestRankEmptyOutcomes(t *testing.T) {
	t.Run("NoneRatable", func(t *testing.T) {
		f := &fakeUpstreams{
			searchIDs: []string{"v1", "v2", "v3"},
			metadata: map[string]*models.CandidateVideo{
				"v1": stubVideo("v1"), "v2": stubVideo("v2"), "v3": stubVideo("v3"),
			},
			transcripts: map[string]string{}, // nobody has captions
		}

		result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
		if err != nil {
			t.Fatalf("Rank() failed: %v", err)
		}
		if result.Videos == nil {
			t.Error("Videos is nil, want an empty slice so it serializes as a list")
		}
		if len(result.Videos) != 0 {
			t.Errorf("Videos = %d, want 0", len(result.Videos))
		}
		if result.Candidates != 3 || result.Dropped != 3 {
			t.Errorf("Counts = %d candidates / %d dropped, want 3/3", result.Candidates, result.Dropped)
		}
	})

	t.Run("NoCandidates", func(t *testing.T) {
		f := &fakeUpstreams{searchIDs: nil}

		result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
		if err != nil {
			t.Fatalf("Rank() failed: %v", err)
		}
		if result.Videos == nil || len(result.Videos) != 0 || result.Candidates != 0 {
			t.Errorf("Result = %+v, want zero candidates and an empty video list", result)
		}
	})
}

// A rating failure keeps the video with the sentinel; genuine
// ratings on the other candidates are untouched.
func TestRankSentinelNonExclusion(t *testing.T) {
	f := &fakeUpstreams{
		searchIDs: []string{"v1", "v2", "v3"},
		metadata: map[string]*models.CandidateVideo{
			"v1": stubVideo("v1"), "v2": stubVideo("v2"), "v3": stubVideo("v3"),
		},
		transcripts: map[string]string{"v1": "t v1", "v2": "t v2", "v3": "t v3"},
		ratings: map[string]models.Rating{
			"v1": rating(models.TierA, 80),
			// v2 not in the map: the fake rater answers with the sentinel,
			// mirroring a rater that got non-JSON back from the model.
			"v3": rating(models.TierB, 60),
		},
	}

	result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}
	if len(result.Videos) != 3 {
		t.Fatalf("Videos = %d, want 3 (rating failure must not exclude)", len(result.Videos))
	}

	last := result.Videos[2]
	if last.Video.ID != "v2" {
		t.Fatalf("Last video = %s, want the sentinel-rated v2", last.Video.ID)
	}
	if last.Rating.Tier != models.TierD || last.Rating.Score != 0 {
		t.Errorf("Sentinel rating = %s/%d, want D/0", last.Rating.Tier, last.Rating.Score)
	}
	if result.Videos[0].Rating.Tier != models.TierA || result.Videos[1].Rating.Tier != models.TierB {
		t.Error("Genuine ratings must be retained alongside the sentinel")
	}
}

// Batch resilience: metadata failures for a strict subset shrink the result
// by exactly that subset.
func TestRankMetadataFailuresDropOnlyThatItem(t *testing.T) {
	f := &fakeUpstreams{
		searchIDs: []string{"v1", "v2", "v3", "v4"},
		metadata: map[string]*models.CandidateVideo{
			"v1": stubVideo("v1"), "v4": stubVideo("v4"),
		},
		metadataErr: map[string]error{
			"v2": errors.New("metadata backend timeout"),
			// v3 resolves to nil: catalog has no such video
		},
		transcripts: map[string]string{"v1": "t v1", "v4": "t v4"},
		ratings: map[string]models.Rating{
			"v1": rating(models.TierA, 80),
			"v4": rating(models.TierB, 60),
		},
	}

	result, err := newTestPipeline(f).Rank(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}
	if result.Enriched != 2 {
		t.Errorf("Enriched = %d, want 2", result.Enriched)
	}
	if len(result.Videos) != 2 {
		t.Errorf("Videos = %d, want 2 (4 candidates minus the 2 failed subset)", len(result.Videos))
	}
}

func TestRankEmptyQuery(t *testing.T) {
	f := &fakeUpstreams{}
	if _, err := newTestPipeline(f).Rank(context.Background(), "  ", nil); err == nil {
		t.Error("Rank() accepted an empty query")
	}
}

func TestRankNilProgress(t *testing.T) {
	f := &fakeUpstreams{
		searchIDs:   []string{"v1"},
		metadata:    map[string]*models.CandidateVideo{"v1": stubVideo("v1")},
		transcripts: map[string]string{"v1": "t v1"},
		ratings:     map[string]models.Rating{"v1": rating(models.TierA, 80)},
	}

	// Progress is advisory; nil must be accepted.
	if _, err := newTestPipeline(f).Rank(context.Background(), "query", nil); err != nil {
		t.Fatalf("Rank() with nil progress failed: %v", err)
	}
}
