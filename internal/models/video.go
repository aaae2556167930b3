package models

import "time"

// CandidateVideo is a search result merged with catalog metadata. It is
// immutable once built; a candidate whose metadata fetch fails is never
// constructed at all.
type CandidateVideo struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PublishedAt   time.Time `json:"published_at"`
	ViewCount     int64     `json:"view_count"`
	LikeCount     int64     `json:"like_count"`
	HasTranscript bool      `json:"has_transcript"`
	URL           string    `json:"url"`
}

// RankedVideo pairs a candidate with its rating in the final ordering.
type RankedVideo struct {
	Video  *CandidateVideo `json:"video"`
	Rating Rating          `json:"rating"`
}
