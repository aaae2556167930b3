package models

// Tier is the ordinal content-quality bucket, S (must watch) through D (skip).
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Index returns the sort position of a tier, S=0 through D=4. Unknown
// values sort with D so a bad tier can never float above a real one.
func (t Tier) Index() int {
	switch t {
	case TierS:
		return 0
	case TierA:
		return 1
	case TierB:
		return 2
	case TierC:
		return 3
	default:
		return 4
	}
}

// Valid reports whether t is one of the five known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierS, TierA, TierB, TierC, TierD:
		return true
	}
	return false
}

// Explanation is the structured reasoning behind a rating.
type Explanation struct {
	MainReason     string   `json:"main_reason"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Relevance      string   `json:"relevance"`
	IdeaCount      string   `json:"idea_count"`
	Recommendation string   `json:"recommendation"`
}

// Rating is the judgment for one (video, query) pair. Explanation holds the
// rendered display text; Analysis keeps the raw structured verdict and is
// nil for sentinel ratings.
type Rating struct {
	Tier        Tier         `json:"tier"`
	Score       int          `json:"score"`
	Explanation string       `json:"explanation"`
	Analysis    *Explanation `json:"analysis,omitempty"`
}

// SentinelRating is the fallback assigned when automated rating fails. The
// video stays in the result set with an explicit D/0 marker instead of
// being silently hidden.
func SentinelRating(explanation string) Rating {
	if explanation == "" {
		explanation = "Rating unavailable"
	}
	return Rating{Tier: TierD, Score: 0, Explanation: explanation}
}
