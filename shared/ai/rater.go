package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"videorank/internal/models"
	"videorank/shared/config"

	"google.golang.org/genai"
)

// modelTemperature is fixed by the rating contract. Repeated calls on
// identical input may yield different tiers and scores; that
// non-determinism is accepted, not a defect.
const modelTemperature = 0.7

// ratingRubric is the fixed system instruction encoding the five-tier
// content rubric. The model must answer with a JSON object matching the
// verdict schema.
const ratingRubric = `You are a content rating assistant. Analyze the content and return a JSON object.
Always respond with a valid JSON object in this exact format:
{
    "rating": "[S/A/B/C/D]",
    "score": number between 1-100,
    "explanation": {
        "main_reason": "Primary reason for the rating",
        "strengths": ["List of content strengths"],
        "weaknesses": ["List of content weaknesses"],
        "relevance": "How well it matches the search query",
        "idea_count": "Number of valuable ideas found",
        "recommendation": "Brief recommendation for viewers"
    }
}

Criteria:
S Tier (Must Watch):
- Contains 8+ unique, valuable ideas
- Strong match with search query
- High-quality, well-structured content
- Provides unique insights or expert knowledge
- Comprehensive coverage of the topic

A Tier (Highly Recommended):
- Contains 6+ valuable ideas
- Good match with search query
- Clear and well-presented content
- Good depth of information
- Practical examples or demonstrations

B Tier (Worth Watching):
- Contains 4+ useful ideas
- Moderate match with search query
- Decent content organization
- Basic but solid information
- Some practical value

C Tier (Optional):
- Contains 2+ basic ideas
- Partial match with search query
- Basic or surface-level content
- Limited practical value
- May have some redundant information

D Tier (Skip):
- Few meaningful ideas
- Poor match with search query
- Unclear or disorganized content
- Very basic or redundant information
- Little to no practical value`

// Rater judges transcripts against search queries with Gemini.
type Rater struct {
	client *genai.Client
	model  string
}

func NewRater(ctx context.Context, cfg *config.AIConfig) (*Rater, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Rater{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Rate issues one rating request for a (transcript, query) pair. It never
// fails its caller: an unreachable model and a malformed answer both
// degrade to the sentinel D/0 rating, with the cause logged for diagnosis.
// No retry, no backoff.
func (r *Rater) Rate(ctx context.Context, transcript, query string) models.Rating {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Query: %s\n\nTranscript: %s", query, transcript)),
		}, genai.RoleUser),
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ratingRubric, genai.RoleUser),
		Temperature:       genai.Ptr[float32](modelTemperature),
	})
	if err != nil {
		log.Printf("Rating call failed for query %q: %v", query, err)
		return models.SentinelRating(fmt.Sprintf("Error generating rating: %v", err))
	}

	rating, err := parseRatingResponse(result.Text())
	if err != nil {
		log.Printf("Malformed rating response for query %q: %v", query, err)
		return models.SentinelRating(fmt.Sprintf("Error generating rating: %v", err))
	}

	return rating
}

// ratingVerdict is the strict shape the model must answer with. Scalar
// fields are pointers so an absent key is distinguishable from an empty
// value; only the list fields may be omitted.
type ratingVerdict struct {
	Rating      string `json:"rating"`
	Score       *int   `json:"score"`
	Explanation *struct {
		MainReason     *string    `json:"main_reason"`
		Strengths      []string   `json:"strengths"`
		Weaknesses     []string   `json:"weaknesses"`
		Relevance      *string    `json:"relevance"`
		IdeaCount      *ideaCount `json:"idea_count"`
		Recommendation *string    `json:"recommendation"`
	} `json:"explanation"`
}

// ideaCount tolerates the model answering with either a bare number or a
// descriptive string.
type ideaCount string

func (c *ideaCount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = ideaCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = ideaCount(n.String())
	return nil
}

// parseRatingResponse decodes the model's verdict. JSON is taken between
// the first '{' and the last '}' so surrounding prose or markdown fences
// don't break the parse. Every key is validated before use; absent list
// fields decode to empty slices.
func parseRatingResponse(response string) (models.Rating, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return models.Rating{}, fmt.Errorf("no JSON object in response: %q", truncateString(response, 120))
	}

	var verdict ratingVerdict
	if err := json.Unmarshal([]byte(response[start:end+1]), &verdict); err != nil {
		return models.Rating{}, fmt.Errorf("failed to unmarshal rating verdict: %w", err)
	}

	tier := models.Tier(strings.ToUpper(strings.TrimSpace(verdict.Rating)))
	if !tier.Valid() {
		return models.Rating{}, fmt.Errorf("unknown rating tier %q", verdict.Rating)
	}
	if verdict.Score == nil {
		return models.Rating{}, fmt.Errorf("rating verdict is missing score")
	}
	ex := verdict.Explanation
	if ex == nil {
		return models.Rating{}, fmt.Errorf("rating verdict has no explanation")
	}
	if ex.MainReason == nil || ex.Relevance == nil || ex.IdeaCount == nil || ex.Recommendation == nil {
		return models.Rating{}, fmt.Errorf("rating explanation is missing required fields")
	}

	score := *verdict.Score
	if score < 1 {
		score = 1
	} else if score > 100 {
		score = 100
	}

	explanation := &models.Explanation{
		MainReason:     *ex.MainReason,
		Strengths:      ex.Strengths,
		Weaknesses:     ex.Weaknesses,
		Relevance:      *ex.Relevance,
		IdeaCount:      string(*ex.IdeaCount),
		Recommendation: *ex.Recommendation,
	}
	if explanation.Strengths == nil {
		explanation.Strengths = []string{}
	}
	if explanation.Weaknesses == nil {
		explanation.Weaknesses = []string{}
	}

	return models.Rating{
		Tier:        tier,
		Score:       score,
		Explanation: FormatExplanation(tier, score, explanation),
		Analysis:    explanation,
	}, nil
}

// FormatExplanation renders a structured explanation into the display text
// shown beside a ranked video. Pure and deterministic: the same input
// always produces byte-identical output.
func FormatExplanation(tier models.Tier, score int, ex *models.Explanation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rating: %s (%d/100)\n\n", tier, score)
	fmt.Fprintf(&b, "Main Reason: %s\n\n", ex.MainReason)

	b.WriteString("Strengths:\n")
	for _, s := range ex.Strengths {
		fmt.Fprintf(&b, "• %s\n", s)
	}

	b.WriteString("\nWeaknesses:\n")
	for _, w := range ex.Weaknesses {
		fmt.Fprintf(&b, "• %s\n", w)
	}

	fmt.Fprintf(&b, "\nRelevance: %s\n", ex.Relevance)
	fmt.Fprintf(&b, "Ideas Found: %s\n\n", ex.IdeaCount)
	fmt.Fprintf(&b, "Recommendation: %s", ex.Recommendation)

	return b.String()
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
