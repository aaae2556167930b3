package youtube

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimedTextURL = "https://video.google.com/timedtext"

// TranscriptClient fetches caption tracks from the timedtext endpoint and
// flattens them into a single text blob. An absent transcript is an
// expected outcome, not a defect: callers are expected to treat any error
// as "no transcript" and drop the video. One attempt, no retry.
type TranscriptClient struct {
	baseURL string
	lang    string
	client  *http.Client
}

func NewTranscriptClient(lang string) *TranscriptClient {
	if lang == "" {
		lang = "en"
	}
	return &TranscriptClient{
		baseURL: defaultTimedTextURL,
		lang:    lang,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// timedTextTrack mirrors the timedtext XML payload: an ordered sequence of
// timed text segments.
type timedTextTrack struct {
	XMLName  xml.Name `xml:"transcript"`
	Segments []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Text  string  `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the transcript for a video. The fetcher deliberately does
// not distinguish failure causes (disabled captions, private video, network
// error) to its caller.
func (t *TranscriptClient) Fetch(ctx context.Context, videoID string) (string, error) {
	u := fmt.Sprintf("%s?lang=%s&v=%s", t.baseURL, url.QueryEscape(t.lang), url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create transcript request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript endpoint returned status %d for %s", resp.StatusCode, videoID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript response: %w", err)
	}

	// The endpoint answers 200 with an empty body when no caption track
	// exists for the requested language.
	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("no caption track for video %s", videoID)
	}

	var track timedTextTrack
	if err := xml.Unmarshal(body, &track); err != nil {
		return "", fmt.Errorf("failed to parse transcript for %s: %w", videoID, err)
	}

	parts := make([]string, 0, len(track.Segments))
	for _, seg := range track.Segments {
		text := strings.TrimSpace(html.UnescapeString(seg.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("empty caption track for video %s", videoID)
	}

	return strings.Join(parts, " "), nil
}
