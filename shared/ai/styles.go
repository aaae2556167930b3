package ai

// SummaryStyle is a selectable summarization style: a display name, a short
// description for pickers, and the system prompt driving the summary.
type SummaryStyle struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// DefaultStyles returns the built-in summary styles. Concise doubles as the
// fallback for unknown style names.
func DefaultStyles() []SummaryStyle {
	return []SummaryStyle{
		{
			Name:        "Concise",
			Description: "A brief overview of main points",
			Prompt:      "Provide a concise summary of the main points from this transcript in 3-4 bullet points.",
		},
		{
			Name:        "Detailed",
			Description: "Comprehensive breakdown with examples",
			Prompt:      "Provide a detailed summary of the transcript, including key concepts, examples, and any important details mentioned.",
		},
		{
			Name:        "Academic",
			Description: "Academic-style analysis",
			Prompt:      "Analyze this transcript in an academic style, including: main thesis, key arguments, methodology (if any), and conclusions.",
		},
		{
			Name:        "ELI5",
			Description: "Explain Like I'm 5",
			Prompt:      "Explain the main concepts from this transcript in simple terms, as if explaining to a child.",
		},
	}
}

// StylePrompt resolves a style name to its prompt. Custom styles take
// precedence over built-ins with the same name; an unknown name falls back
// to Concise.
func StylePrompt(name string, custom []SummaryStyle) string {
	for _, style := range custom {
		if style.Name == name {
			return style.Prompt
		}
	}

	styles := DefaultStyles()
	for _, style := range styles {
		if style.Name == name {
			return style.Prompt
		}
	}
	return styles[0].Prompt
}
