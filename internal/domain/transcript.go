package domain

// TranscriptSnippet is a single caption cue. Start and Duration are in
// seconds.
type TranscriptSnippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptResult is the /get_transcript response.
type TranscriptResult struct {
	Transcript   string `json:"transcript"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	IsGenerated  bool   `json:"is_generated"`
	Translated   bool   `json:"translated"`
	Title        string `json:"title,omitempty"`
}
