package viewer

import (
	"encoding/json"

	"github.com/sehyun/yt-translator-go/internal/domain"
)

// Actions accepted over the bridge websocket.
const (
	ActionShowVideo       = "showVideoId"
	ActionLoadModels      = "loadModels"
	ActionFetchTranscript = "fetchTranscript"
	ActionTranslate       = "translate"
	ActionToggleTimestamp = "toggleTimestamps"
	ActionLoadLanguages   = "loadLanguages"
)

// Message is one inbound bridge frame. Data is decoded per action.
type Message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ShowVideoData accompanies ActionShowVideo.
type ShowVideoData struct {
	domain.VideoRef
}

// LoadModelsData accompanies ActionLoadModels.
type LoadModelsData struct {
	Provider string `json:"provider,omitempty"`
}

// FetchTranscriptData accompanies ActionFetchTranscript.
type FetchTranscriptData struct {
	VideoID string `json:"videoId"`
	Title   string `json:"videoTitle,omitempty"`
	FullURL string `json:"fullUrl,omitempty"`
}

// TranslateData accompanies ActionTranslate. Stream is optional: when
// the page omits it, the persisted use_streaming preference decides the
// mode; when present, it also updates that preference.
type TranslateData struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	TargetLanguage   string `json:"target_language,omitempty"`
	Stream           *bool  `json:"stream,omitempty"`
	ShowNotification bool   `json:"show_notification,omitempty"`
}

// Outbound event types rendered by the viewer page.
const (
	EventStatus       = "status"
	EventOutput       = "output"
	EventAppendOutput = "appendOutput"
	EventError        = "error"
	EventControls     = "controls"
	EventProgress     = "progress"
	EventModels       = "models"
	EventLanguages    = "languages"
	EventTranscript   = "transcript"
	EventAck          = "ack"
)

// LanguageOption is one target-language choice.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Event is one outbound bridge frame.
type Event struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	Enabled   *bool            `json:"enabled,omitempty"`
	Models    []string         `json:"models,omitempty"`
	Selected  string           `json:"selected,omitempty"`
	Languages []LanguageOption `json:"languages,omitempty"`
	HTML      string           `json:"html,omitempty"`
}
