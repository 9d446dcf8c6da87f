package domain

// TranslationRequest is the body of /translate and /translate_stream.
type TranslationRequest struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	TargetLanguage   string `json:"target_language"`
	ShowNotification bool   `json:"show_notification"`
}

type TranslationResponse struct {
	TranslatedText string `json:"translated_text"`
}

// ErrorDetail is the error body shape shared by every endpoint.
type ErrorDetail struct {
	Detail string `json:"detail"`
}
