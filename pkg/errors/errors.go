package errors

import "fmt"

// Error codes
const (
	CodeAPIError    = "API_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeAPIKey      = "API_KEY_ERROR"
	CodeStore       = "STORE_ERROR"
	CodeTranscript  = "TRANSCRIPT_ERROR"
	CodeTranslation = "TRANSLATION_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type APIKeyError struct {
	*AppError
	Provider string
}

func NewAPIKeyError(message, provider string) *APIKeyError {
	return &APIKeyError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIKey,
			StatusCode: 500,
			Context: map[string]any{
				"provider": provider,
			},
		},
		Provider: provider,
	}
}

type StoreError struct {
	*AppError
	Operation string
	Key       string
}

func NewStoreError(message, operation, key string, cause error) *StoreError {
	return &StoreError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeStore,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// TranscriptError marks caption lookup failures. NotFound distinguishes
// "video has no captions" (404) from fetch/parse failures (500).
type TranscriptError struct {
	*AppError
	VideoID  string
	NotFound bool
}

func NewTranscriptError(message, videoID string, notFound bool, cause error) *TranscriptError {
	status := 500
	if notFound {
		status = 404
	}
	return &TranscriptError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeTranscript,
			StatusCode: status,
			Context: map[string]any{
				"video_id": videoID,
			},
			Cause: cause,
		},
		VideoID:  videoID,
		NotFound: notFound,
	}
}

type TranslationError struct {
	*AppError
	Model          string
	TargetLanguage string
}

func NewTranslationError(message, model, targetLanguage string, cause error) *TranslationError {
	return &TranslationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeTranslation,
			StatusCode: 500,
			Context: map[string]any{
				"model":           model,
				"target_language": targetLanguage,
			},
			Cause: cause,
		},
		Model:          model,
		TargetLanguage: targetLanguage,
	}
}
