package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/service/history"
	"github.com/sehyun/yt-translator-go/internal/service/translator"
	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

// Translator is the slice of the translation service the handlers need.
type Translator interface {
	Translate(ctx context.Context, text, model, targetLanguage string) (string, error)
	TranslateStream(ctx context.Context, text, model, targetLanguage string, emit translator.StreamFunc) error
	AvailableModels(ctx context.Context, provider string) ([]string, error)
	SavePresetModel(ctx context.Context, model string) error
}

// TranscriptFetcher resolves a video's captions.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error)
}

// Notifier announces completed translations when requested.
type Notifier interface {
	TranslationComplete(model string)
}

// Recorder persists completed translations. Optional.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

type Server struct {
	translator Translator
	transcript TranscriptFetcher
	notifier   Notifier
	recorder   Recorder
	logger     *zap.Logger
}

func NewServer(t Translator, tf TranscriptFetcher, n Notifier, rec Recorder, logger *zap.Logger) *Server {
	return &Server{
		translator: t,
		transcript: tf,
		notifier:   n,
		recorder:   rec,
		logger:     logger,
	}
}

// record writes a history entry, logging rather than failing the request
// when persistence is down.
func (s *Server) record(ctx context.Context, entry history.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record translation history", zap.Error(err))
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/models", s.handleModels)
	r.Get("/get_transcript", s.handleTranscript)
	r.Post("/translate", s.handleTranslate)
	r.Post("/translate_stream", s.handleTranslateStream)

	return r
}

// writeDetail writes the {"detail": ...} error body every endpoint uses.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorDetail{Detail: detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps service errors to HTTP statuses: validation failures
// are the client's fault, everything else is a server error.
func statusFor(err error) int {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var transcriptErr *apperrors.TranscriptError
	if errors.As(err, &transcriptErr) {
		return transcriptErr.StatusCode
	}
	return http.StatusInternalServerError
}

func errorDetail(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = translator.DefaultProvider
	}

	models, err := s.translator.AvailableModels(r.Context(), provider)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			s.writeDetail(w, http.StatusBadRequest, errorDetail(err))
			return
		}
		s.logger.Error("Model listing failed", zap.String("provider", provider), zap.Error(err))
		s.writeDetail(w, http.StatusInternalServerError, "모델 목록을 가져올 수 없습니다")
		return
	}
	if models == nil {
		models = []string{}
	}
	s.writeJSON(w, http.StatusOK, models)
}

func (s *Server) decodeTranslationRequest(w http.ResponseWriter, r *http.Request) (*domain.TranslationRequest, bool) {
	var req domain.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
		return nil, false
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeDetail(w, http.StatusBadRequest, "번역할 텍스트가 비어 있습니다.")
		return nil, false
	}
	if req.Model == "" {
		s.writeDetail(w, http.StatusBadRequest, "모델이 지정되지 않았습니다.")
		return nil, false
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = "한국어"
	} else if domain.IsSupportedLanguage(req.TargetLanguage) {
		// Clients may send an ISO code; providers are prompted with the
		// display name.
		req.TargetLanguage = domain.LanguageName(req.TargetLanguage)
	}
	return &req, true
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTranslationRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	translated, err := s.translator.Translate(r.Context(), req.Text, req.Model, req.TargetLanguage)
	if err != nil {
		s.logger.Error("Translation failed", zap.String("model", req.Model), zap.Error(err))
		s.writeDetail(w, statusFor(err), errorDetail(err))
		return
	}

	s.record(r.Context(), history.Entry{
		Model:          req.Model,
		TargetLanguage: req.TargetLanguage,
		SourceLength:   len(req.Text),
		ResultLength:   len(translated),
		DurationMs:     time.Since(start).Milliseconds(),
	})

	if err := s.translator.SavePresetModel(r.Context(), req.Model); err != nil {
		s.logger.Warn("Failed to save preset model", zap.String("model", req.Model), zap.Error(err))
	}
	if req.ShowNotification && s.notifier != nil {
		s.notifier.TranslationComplete(req.Model)
	}

	s.writeJSON(w, http.StatusOK, domain.TranslationResponse{TranslatedText: translated})
}

func (s *Server) handleTranslateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTranslationRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)

	// Stream errors after the first write can only abort the body, so
	// the response status is committed before any fragment goes out.
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	start := time.Now()
	wroteHeader := false
	streamed := 0
	err := s.translator.TranslateStream(r.Context(), req.Text, req.Model, req.TargetLanguage, func(chunk string) error {
		streamed += len(chunk)
		if !wroteHeader {
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}
		if _, writeErr := w.Write([]byte(chunk)); writeErr != nil {
			return writeErr
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})

	if req.ShowNotification && s.notifier != nil {
		defer s.notifier.TranslationComplete(req.Model)
	}

	if err != nil {
		if !wroteHeader {
			s.logger.Error("Streaming translation failed", zap.String("model", req.Model), zap.Error(err))
			s.writeDetail(w, statusFor(err), errorDetail(err))
			return
		}
		// Mid-stream failure: the 200 is already on the wire.
		s.logger.Error("Stream aborted mid-flight", zap.String("model", req.Model), zap.Error(err))
		return
	}

	if !wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	s.record(r.Context(), history.Entry{
		Model:          req.Model,
		TargetLanguage: req.TargetLanguage,
		SourceLength:   len(req.Text),
		ResultLength:   streamed,
		Streamed:       true,
		DurationMs:     time.Since(start).Milliseconds(),
	})

	if err := s.translator.SavePresetModel(r.Context(), req.Model); err != nil {
		s.logger.Warn("Failed to save preset model", zap.String("model", req.Model), zap.Error(err))
	}
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		s.writeDetail(w, http.StatusBadRequest, "video_id가 필요합니다.")
		return
	}

	preserveTimestamps := false
	if raw := r.URL.Query().Get("preserve_timestamps"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeDetail(w, http.StatusBadRequest, "preserve_timestamps 값이 올바르지 않습니다.")
			return
		}
		preserveTimestamps = parsed
	}

	if translateTo := r.URL.Query().Get("translate_to"); translateTo != "" {
		s.logger.Debug("translate_to requested but transcript translation is handled client-side",
			zap.String("translate_to", translateTo))
	}

	result, err := s.transcript.Fetch(r.Context(), videoID, preserveTimestamps)
	if err != nil {
		var transcriptErr *apperrors.TranscriptError
		if errors.As(err, &transcriptErr) && transcriptErr.NotFound {
			s.writeDetail(w, http.StatusNotFound, transcriptErr.Message)
			return
		}
		s.logger.Error("Transcript fetch failed", zap.String("video_id", videoID), zap.Error(err))
		s.writeDetail(w, http.StatusInternalServerError,
			fmt.Sprintf("자막을 가져오는 중 오류가 발생했습니다: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}
