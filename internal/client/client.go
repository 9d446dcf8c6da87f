package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/domain"
)

// HTTPError is a non-2xx backend response, carrying the detail string
// from the {"detail": ...} error body.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

// Client talks to the translation backend. Timeouts come from the
// request context so long-running translations can set their own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Models returns the model names available for a provider, presets first.
func (c *Client) Models(ctx context.Context, provider string) ([]string, error) {
	path := "/models"
	if provider != "" {
		path += "?provider=" + url.QueryEscape(provider)
	}

	var models []string
	if err := c.doRequest(ctx, "GET", path, nil, &models); err != nil {
		c.logger.Error("Failed to fetch models", zap.String("provider", provider), zap.Error(err))
		return nil, err
	}
	return models, nil
}

// Transcript fetches the captions for a video.
func (c *Client) Transcript(ctx context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error) {
	path := fmt.Sprintf("/get_transcript?video_id=%s&preserve_timestamps=%s",
		url.QueryEscape(videoID), strconv.FormatBool(preserveTimestamps))

	var result domain.TranscriptResult
	if err := c.doRequest(ctx, "GET", path, nil, &result); err != nil {
		c.logger.Error("Failed to fetch transcript", zap.String("video_id", videoID), zap.Error(err))
		return nil, err
	}
	return &result, nil
}

// Translate runs a single-shot translation.
func (c *Client) Translate(ctx context.Context, req domain.TranslationRequest) (string, error) {
	var resp domain.TranslationResponse
	if err := c.doRequest(ctx, "POST", "/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// TranslateStream streams a translation, invoking onChunk with each
// fragment as it arrives. Fragments arrive in order.
func (c *Client) TranslateStream(ctx context.Context, req domain.TranslationRequest, onChunk func(chunk string) error) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/translate_stream", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if err := onChunk(string(buf[:n])); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return readErr
		}
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	requestURL := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse parses the {"detail": ...} body, falling back to the
// raw body text when it isn't JSON.
func (c *Client) errorFromResponse(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var detail domain.ErrorDetail
	if err := json.Unmarshal(bodyBytes, &detail); err == nil && detail.Detail != "" {
		return &HTTPError{Status: resp.StatusCode, Detail: detail.Detail}
	}

	text := strings.TrimSpace(string(bodyBytes))
	if text == "" {
		text = resp.Status
	}
	return &HTTPError{Status: resp.StatusCode, Detail: text}
}
