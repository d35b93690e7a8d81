package recognize_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/screentalk/internal/recognize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func writeImage(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screenshot.jpg")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4-turbo",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newRecognizer(srv *httptest.Server) *recognize.OpenAI {
	return recognize.NewOpenAI(recognize.Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1/",
		Model:      "gpt-4-turbo",
		MaxTokens:  300,
		Timeout:    5 * time.Second,
		HTTPClient: srv.Client(),
	})
}

func TestOpenAI_Recognize(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("SUMMARY: cat\nOCR: cat")))
	}))
	defer srv.Close()

	path := writeImage(t, "jpeg-bytes")
	text, err := newRecognizer(srv).Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "SUMMARY: cat\nOCR: cat", text)

	assert.Equal(t, "gpt-4-turbo", got.Model)
	assert.Equal(t, int64(300), got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "text", got.Messages[0].Content[0].Type)
	assert.Equal(t, recognize.Prompt, got.Messages[0].Content[0].Text)
	assert.Equal(t, "image_url", got.Messages[0].Content[1].Type)
	assert.Equal(t, recognize.DataURI([]byte("jpeg-bytes")), got.Messages[0].Content[1].ImageURL.URL)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestOpenAI_RecognizeFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "server error is not retried",
			status:     http.StatusInternalServerError,
			body:       `{"error":{"message":"boom"}}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4-turbo","choices":[]}`,
			wantMsg: "no choices",
		},
		{
			name:    "null content",
			status:  http.StatusOK,
			body:    `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4-turbo","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":null}}]}`,
			wantMsg: "no content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			text, err := newRecognizer(srv).Recognize(context.Background(), writeImage(t, "img"))
			assert.Empty(t, text)

			var recErr *recognize.Error
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.wantStatus, recErr.StatusCode)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, int32(1), calls.Load(), "exactly one request")
		})
	}
}

func TestOpenAI_RecognizeMissingImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	_, err := newRecognizer(srv).Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))

	var recErr *recognize.Error
	require.ErrorAs(t, err, &recErr)
	assert.Contains(t, err.Error(), "failed to read image")
}

func TestOpenAI_RecognizeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	r := newRecognizer(srv)
	srv.Close()

	_, err := r.Recognize(context.Background(), writeImage(t, "img"))

	var recErr *recognize.Error
	require.ErrorAs(t, err, &recErr)
	assert.Zero(t, recErr.StatusCode)
}

func TestOpenAI_RecognizeReturnsContentVerbatim(t *testing.T) {
	for _, content := range []string{"  ", "\nSUMMARY: blank screen\nOCR:\n"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completion(content)))
		}))

		text, err := newRecognizer(srv).Recognize(context.Background(), writeImage(t, "img"))
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, content, text)
	}
}
