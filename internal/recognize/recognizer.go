// Package recognize turns a screenshot into a textual description through a
// vision-capable chat-completions endpoint.
package recognize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Recognizer describes an image as text with SUMMARY: and OCR: sections.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Error reports a failed recognition request.
type Error struct {
	// StatusCode is the HTTP status returned by the endpoint, zero when the
	// request never produced a response.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("recognition failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("recognition failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config configures an OpenAI recognizer.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// OpenAI issues one chat completion per image with the image inlined as a
// base64 data URI.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAI creates a recognizer. The SDK's automatic retries are disabled;
// a failed request surfaces immediately.
func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4Turbo)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Recognize reads the image at imagePath and returns the model's first
// choice verbatim.
func (o *OpenAI) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", &Error{Err: fmt.Errorf("failed to read image: %w", err)}
	}
	if len(data) == 0 {
		return "", &Error{Err: errors.New("image is empty")}
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, o.params(data))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &Error{Err: fmt.Errorf("failed to create chat completion: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Err: errors.New("response contained no choices")}
	}

	// Content is passed on as returned; only a missing (null) field fails.
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", &Error{Err: errors.New("response contained no content")}
	}

	slog.Debug("image recognized",
		"model", o.model,
		"image_bytes", len(data),
		"chars", len(text),
		"elapsed", time.Since(start),
	)

	return text, nil
}

func (o *OpenAI) params(image []byte) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(Prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: DataURI(image),
		}),
	}

	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			},
		}},
		MaxTokens: openai.Int(o.maxTokens),
	}
}

// DataURI encodes a JPEG image for inline transport.
func DataURI(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}
