package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkime/screentalk/internal/voice/vapi"
	"github.com/pkg/browser"
)

// DefaultPollInterval is how often a live call's status is checked.
const DefaultPollInterval = 2 * time.Second

// CallAPI is the part of the Vapi client a session uses.
type CallAPI interface {
	CreateWebCall(ctx context.Context, req vapi.CreateWebCallRequest) (*vapi.Call, error)
	GetCall(ctx context.Context, id string) (*vapi.Call, error)
}

// VapiConfig configures a VapiSession.
type VapiConfig struct {
	AssistantID  string
	Timeout      time.Duration
	PollInterval time.Duration

	// OpenURL joins the call; defaults to the system browser.
	OpenURL func(url string) error
}

// VapiSession opens Vapi web calls and joins them in the browser.
type VapiSession struct {
	api  CallAPI
	cfg  VapiConfig
	open func(string) error
}

// NewVapiSession creates a session opener using api.
func NewVapiSession(api CallAPI, cfg VapiConfig) *VapiSession {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	open := cfg.OpenURL
	if open == nil {
		open = browser.OpenURL
	}

	return &VapiSession{
		api:  api,
		cfg:  cfg,
		open: open,
	}
}

// Start creates a web call with screenData bound to the assistant's
// screendata variable, joins it, and watches it until it ends or ctx is
// cancelled. ctx bounds the whole session; the create request additionally
// honors the configured timeout.
func (s *VapiSession) Start(ctx context.Context, screenData string) (*Call, error) {
	reqCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	created, err := s.api.CreateWebCall(reqCtx, vapi.CreateWebCallRequest{
		AssistantID: s.cfg.AssistantID,
		AssistantOverrides: &vapi.AssistantOverrides{
			VariableValues: map[string]string{ScreenDataVar: screenData},
		},
	})
	if err != nil {
		return nil, &Error{Op: "create", Err: err}
	}

	if err := s.open(created.WebCallURL); err != nil {
		return nil, &Error{Op: "join", Err: fmt.Errorf("failed to open %s: %w", created.WebCallURL, err)}
	}

	slog.Info("voice session started", "call", created.ID, "assistant", s.cfg.AssistantID)

	call := NewCall(created.ID, created.WebCallURL)
	go s.watch(ctx, call)

	return call, nil
}

// watch polls the call until the remote side reports it ended. Transient
// poll failures are logged and retried on the next tick.
func (s *VapiSession) watch(ctx context.Context, call *Call) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			call.End("cancelled")
			return
		case <-ticker.C:
		}

		pollCtx := ctx
		cancel := context.CancelFunc(func() {})
		if s.cfg.Timeout > 0 {
			pollCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		}
		remote, err := s.api.GetCall(pollCtx, call.ID)
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				continue
			}
			slog.Warn("voice session status check failed", "call", call.ID, "error", err)
			continue
		}

		if remote.Status == vapi.StatusEnded {
			slog.Info("voice session ended", "call", call.ID, "reason", remote.EndedReason)
			call.End(remote.EndedReason)
			return
		}
	}
}
