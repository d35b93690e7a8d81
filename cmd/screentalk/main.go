package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alkime/screentalk/internal/capture"
	"github.com/alkime/screentalk/internal/config"
	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/internal/hotkey"
	"github.com/alkime/screentalk/internal/keyring"
	"github.com/alkime/screentalk/internal/logger"
	"github.com/alkime/screentalk/internal/recognize"
	"github.com/alkime/screentalk/internal/server"
	"github.com/alkime/screentalk/internal/tui"
	"github.com/alkime/screentalk/internal/voice"
	"github.com/alkime/screentalk/internal/voice/vapi"
	"github.com/alkime/screentalk/internal/workdir"
	"github.com/alkime/screentalk/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"golang.design/x/hotkey/mainthread"
)

const appName = "screentalk"

// serverDeliveryTimeout bounds how long a transition waits for the control
// server's stream hub before it is dropped for that subscriber.
const serverDeliveryTimeout = 250 * time.Millisecond

// Startup seams, replaced in tests.
var (
	registerHotkey = hotkey.Register
	notifyFailure  = alert
)

// CLI defines the screentalk command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Run RunCmd `cmd:"" default:"withargs" help:"Wait for the hotkey, read the screen, and talk about it"`

	// Subcommands
	OCR      OCRCmd      `cmd:"" name:"ocr" help:"Capture the screen once and print the recognized text"`
	Displays DisplaysCmd `cmd:"" help:"List active displays"`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration"`
}

// RunCmd is the default command: hotkey, TUI, and optional control server.
type RunCmd struct {
	Hotkey      string `flag:"" optional:"" help:"Override HOTKEY (e.g. ctrl+shift+o)"`
	NoHotkey    bool   `flag:"" help:"Do not register a global hotkey; trigger from the TUI or control server only"`
	ControlAddr string `flag:"" optional:"" help:"Override CONTROL_ADDR and serve the control API there"`
	Backend     string `flag:"" optional:"" help:"Override CAPTURE_BACKEND"`
}

// Run executes the run command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *RunCmd) Run() error {
	cfg, err := loadConfig(config.OpenAIKeyVar, config.VapiKeyVar)
	if err != nil {
		notifyFailure(err)
		return err
	}
	c.override(cfg)

	if err := cfg.Validate(); err != nil {
		notifyFailure(err)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var binding hotkey.Binding
	if !c.NoHotkey {
		if binding, err = hotkey.Parse(cfg.Hotkey); err != nil {
			return fmt.Errorf("invalid HOTKEY: %w", err)
		}
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := workdir.OpenLog()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.SetupLogger(logFile, cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting screentalk",
		"backend", cfg.CaptureBackend,
		"model", cfg.OpenAIModel,
		"assistant", cfg.VapiAssistantID,
		"control_addr", cfg.ControlAddr,
	)

	ctrl, err := newController(cfg, log)
	if err != nil {
		return err
	}

	tuiC := make(chan controller.Transition, 16)
	if err := ctrl.Subscribe(tuiC); err != nil {
		return fmt.Errorf("failed to subscribe TUI: %w", err)
	}

	var serverC chan controller.Transition
	if cfg.ControlAddr != "" {
		serverC = make(chan controller.Transition, 16)
		if err := ctrl.SubscribeWithTimeout(serverC, serverDeliveryTimeout); err != nil {
			return fmt.Errorf("failed to subscribe control server: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := sync.WaitGroup{}

	wg.Go(func() {
		if err := ctrl.Run(ctx); err != nil {
			log.Error("Controller stopped", "error", err)
		}
	})

	if !c.NoHotkey {
		listener, err := registerHotkey(binding)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to register hotkey %s: %w", binding.Name, err)
		}

		wg.Go(func() {
			listener.Listen(ctx, func() {
				if !ctrl.Trigger() {
					log.Info("Trigger ignored", "phase", ctrl.Phase())
				}
			})
		})
	}

	if serverC != nil {
		srv, err := server.New(ctrl, serverC, log)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to create control server: %w", err)
		}

		wg.Go(func() {
			if err := srv.Run(ctx, cfg.ControlAddr); err != nil {
				log.Error("Control server error", "error", err)
			}
		})
	}

	hotkeyName := ""
	if !c.NoHotkey {
		hotkeyName = binding.Name
	}

	p := tea.NewProgram(tui.New(tui.Config{
		Cancel:         cancel,
		Trigger:        uictl.ButtonFunc(ctrl.Trigger),
		Reset:          uictl.ButtonFunc(ctrl.Reset),
		Phase:          uictl.GaugeFunc[controller.Phase](ctrl.Phase),
		Transitions:    tuiC,
		Hotkey:         hotkeyName,
		ControlAddr:    cfg.ControlAddr,
		RequestTimeout: cfg.RequestTimeout,
	}), tea.WithAltScreen())

	_, runErr := p.Run()
	cancel()
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}

	fmt.Println("bye!")

	return nil
}

func (c *RunCmd) override(cfg *config.Config) {
	if c.Hotkey != "" {
		cfg.Hotkey = c.Hotkey
	}
	if c.ControlAddr != "" {
		cfg.ControlAddr = c.ControlAddr
	}
	if c.Backend != "" {
		cfg.CaptureBackend = c.Backend
	}
}

// OCRCmd captures and recognizes once without opening a voice session.
type OCRCmd struct {
	Sections bool `flag:"" help:"Print the summary and OCR sections separately"`
}

// Run executes the ocr command.
func (c *OCRCmd) Run() error {
	cfg, err := loadConfig(config.OpenAIKeyVar)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	capturer, err := capture.New(cfg.CaptureBackend, cfg.ScreenshotPath, cfg.CaptureCommand)
	if err != nil {
		return fmt.Errorf("failed to create capturer: %w", err)
	}

	ctx := context.Background()

	start := time.Now()
	path, err := capturer.Capture(ctx)
	if err != nil {
		return err
	}
	slog.Info("Screen captured", "path", path, "duration", time.Since(start))

	text, err := newRecognizer(cfg).Recognize(ctx, path)
	if err != nil {
		return err
	}
	slog.Info("Screen recognized", "chars", len(text), "duration", time.Since(start))

	if !c.Sections {
		fmt.Println(text)
		return nil
	}

	sections := recognize.ParseSections(text)
	fmt.Printf("Summary:\n%s\n\nScreen text:\n%s\n", sections.Summary, sections.OCR)

	return nil
}

// DisplaysCmd lists active displays.
type DisplaysCmd struct{}

// Run executes the displays command.
func (dcmd *DisplaysCmd) Run() error {
	displays := capture.Displays()
	if len(displays) == 0 {
		return errors.New("no active displays found")
	}

	for i, bounds := range displays {
		slog.Info("Display",
			"index", i,
			"bounds", bounds.String(),
			"width", bounds.Dx(),
			"height", bounds.Dy(),
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey    SetKeyCmd    `cmd:"" help:"Store an API key in system keychain"`
	DeleteKey DeleteKeyCmd `cmd:"" name:"delete-key" help:"Remove an API key from system keychain"`
	ListKeys  ListKeysCmd  `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,vapi" help:"Service name (openai or vapi)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, strings.TrimSpace(c.Secret)); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// DeleteKeyCmd removes an API key from the system keychain.
type DeleteKeyCmd struct {
	Service string `arg:"" enum:"openai,vapi" help:"Service name (openai or vapi)"`
}

// Run executes the delete-key command.
func (c *DeleteKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if !keyring.IsSet(apiKey) {
		fmt.Printf("%s API key is not in keychain\n", c.Service)
		return nil
	}

	if err := keyring.Delete(apiKey); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	fmt.Printf("%s API key removed from keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		switch {
		case os.Getenv(apiKey.EnvVar()) != "":
			fmt.Printf("%s: configured (%s)\n", apiKey.DisplayName(), apiKey.EnvVar())
		case keyring.IsSet(apiKey):
			fmt.Printf("%s: configured (keychain)\n", apiKey.DisplayName())
		default:
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'screentalk config set-key <service> <key>' to configure.")
	}

	return nil
}

func main() {
	// Set up text-based logger for CLI output; run replaces it with a file logger.
	logger.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"), "text")

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name(appName),
		kong.Description("Read the screen on a hotkey and talk about it with a voice assistant."),
	)

	// The hotkey backend needs the process main thread on macOS.
	var err error
	mainthread.Init(func() {
		err = ctx.Run()
	})
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

// loadConfig loads configuration with the keychain as fallback and checks
// the named credentials.
func loadConfig(required ...string) (*config.Config, error) {
	cfg, err := config.LoadConfig(keyring.Lookup)
	if err != nil {
		return nil, err
	}

	if err := cfg.Require(required...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// alert surfaces a startup failure outside the terminal as well, since run
// is usually started from a launcher.
func alert(err error) {
	if aerr := beeep.Alert(appName, err.Error(), ""); aerr != nil {
		slog.Debug("failed to show alert", "error", aerr)
	}
}

func newRecognizer(cfg *config.Config) *recognize.OpenAI {
	return recognize.NewOpenAI(recognize.Config{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.RequestTimeout,
	})
}

func newController(cfg *config.Config, log *slog.Logger) (*controller.Controller, error) {
	capturer, err := capture.New(cfg.CaptureBackend, cfg.ScreenshotPath, cfg.CaptureCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to create capturer: %w", err)
	}

	session := voice.NewVapiSession(
		vapi.NewClient(cfg.VapiBaseURL, cfg.VapiAPIKey, cfg.RequestTimeout, nil),
		voice.VapiConfig{
			AssistantID: cfg.VapiAssistantID,
			Timeout:     cfg.RequestTimeout,
		},
	)

	ctrl, err := controller.New(controller.Deps{
		Capturer:   capturer,
		Recognizer: newRecognizer(cfg),
		Session:    session,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	return ctrl, nil
}
