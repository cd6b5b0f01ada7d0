// ABOUTME: Entry point for the taskchat server
// ABOUTME: Serves the todo API and the model-driven chat endpoint

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/tessellated/taskchat/internal/api"
	"github.com/tessellated/taskchat/internal/auth"
	"github.com/tessellated/taskchat/internal/chat"
	"github.com/tessellated/taskchat/internal/config"
	"github.com/tessellated/taskchat/internal/llm"
	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
	"github.com/tessellated/taskchat/internal/tools"
	"github.com/tessellated/taskchat/internal/user"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _            _        _           _
| |_ __ _ ___| | _____| |__   __ _| |_
| __/ _' / __| |/ / __| '_ \ / _' | __|
| || (_| \__ \   < (__| | | | (_| | |_
 \__\__,_|___/_|\_\___|_| |_|\__,_|\__|
`

// getConfigPath returns the path to the taskchat config file.
// Priority: TASKCHAT_CONFIG env var > XDG_CONFIG_HOME/taskchat/config.yaml > ~/.config/taskchat/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TASKCHAT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "taskchat", "config.yaml")
}

// getDataPath returns the path to the taskchat data directory.
// Priority: XDG_DATA_HOME/taskchat > ~/.local/share/taskchat
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "taskchat")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: taskchat <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the taskchat server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Model:    %s\n", cfg.Model.Name)
	green.Print("    ▶ ")
	fmt.Printf("Tools:    %s\n", cfg.Tools.Mode)
	fmt.Println()

	logger.Info("starting taskchat",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"tools_mode", cfg.Tools.Mode,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	taskSvc := task.NewService(st)
	registry := tools.NewRegistry()

	var executor tools.Executor
	switch cfg.Tools.Mode {
	case config.ToolModeSubprocess:
		sub := tools.NewSubprocessExecutor(tools.SubprocessConfig{
			Command: cfg.Tools.Command,
			Args:    cfg.Tools.Args,
			Dir:     cfg.Tools.Dir,
			Env:     cfg.Tools.Env,
			Logger:  logger.With("component", "tools"),
		})
		defer sub.Close()
		executor = sub
	default:
		executor = tools.NewLocalExecutor(registry, taskSvc)
	}

	modelClient := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	})

	chatSvc := chat.NewService(st, modelClient, registry, executor)
	tokens := auth.NewTokens([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	apiSrv := api.New(user.NewService(st), taskSvc, chatSvc, tokens)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

func (h *colorHandler) WithGroup(_ string) slog.Handler {
	return h
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("taskchat configuration setup")
	fmt.Println("============================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "taskchat.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Model Configuration ---")
	modelName := prompt(reader, "Model name", "gpt-4o-mini")
	baseURL := prompt(reader, "Base URL (empty for OpenAI)", "")
	apiKeyEnv := prompt(reader, "API key environment variable", "TASKCHAT_API_KEY")

	fmt.Println("\n--- Tools Configuration ---")
	toolMode := prompt(reader, "Tool mode (local/subprocess)", "local")
	var toolCommand string
	if toolMode == config.ToolModeSubprocess {
		toolCommand = prompt(reader, "Tool server command", "taskchat-tools")
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate a random JWT secret
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	var cfg strings.Builder
	cfg.WriteString("# taskchat configuration\n")
	cfg.WriteString("# Generated by taskchat init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	cfg.WriteString("  access_ttl: \"15m\"\n")
	cfg.WriteString("  refresh_ttl: \"168h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("model:\n")
	cfg.WriteString(fmt.Sprintf("  name: \"%s\"\n", modelName))
	if baseURL != "" {
		cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", baseURL))
	}
	cfg.WriteString(fmt.Sprintf("  api_key: \"${%s}\"\n", apiKeyEnv))
	cfg.WriteString("\n")

	cfg.WriteString("tools:\n")
	cfg.WriteString(fmt.Sprintf("  mode: \"%s\"\n", toolMode))
	if toolCommand != "" {
		cfg.WriteString(fmt.Sprintf("  command: \"%s\"\n", toolCommand))
		cfg.WriteString(fmt.Sprintf("  args: [\"--db\", \"%s\"]\n", dbPath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  taskchat serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
