package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/amabrowser/internal/api"
	"github.com/kalambet/amabrowser/internal/config"
	"github.com/kalambet/amabrowser/internal/render"
	"github.com/kalambet/amabrowser/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document API and HTML viewer (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runServer(addr)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running amabrowser server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and storage status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve document navigation tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
}

// pidFile records the PID of a running server in the data dir.
type pidFile string

func pidFileIn(dataDir string) pidFile {
	return pidFile(filepath.Join(dataDir, "amabrowser.pid"))
}

func (p pidFile) write() error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o755); err != nil {
		return err
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %w", p, err)
	}
	return pid, nil
}

// live returns the recorded PID if that process still exists. A stale file is removed.
func (p pidFile) live() (int, bool) {
	pid, err := p.read()
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err == nil && proc.Signal(syscall.Signal(0)) == nil {
		return pid, true
	}
	slog.Debug("removing stale PID file", "path", string(p), "pid", pid)
	p.remove()
	return 0, false
}

func (p pidFile) remove() {
	if err := os.Remove(string(p)); err != nil && !os.IsNotExist(err) {
		slog.Warn("removing PID file", "path", string(p), "error", err)
	}
}

func runServer(addr string) error {
	slog.Info("starting amabrowser", "version", version)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	pid := pidFileIn(cfg.Storage.DataDir)
	if running, ok := pid.live(); ok {
		printWarning("amabrowser is already running (PID %d)", running)
		return fmt.Errorf("server already running (PID %d)", running)
	}
	if healthy(http.DefaultClient, "http://"+addr) {
		printWarning("something is already listening on %s", addr)
		return fmt.Errorf("address %s already in use", addr)
	}
	if err := pid.write(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer pid.remove()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	if cfg.Server.Token == "" {
		slog.Warn("no server token configured, /api is unauthenticated", "env", "AMABROWSER_SERVER_TOKEN")
	}

	handler := api.NewHandler(api.Deps{
		Store:       store,
		Token:       cfg.Server.Token,
		CORSOrigins: cfg.Server.CORSOrigins,
		Renderer:    render.New(render.WithLocation(cfg.Location())),
		Logger:      slog.Default(),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		printSuccess("amabrowser listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		printStep("shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pid, ok := pidFileIn(cfg.Storage.DataDir).live()
	if !ok {
		printError("amabrowser is not running")
		return errors.New("server not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop amabrowser (PID %d): %v", pid, err)
		return err
	}

	printSuccess("Sent stop signal to amabrowser (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	switch {
	case healthy(http.DefaultClient, cfg.Client.BaseURL):
		printStatus("Server", "running at %s", cfg.Client.BaseURL)
	default:
		printStatus("Server", "not reachable at %s", cfg.Client.BaseURL)
	}
	if pid, ok := pidFileIn(cfg.Storage.DataDir).live(); ok {
		printStatus("PID", "%d", pid)
	}

	if store, err := storage.Open(cfg.Storage.DataDir); err == nil {
		if n, err := store.Count(); err == nil {
			printStatus("Documents", "%d", n)
		}
		if latest, err := store.Latest(); err == nil {
			printStatus("Latest", "%s", latest.ID)
		}
		store.Close()
	} else {
		printStatus("Documents", "unavailable (%v)", err)
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Config", "%s", config.ConfigFilePath())
	return nil
}

// healthy reports whether the server at baseURL answers /health with 200.
func healthy(client *http.Client, baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{Store: store})
	stdioSrv := server.NewStdioServer(mcpSrv)
	slog.Info("MCP server started (stdio transport)")
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
