package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
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
	"golang.org/x/sync/errgroup"

	"github.com/rookguy/healthbot/internal/api"
	"github.com/rookguy/healthbot/internal/profile"
	"github.com/rookguy/healthbot/internal/research"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with the research worker (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and profile status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the companion over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "healthbot.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "healthbot version %s\n", version)

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	setupLogging(os.Stderr, a.cfg.Log.Level)

	pidPath := pidFilePath(a.cfg.Storage.DataDir)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           api.NewRouter(a.routerDeps()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", srv.Addr, err)
		}
		printSuccess("healthbot listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	worker := research.NewWorker(a.journal, a.cfg.Research.PollDuration())
	g.Go(func() error { return worker.Run(gctx) })

	if a.cfg.Research.Weekly {
		scheduler := research.NewScheduler(a.journal, time.Hour)
		g.Go(func() error { return scheduler.Run(gctx) })
	} else {
		slog.Info("weekly research refresh disabled")
	}

	return g.Wait()
}

func runMCP() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	// stdout carries the MCP protocol; logs stay on stderr.
	setupLogging(os.Stderr, a.cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	worker := research.NewWorker(a.journal, a.cfg.Research.PollDuration())
	g.Go(func() error { return worker.Run(gctx) })

	g.Go(func() error {
		defer stop()
		stdio := server.NewStdioServer(api.NewMCPServer(a.mcpDeps(), version))
		slog.Info("MCP server started (stdio transport)")
		if err := stdio.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("healthbot is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop healthbot (PID %d): %v", pid, err)
		os.Remove(pidPath)
		return err
	}

	printSuccess("Sent stop signal to healthbot (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := newAPIClient(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var health map[string]string
	resp, err := client.get(pingCtx, "/health")
	switch {
	case err != nil:
		printStatus("Server", "stopped")
	case decodeJSON(resp, &health) != nil || health["status"] != "ok":
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
	default:
		printStatus("Server", "running at %s", client.baseURL)
	}

	p, err := profile.NewFileStore(cfg.Storage.ProfilePath).Load()
	switch {
	case errors.Is(err, profile.ErrNotFound):
		p = nil
	case err != nil:
		printWarning("could not read profile: %v", err)
		p = nil
	}
	fmt.Fprintln(out, profile.Summary(p))

	printStatus("Profile", "%s", cfg.Storage.ProfilePath)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
