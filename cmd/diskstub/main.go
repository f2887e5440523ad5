package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/diskconsole/internal/stubserver"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath, addr, seed string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/diskconsole/stub.yml)")
	flag.StringVar(&addr, "addr", "", "listen address (overrides addr)")
	flag.StringVar(&seed, "seed", "", "YAML file of commands to run at startup")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("diskstub - Disk Manager Stub Backend\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if seed != "" {
		cfg.Seed = seed
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runServer serves the stub backend until SIGINT or SIGTERM.
func runServer(cfg appConfig) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	backend := stubserver.NewBackend(stubserver.NewLogBuffer(cfg.LogBuffer))
	seeded := 0
	if cfg.Seed != "" {
		s, err := stubserver.LoadSeed(cfg.Seed)
		if err != nil {
			return err
		}
		n, err := s.Apply(context.Background(), backend)
		if err != nil {
			return err
		}
		seeded = n
	}

	srv := stubserver.NewServer(cfg.Addr, backend, version)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start stub server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	printStartupBanner(cfg, srv.Addr(), seeded)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		done := make(chan error, 1)
		go func() { done <- srv.Stop() }()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return fmt.Errorf("shutdown timed out")
		}
	})

	return g.Wait()
}

func printStartupBanner(cfg appConfig, addr string, seeded int) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("diskstub")+"  "+dim.Render("v"+version))
	lines = append(lines, "")
	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Backend"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render("http://"+addr)))
	lines = append(lines, fmt.Sprintf("    %s  Log buffer     %s", check, dim.Render(fmt.Sprintf("%d records", cfg.LogBuffer))))
	if cfg.Seed != "" {
		lines = append(lines, fmt.Sprintf("    %s  Seed           %s", check, dim.Render(fmt.Sprintf("%s (%d commands)", cfg.Seed, seeded))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Seed           %s", dot, dim.Render("none")))
	}
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(cfg.ConfigPath)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}
