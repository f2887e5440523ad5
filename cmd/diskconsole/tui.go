package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/diskconsole/internal/apiclient"
	"github.com/tinytelemetry/diskconsole/internal/archive"
	"github.com/tinytelemetry/diskconsole/internal/model"
	"github.com/tinytelemetry/diskconsole/internal/report"
	"github.com/tinytelemetry/diskconsole/internal/session"
	"github.com/tinytelemetry/diskconsole/internal/tui"
)

const healthTimeout = 2 * time.Second

// buildDeps wires the TUI pages to client and, when set, the archive.
func buildDeps(cfg appConfig, client tui.Backend, rec *archive.Recorder, header string) tui.Deps {
	renderer, err := report.NewRenderer(cfg.Report.Engine, cfg.Report.DotPath, cfg.Report.Format)
	if err != nil {
		log.Printf("report: %v; using outline renderer", err)
		renderer = report.OutlineRenderer{}
	}

	d := tui.NewDeps(client, renderer, cfg.Logs.RefreshInterval)
	d.Header = header
	d.ReportDir = cfg.Report.OutputDir
	d.Script.SkipComments = cfg.Script.SkipComments
	d.Script.StopOnError = cfg.Script.StopOnError
	if _, err := d.Logs.SetLimit(cfg.Logs.Limit); err != nil {
		log.Printf("logs: %v; keeping default limit", err)
	}
	if rec != nil {
		d.Session = session.New(client, session.WithRecorder(rec))
		d.Script.Recorder = rec
		d.Artifacts = rec
	}
	return d
}

func healthHeader(client *apiclient.Client) string {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	status := "connected"
	if err := client.Health(ctx); err != nil {
		log.Printf("health: %v", err)
		status = "unreachable: " + model.Message(err)
	}
	return fmt.Sprintf("diskconsole %s  %s (%s)", version, client.BaseURL(), status)
}

func runTUI(cfg appConfig, client *apiclient.Client, rec *archive.Recorder) error {
	app := tui.New(buildDeps(cfg, client, rec, healthHeader(client)))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
