package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/diskconsole/internal/archive"
	"github.com/tinytelemetry/diskconsole/internal/logview"
	"github.com/tinytelemetry/diskconsole/internal/model"
	"github.com/tinytelemetry/diskconsole/internal/report"
	"github.com/tinytelemetry/diskconsole/internal/script"
	"github.com/tinytelemetry/diskconsole/internal/session"
	"github.com/tinytelemetry/diskconsole/internal/tui"
)

// console runs the non-interactive modes. rec is nil when archiving is off.
type console struct {
	backend tui.Backend
	cfg     appConfig
	rec     *archive.Recorder
	out     io.Writer
	errOut  io.Writer
}

func (c *console) fail(err error) int {
	fmt.Fprintf(c.errOut, "%s: %s\n", kindLabel(err), model.Message(err))
	return 1
}

func kindLabel(err error) string {
	switch model.KindOf(err) {
	case model.KindValidation:
		return "invalid"
	case model.KindTransport:
		return "backend unreachable"
	case model.KindApplication:
		return "backend error"
	case model.KindRender:
		return "render failed"
	}
	return "error"
}

func (c *console) scriptOptions() script.Options {
	opts := script.Options{
		SkipComments: c.cfg.Script.SkipComments,
		StopOnError:  c.cfg.Script.StopOnError,
	}
	if c.rec != nil {
		opts.Recorder = c.rec
	}
	return opts
}

// runCommand sends one line and prints its outcome.
func (c *console) runCommand(ctx context.Context, line string) int {
	var opts []session.Option
	if c.rec != nil {
		opts = append(opts, session.WithRecorder(c.rec))
	}
	entry, err := session.New(c.backend, opts...).Submit(ctx, line)
	if err != nil {
		return c.fail(err)
	}
	if !entry.Outcome.OK {
		fmt.Fprintf(c.out, "Error: %s\n", entry.Outcome.Error)
		return 1
	}
	fmt.Fprintln(c.out, entry.Outcome.Output)
	return 0
}

// runScript executes text and streams each line result as it completes.
func (c *console) runScript(ctx context.Context, text string, remote bool) int {
	opts := c.scriptOptions()
	opts.OnLine = func(res model.LineResult) {
		fmt.Fprint(c.out, script.Format(model.ScriptRun{Results: []model.LineResult{res}}))
	}
	runner := script.NewRunner(c.backend, opts)
	if len(runner.Plan(text)) == 0 {
		return c.fail(model.Validation("script", "script has no commands"))
	}

	var run model.ScriptRun
	if remote {
		var err error
		run, err = runner.RunRemote(ctx, c.backend, text)
		if err != nil {
			return c.fail(err)
		}
	} else {
		run = runner.Run(ctx, text)
	}

	fmt.Fprintln(c.out, script.Summary(run))
	if !run.OK() || run.Interrupted {
		return 1
	}
	return 0
}

type logsOptions struct {
	level  string
	limit  int
	filter string
	follow bool
}

// runLogs prints the log buffer once, or on every refresh when following.
func (c *console) runLogs(ctx context.Context, o logsOptions) int {
	v := logview.NewLogViewer(c.backend, c.cfg.Logs.RefreshInterval)
	v.SetLevel(o.level)
	limit := o.limit
	if limit == 0 {
		limit = c.cfg.Logs.Limit
	}
	if _, err := v.SetLimit(limit); err != nil {
		return c.fail(err)
	}
	v.SetFilter(o.filter)

	if !o.follow {
		if err := v.Refresh(ctx); err != nil {
			return c.fail(err)
		}
		printLogs(c.out, v.Snapshot())
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := v.Follow(gctx, logview.RealClock, func(s logview.Snapshot) {
			printLogs(c.out, s)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		v.Auto().Disable()
		return nil
	})
	if err := g.Wait(); err != nil {
		return c.fail(err)
	}
	return 0
}

func printLogs(w io.Writer, s logview.Snapshot) {
	level := s.Level
	if level == "" {
		level = "ALL"
	}
	fmt.Fprintf(w, "-- %s  level=%s limit=%d shown=%d/%d total=%d\n",
		s.LoadedAt.Format(time.TimeOnly), level, s.Limit, len(s.Records), s.Fetched, s.Stats.Total())
	if s.Err != nil {
		fmt.Fprintf(w, "   refresh failed: %s\n", model.Message(s.Err))
	}
	for _, r := range s.Records {
		fmt.Fprintf(w, "%s %-5s %s", r.Timestamp.Format(time.DateTime), r.Level, r.Message)
		if len(r.Context) > 0 {
			fmt.Fprintf(w, " %v", r.Context)
		}
		fmt.Fprintln(w)
	}
}

// runJournal prints the journal of a mounted partition.
func (c *console) runJournal(ctx context.Context, mountID string) int {
	j := logview.NewJournalViewer(c.backend)
	if err := j.Load(ctx, mountID); err != nil {
		return c.fail(err)
	}
	d := j.Snapshot().Decoded
	if d.Mode == logview.ModeRaw {
		fmt.Fprintln(c.out, d.Raw)
		return 0
	}
	if len(d.Entries) == 0 {
		fmt.Fprintln(c.out, "journal is empty")
		return 0
	}
	for _, e := range d.Entries {
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Format(time.DateTime)
		}
		fmt.Fprintf(c.out, "%-19s %-10s %-30s %s\n", ts, e.Operation, e.Path, strings.ReplaceAll(e.Content, "\n", `\n`))
	}
	return 0
}

type reportOptions struct {
	kind    string
	mountID string
	path    string
	outDir  string
}

// runReport fetches and renders one report. With an output directory the
// DOT source and the artifact are saved there; otherwise the outline is
// printed.
func (c *console) runReport(ctx context.Context, renderer report.Renderer, o reportOptions) int {
	kind, err := model.ParseReportKind(o.kind)
	if err != nil {
		return c.fail(err)
	}
	req := model.ReportRequest{Kind: kind, MountID: strings.TrimSpace(o.mountID), Path: strings.TrimSpace(o.path)}

	st := report.NewSlot(c.backend, renderer).Load(ctx, req)
	switch st.Status {
	case report.StatusFailed:
		return c.fail(st.Err)
	case report.StatusEmpty:
		fmt.Fprintf(c.out, "%s report for %s is empty\n", kind.Title(), req.MountID)
		return 0
	}

	if o.outDir == "" {
		fmt.Fprint(c.out, st.Artifact.Outline)
		if st.Artifact.Outline == "" {
			fmt.Fprintln(c.out, st.Document.Text)
		}
		return 0
	}

	docPath, err := report.SaveDocument(o.outDir, *st.Document)
	if err != nil {
		return c.fail(err)
	}
	artPath, err := report.SaveArtifact(o.outDir, *st.Artifact)
	if err != nil {
		return c.fail(err)
	}
	if c.rec != nil {
		err := c.rec.RecordArtifact(archive.ArtifactRecord{
			Kind:    string(kind),
			MountID: req.MountID,
			Path:    req.Path,
			Format:  st.Artifact.Format,
			File:    artPath,
			SavedAt: time.Now(),
		})
		if err != nil {
			log.Printf("report: archive artifact: %v", err)
		}
	}
	fmt.Fprintf(c.out, "saved %s\nsaved %s\n", docPath, artPath)
	return 0
}

// runDot renders a DOT file that is already on disk, as printed by the
// backend or saved by -report -out. The outline is printed, or the artifact
// saved under outDir.
func (c *console) runDot(ctx context.Context, renderer report.Renderer, path, outDir string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return c.fail(model.Validation("dot", err.Error()))
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := model.GraphDocument{
		Request:   model.ReportRequest{MountID: name},
		Text:      string(data),
		FetchedAt: time.Now(),
	}

	st := report.NewSlot(c.backend, renderer).ShowDocument(ctx, doc)
	switch st.Status {
	case report.StatusFailed:
		return c.fail(st.Err)
	case report.StatusEmpty:
		fmt.Fprintln(c.out, "report is empty")
		return 0
	}

	if outDir == "" {
		fmt.Fprint(c.out, st.Artifact.Outline)
		if st.Artifact.Outline == "" {
			fmt.Fprintln(c.out, doc.Text)
		}
		return 0
	}
	artPath, err := report.SaveArtifact(outDir, *st.Artifact)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "saved %s\n", artPath)
	return 0
}

// runExport writes the archive to path.
func (c *console) runExport(path string) int {
	if c.rec == nil {
		return c.fail(model.Validation("export", "archive is disabled"))
	}
	if err := c.rec.Store().ExportFile(path); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "exported archive to %s\n", path)
	return 0
}
