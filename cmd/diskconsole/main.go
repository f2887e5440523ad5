package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/tinytelemetry/diskconsole/internal/apiclient"
	"github.com/tinytelemetry/diskconsole/internal/report"
	"github.com/tinytelemetry/diskconsole/internal/script"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

type options struct {
	configPath  string
	apiURL      string
	showVersion bool

	cmd        string
	scriptPath string
	remote     bool

	logs   bool
	level  string
	limit  int
	filter string
	follow bool

	journal string

	report  string
	mountID string
	path    string
	outDir  string

	dot string

	export string
}

func (o options) modes() int {
	n := 0
	for _, set := range []bool{o.cmd != "", o.scriptPath != "", o.logs, o.journal != "", o.report != "", o.dot != "", o.export != ""} {
		if set {
			n++
		}
	}
	return n
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "config file (default is $HOME/.config/diskconsole/config.yml)")
	flag.StringVar(&o.apiURL, "api", "", "backend base URL (overrides api-url)")
	flag.BoolVar(&o.showVersion, "version", false, "print version information")

	flag.StringVar(&o.cmd, "cmd", "", "run one command line and exit")
	flag.StringVar(&o.scriptPath, "script", "", "run a script file (- for stdin) and exit")
	flag.BoolVar(&o.remote, "remote", false, "run the script on the backend script endpoint")

	flag.BoolVar(&o.logs, "logs", false, "print backend logs and exit")
	flag.StringVar(&o.level, "level", "", "log level filter: ALL, DEBUG, INFO, WARN, ERROR")
	flag.IntVar(&o.limit, "limit", 0, "number of log records: 50, 100, 200 or 500")
	flag.StringVar(&o.filter, "filter", "", "client-side log filter (substring or expression)")
	flag.BoolVar(&o.follow, "follow", false, "keep polling logs until interrupted")

	flag.StringVar(&o.journal, "journal", "", "print the journal of a mount id and exit")

	flag.StringVar(&o.report, "report", "", "report kind: mbr, disk, sb, tree, journal")
	flag.StringVar(&o.mountID, "id", "", "mount id for -report")
	flag.StringVar(&o.path, "path", "", "path inside the partition for -report tree")
	flag.StringVar(&o.outDir, "out", "", "save the report under this directory")
	flag.StringVar(&o.dot, "dot", "", "render a local DOT file and exit")

	flag.StringVar(&o.export, "export", "", "export the archive to a .yaml, .json or .duckdb file")
	flag.Parse()

	if o.showVersion {
		fmt.Printf("diskconsole - Disk Manager Console\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	os.Exit(run(o))
}

func run(o options) int {
	if o.modes() > 1 {
		fmt.Fprintln(os.Stderr, "Error: choose at most one of -cmd, -script, -logs, -journal, -report, -dot, -export")
		return 2
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}

	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithVersion(version),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	rec, closeArchive, err := openArchive(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeArchive()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &console{backend: client, cfg: cfg, rec: rec, out: os.Stdout, errOut: os.Stderr}

	switch {
	case o.cmd != "":
		return c.runCommand(ctx, o.cmd)
	case o.scriptPath != "":
		text, err := readScript(o.scriptPath, os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return c.runScript(ctx, text, o.remote)
	case o.logs:
		return c.runLogs(ctx, logsOptions{level: o.level, limit: o.limit, filter: o.filter, follow: o.follow})
	case o.journal != "":
		return c.runJournal(ctx, o.journal)
	case o.report != "":
		renderer, err := report.NewRenderer(cfg.Report.Engine, cfg.Report.DotPath, cfg.Report.Format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return c.runReport(ctx, renderer, reportOptions{kind: o.report, mountID: o.mountID, path: o.path, outDir: o.outDir})
	case o.dot != "":
		renderer, err := report.NewRenderer(cfg.Report.Engine, cfg.Report.DotPath, cfg.Report.Format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return c.runDot(ctx, renderer, o.dot, o.outDir)
	case o.export != "":
		return c.runExport(o.export)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		text, err := readScript("-", os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return c.runScript(ctx, text, o.remote)
	}

	// the TUI handles ctrl+c itself
	stop()
	if err := runTUI(cfg, client, rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func readScript(path string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(path) == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return script.LoadFile(path)
}
