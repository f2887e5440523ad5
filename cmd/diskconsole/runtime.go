package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/diskconsole/internal/archive"
	"github.com/tinytelemetry/diskconsole/internal/backup"
	"github.com/tinytelemetry/diskconsole/internal/spool"
)

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "diskconsole")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "diskconsole.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

// openArchive opens the archive with its spool, replays anything the
// previous run left uncommitted and applies retention. It returns a nil
// recorder when archiving is disabled.
func openArchive(cfg appConfig) (*archive.Recorder, func(), error) {
	if !cfg.ArchiveEnabled {
		return nil, func() {}, nil
	}

	store, err := archive.NewStore(cfg.ArchivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if ver, err := store.SchemaVersion(); err == nil {
		log.Printf("archive: %s at schema version %d", cfg.ArchivePath, ver)
	}

	var sp *spool.Spool
	if cfg.ArchivePath != "" {
		sp, err = spool.Open(strings.TrimSuffix(cfg.ArchivePath, filepath.Ext(cfg.ArchivePath)) + ".spool")
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to open archive spool: %w", err)
		}
	}

	rec := archive.NewRecorder(store, sp)
	if n, err := rec.Recover(); err != nil {
		log.Printf("archive: spool replay: %v", err)
	} else if n > 0 {
		log.Printf("archive: replayed %d spooled records", n)
	}
	store.ApplyRetention(cfg.ArchiveRetention)

	rot, err := backup.New(store, backup.Config{
		Dir:      cfg.BackupDir,
		Interval: cfg.BackupInterval,
		KeepLast: cfg.BackupKeepLast,
		Verify: func(path string) error {
			info, err := archive.VerifySnapshot(path)
			if err == nil {
				log.Printf("backup: verified %s (schema %d, %v)", filepath.Base(path), info.SchemaVersion, info.Counts)
			}
			return err
		},
	})
	if err != nil {
		log.Printf("backup: disabled: %v", err)
	}
	if rot != nil {
		rot.Start()
	}

	return rec, func() {
		if rot != nil {
			rot.Stop()
		}
		if err := rec.Close(); err != nil {
			log.Printf("archive: %v", err)
		}
	}, nil
}
