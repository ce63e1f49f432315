package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/sqlite"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg  pomomo.Config
	l    *log.Logger
	db   *sql.DB
	tx   transactor.Transactor
	repo pomomo.HistoryRepo

	closers []io.Closer
}

type appOptions struct {
	isProd bool
	// logToFile sends logs to the configured log file instead of stderr
	logToFile bool
	stderr    io.Writer
	// configure adjusts the loaded config before anything is opened
	configure func(*pomomo.Config) error
}

func openApp(v *viper.Viper, opts appOptions) (*app, error) {
	cfg, err := pomomo.LoadConfig(v, opts.isProd)
	if err != nil {
		return nil, err
	}
	if opts.configure != nil {
		if err := opts.configure(&cfg); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg}

	// logger
	var w io.Writer = opts.stderr
	if w == nil {
		w = os.Stderr
	}
	if opts.logToFile {
		f, err := openLogFile(cfg.LogPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		w = f
	}
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	a.l = log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Prefix:          pomomo.AppName,
	})

	// db
	a.l.Info("opening db", "path", cfg.DatabasePath)
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed database open: %w", err)
	}
	a.closers = append(a.closers, db)
	if err := sqlite.RunMigrations(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed migration: %w", err)
	}
	a.db = db

	tx, dbGetter := txStdLib.NewTransactor(
		db,
		txStdLib.NestedTransactionsSavepoints,
	)
	a.tx = tx
	a.repo = sqlite.NewHistoryRepo(dbGetter, a.l)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
