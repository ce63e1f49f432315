package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/tui"
	"github.com/benjamonnguyen/pomomo-tui/discordgo"
)

const (
	RepoURL = "https://github.com/benjamonnguyen/pomomo-tui"
	Version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// runTimer runs the TUI until the user quits or the process is signalled.
func runTimer(ctx context.Context, a *app) error {
	topCtx, topCtxC := context.WithCancel(ctx)
	defer topCtxC()
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 10*time.Second)
	defer initTimeoutC()

	// notifier
	var notifier pomomo.Notifier = pomomo.NoopNotifier{}
	if a.cfg.DiscordWebhookURL != "" {
		n, err := discordgo.NewWebhookNotifier(a.cfg.DiscordWebhookURL, a.cfg.BotName, a.l)
		if err != nil {
			return err
		}
		notifier = n
	}

	metricsSrv := startMetricsServer(a.cfg.MetricsAddr, a.l)

	// session manager
	sessionManager := NewSessionManager(topCtx, a.cfg.Timer, a.repo, a.tx, notifier, a.l)
	if _, err := sessionManager.AbandonStaleCycles(initTimeout); err != nil {
		return err
	}
	initTimeoutC()

	p := tea.NewProgram(
		tui.NewModel(topCtx, sessionManager),
		tea.WithAltScreen(),
		tea.WithContext(topCtx),
	)
	sessionManager.OnSessionUpdate(func(_ context.Context, s models.Snapshot) {
		p.Send(tui.SnapshotMsg(s))
	})
	sessionManager.OnCycleFinished(tui.NewCycleFinishedHandler(p.Send))

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sc)
	go func() {
		select {
		case sig := <-sc:
			a.l.Info("terminating "+pomomo.AppName, "signal", sig.String())
			p.Quit()
		case <-topCtx.Done():
		}
	}()

	a.l.Info(pomomo.AppName+" running", "timer", a.cfg.Timer)
	_, runErr := p.Run()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		a.l.Error("tui exited", "err", runErr)
	}

	// graceful shutdown
	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), 10*time.Second)
	go func() {
		if err := sessionManager.Shutdown(); err != nil {
			a.l.Error(err)
		}
		if err := stopMetricsServer(shutdownTimeout, metricsSrv); err != nil {
			a.l.Error("failed to stop metrics server", "err", err)
		}
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		a.l.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}

func panicif(err error) {
	if err != nil {
		panic(err)
	}
}
