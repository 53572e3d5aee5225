package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fishing-buddy.klederson.com/internal/app"
	"fishing-buddy.klederson.com/internal/bluetooth"
	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/notify"
	"fishing-buddy.klederson.com/internal/session"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the paired sensor and watch for strikes (default)",
		RunE:  runWatch,
	}
	cmd.Flags().BoolVar(&flagHeadless, "headless", false, "Log to stderr instead of showing the screen")
	return cmd
}

// newTransport picks the Bluetooth transport for the current settings. The
// dropper is only set in demo mode.
func newTransport(post bluetooth.PostFunc, log *logrus.Logger) (session.Transport, app.Dropper) {
	if settings.Demo {
		mock := bluetooth.NewMockTransport(post)
		return mock, mock
	}
	return bluetooth.NewBLETransport(settings.Adapter, post, log.WithField("component", "ble")), nil
}

// openPairing returns the pairing the session connects to. Demo mode always
// uses the simulated sensor.
func openPairing() (session.PairingStore, error) {
	if settings.Demo {
		return session.StaticPairing(config.DemoAddress), nil
	}
	return config.OpenPairingStore(settings.PairingFile)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log, closer, err := newLogger(!flagHeadless)
	if err != nil {
		return err
	}
	defer closer.Close()

	pairing, err := openPairing()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	program := &app.ProgramRef{}
	sinks := notify.Sinks{notify.NewLogSink(log.WithField("component", "sink"))}
	if !flagHeadless {
		sinks = append(sinks, app.ProgramSink{P: program})
	}
	if settings.Notify {
		desktop, err := notify.NewDesktop(log.WithField("component", "desktop"))
		if err != nil {
			log.WithError(err).Warn("Desktop notifications disabled")
		} else {
			sinks = append(sinks, desktop)
		}
	}
	if settings.WSListen != "" {
		hub := notify.NewHub(log.WithField("component", "hub"))
		sinks = append(sinks, hub)
		go func() {
			if err := hub.Serve(ctx, settings.WSListen); err != nil {
				log.WithError(err).Error("Event feed stopped")
			}
		}()
	}

	var loop *session.Loop
	transport, dropper := newTransport(func(ev session.Event) bool { return loop.Post(ev) }, log)

	machine := session.New(transport, pairing, sinks,
		session.WithLogger(log.WithField("component", "session")),
		session.WithConnectTimeout(settings.ConnectTimeout),
	)
	loopOpts := []session.LoopOption{session.WithLoopLogger(log.WithField("component", "loop"))}
	if settings.Reconnect {
		loopOpts = append(loopOpts, session.WithReconnect(settings.ReconnectDelay))
	}
	loop = session.NewLoop(machine, loopOpts...)

	if flagHeadless {
		loop.Start()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	label := "LIVE"
	if settings.Demo {
		label = "DEMO"
	} else if addr, ok := pairing.PairedAddress(); ok {
		label = addr
	}

	p := tea.NewProgram(
		app.NewWatch(loop, dropper, label),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	program.Attach(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("screen failed: %w", err)
	}
	return nil
}
