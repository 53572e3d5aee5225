package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fishing-buddy.klederson.com/internal/app"
	"fishing-buddy.klederson.com/internal/bluetooth"
	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/notify"
	"fishing-buddy.klederson.com/internal/session"
)

func newPairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Scan for rod sensors and pair with one",
		RunE:  runPair,
	}
}

func runPair(cmd *cobra.Command, _ []string) error {
	log, closer, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := config.OpenPairingStore(settings.PairingFile)
	if err != nil {
		return err
	}

	// Demo pairings are never saved over a real one.
	var pairing session.PairingStore = store
	var scanner app.Scanner
	if settings.Demo {
		pairing = session.StaticPairing("")
		scanner = bluetooth.NewMockDiscovery()
	} else {
		scanner = bluetooth.NewDiscovery(config.ServiceName)
	}

	var p *tea.Program

	// verify connects to the chosen sensor with its own session and reports
	// progress to the screen. The pairing is only saved once it subscribes.
	verify := func(address string) func() {
		ctx, cancel := context.WithCancel(cmd.Context())

		var loop *session.Loop
		transport, _ := newTransport(func(ev session.Event) bool { return loop.Post(ev) }, log)
		sinks := notify.Sinks{
			app.ProgramSink{P: p},
			notify.NewLogSink(log.WithField("component", "sink")),
		}
		machine := session.New(transport, session.StaticPairing(address), sinks,
			session.WithLogger(log.WithField("component", "session").WithField("verify", address)),
			session.WithConnectTimeout(config.PairVerifyTimeout),
		)
		loop = session.NewLoop(machine, session.WithLoopLogger(log.WithField("component", "loop")))
		loop.Start()
		go func() { _ = loop.Run(ctx) }()

		return cancel
	}

	model := app.NewPair(scanner, verify, pairing)
	p = tea.NewProgram(model, tea.WithAltScreen())

	if err := model.StartScanner(p); err != nil {
		return fmt.Errorf("failed to start scanning: %w", err)
	}
	defer scanner.Stop()

	final, err := p.Run()
	if err != nil {
		return err
	}

	if pm, ok := final.(app.PairModel); ok {
		if addr, paired := pm.Paired(); paired && !settings.Demo {
			fmt.Fprintf(cmd.OutOrStdout(), "Paired with %s (saved to %s)\n", addr, store.Path())
		}
	}
	return nil
}
