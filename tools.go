package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
)

func newUnpairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpair",
		Short: "Forget the paired sensor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pairing, err := config.OpenPairingStore(settings.PairingFile)
			if err != nil {
				return err
			}
			addr, ok := pairing.PairedAddress()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No sensor is paired.")
				return nil
			}
			if err := pairing.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", addr)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the paired sensor and the resolved settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pairing, err := config.OpenPairingStore(settings.PairingFile)
			if err != nil {
				return err
			}
			writeStatus(cmd.OutOrStdout(), pairing)
			return nil
		},
	}
}

func writeStatus(w io.Writer, pairing *config.PairingStore) {
	paired := "none (run `fishing-buddy pair`)"
	if addr, ok := pairing.PairedAddress(); ok {
		paired = addr
		if at := pairing.PairedAt(); !at.IsZero() {
			paired += " since " + at.Local().Format(time.RFC1123)
		}
	}
	feed := settings.WSListen
	if feed == "" {
		feed = "off"
	}
	reconnect := "off"
	if settings.Reconnect {
		reconnect = "after " + settings.ReconnectDelay.String()
	}

	fmt.Fprintf(w, "%s v%s\n", config.AppName, config.AppVersion)
	fmt.Fprintf(w, "  Paired:        %s\n", paired)
	fmt.Fprintf(w, "  Pairing file:  %s\n", pairing.Path())
	fmt.Fprintf(w, "  Adapter:       %s\n", settings.Adapter)
	fmt.Fprintf(w, "  Demo:          %t\n", settings.Demo)
	fmt.Fprintf(w, "  Reconnect:     %s\n", reconnect)
	fmt.Fprintf(w, "  Notifications: %t\n", settings.Notify)
	fmt.Fprintf(w, "  Event feed:    %s\n", feed)
	fmt.Fprintf(w, "  Log:           %s (%s)\n", settings.LogFile, settings.LogLevel)
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode sensor packets given as hex (one per argument, or one per stdin line)",
		Example: `  fishing-buddy decode 003c0000000000000000000001
  fishing-buddy decode < capture.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return decodePackets(cmd.OutOrStdout(), strings.NewReader(strings.Join(args, "\n")))
			}
			return decodePackets(cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}
}

// decodePackets decodes one hex packet per line, feeding the readings through
// a debouncer so the output shows what the screen would display.
func decodePackets(w io.Writer, r io.Reader) error {
	var debounce hit.Debouncer
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		raw, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "", "-", "").Replace(text))
		if err != nil {
			fmt.Fprintf(w, "%d: invalid hex: %v\n", line, err)
			continue
		}
		reading, err := packet.Decode(raw)
		if err != nil {
			fmt.Fprintf(w, "%d: %v\n", line, err)
			continue
		}
		fmt.Fprintf(w, "%d: %s -> %s\n", line, reading, debounce.Observe(reading))
	}
	return scanner.Err()
}
