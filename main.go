package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/logging"
)

var (
	flagConfig   string
	flagHeadless bool

	settings config.Settings
)

// flagKeys maps CLI flags to setting keys.
var flagKeys = map[string]string{
	"log-level":       config.KeyLogLevel,
	"log-file":        config.KeyLogFile,
	"demo":            config.KeyDemo,
	"adapter":         config.KeyAdapter,
	"reconnect":       config.KeyReconnect,
	"reconnect-delay": config.KeyReconnectDelay,
	"connect-timeout": config.KeyConnectTimeout,
	"notify":          config.KeyNotify,
	"ws-listen":       config.KeyWSListen,
	"pairing-file":    config.KeyPairingFile,
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fishing-buddy",
		Short: "Fishing Buddy - Bite alarm for the Fishing Buddy BLE rod sensor",
		Long: `Fishing Buddy connects to the paired "Fishing Buddy BLE Server" rod sensor,
shows its motion readings and raises an alarm when something strikes.

Run "fishing-buddy pair" once to pick your sensor, then "fishing-buddy" to watch it.
Real Bluetooth access may require sudo or CAP_NET_ADMIN.
Use --demo for a simulated sensor without Bluetooth hardware.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadSettings,
		RunE:              runWatch,
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&flagConfig, "config", "", "Config file (default ~/"+config.AppDir+"/config.yaml)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-file", "", "Log file used while a screen is shown (default ~/"+config.AppDir+"/fishing-buddy.log)")
	f.Bool("demo", false, "Simulate the rod sensor (no Bluetooth required)")
	f.String("adapter", "hci0", "Bluetooth adapter to use")
	f.Bool("reconnect", false, "Reconnect automatically when the link drops")
	f.Duration("reconnect-delay", config.DefaultReconnectDelay, "Delay before reconnecting")
	f.Duration("connect-timeout", time.Duration(config.DefaultConnectTimeout), "Give up on a connect or discovery after this long (0 waits forever)")
	f.Bool("notify", true, "Show desktop notifications for strikes and dropped links")
	f.String("ws-listen", "", "Serve a websocket event feed on this address (e.g. :8765)")
	f.String("pairing-file", "", "Pairing file (default ~/"+config.AppDir+"/pairing.yaml)")

	watchCmd := newWatchCmd()
	rootCmd.Flags().AddFlagSet(watchCmd.LocalFlags())

	rootCmd.AddCommand(
		watchCmd,
		newPairCmd(),
		newUnpairCmd(),
		newStatusCmd(),
		newDecodeCmd(),
	)

	return rootCmd
}

// loadSettings resolves settings from flags, environment and config file.
func loadSettings(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(flagConfig)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	settings, err = config.Load(v)
	return err
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// newLogger builds the logger for a command. While a screen is shown the
// log goes to the log file so it does not corrupt the terminal.
func newLogger(toFile bool) (*logrus.Logger, io.Closer, error) {
	path := ""
	if toFile {
		path = settings.LogFile
	}
	return logging.New(settings.LogLevel, path)
}
