package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/monodebug/attachnotify/internal/cliconfig"
	"github.com/monodebug/attachnotify/pkg/log"
)

const helpDescription = `
Tell a running game engine that a script debugger attached or detached.

Highlights:
  - Messages are queued and delivered in order once the engine is reachable.
  - Reconnects on its own, and stops hammering a dead engine after a few tries.
  - Configure via file, .env, environment (ATTACHNOTIFY_*), or flags.
  - Ships a reference engine listener for local testing.
`

var exampleUsage = strings.TrimSpace(`
  attachnotify attach --play --wait 5s
  attachnotify detach --port 9002
  attachnotify run --metrics-addr 127.0.0.1:9100 < commands.txt
  attachnotify engine --listen 127.0.0.1:9001 --ack
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration shared by every subcommand.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	envFile string
	log     zerolog.Logger
}

// load layers defaults, config file, .env, environment and explicitly set
// flags, in increasing precedence.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
		c.cfgPath = cfgFile
	}

	if err := cliconfig.LoadDotEnv(c.envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = cliconfig.Logger(c.cfg.LogLevel)
	c.log.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// adapter exposes the CLI logger to the library packages.
func (c *cli) adapter() log.Logger {
	return log.NewZerologAdapterWithLogger(c.log)
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	c.log = cliconfig.Logger(c.cfg.LogLevel)

	root := &cobra.Command{
		Use:           "attachnotify",
		Short:         "Notify a game engine that a script debugger attached or detached",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.attachnotify/config.toml)")
	pf.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading ATTACHNOTIFY_* variables")
	pf.StringVar(&c.cfg.Host, "host", c.cfg.Host, "engine host")
	pf.IntVar(&c.cfg.Port, "port", c.cfg.Port, "engine port")
	pf.IntVar(&c.cfg.MaxReconnectAttempts, "max-reconnects", c.cfg.MaxReconnectAttempts, "consecutive failed connects before waiting for new messages")
	pf.DurationVar(&c.cfg.Timeout, "timeout", c.cfg.Timeout, "connect and write timeout")
	pf.DurationVar(&c.cfg.PollInterval, "poll", c.cfg.PollInterval, "worker poll interval")
	pf.IntVar(&c.cfg.MaxFrameSize, "max-frame-size", c.cfg.MaxFrameSize, "largest accepted inbound frame in bytes")
	pf.StringVar(&c.cfg.ByteOrder, "byte-order", c.cfg.ByteOrder, "length prefix byte order (little or big)")
	pf.StringVar(&c.cfg.Encoding, "encoding", c.cfg.Encoding, "payload text encoding (utf-8 or utf-16le)")
	pf.StringVar(&c.cfg.QueueRetention, "queue-retention", c.cfg.QueueRetention, "what happens to queued messages on disconnect (retain or drop)")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newSendCommand(c, "attach"),
		newSendCommand(c, "detach"),
		newRunCommand(c),
		newEngineCommand(c),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		c.log.Error().Err(err).Msg("attachnotify")
		os.Exit(1)
	}
}
