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

	"github.com/bft-labs/tracescope/internal/cliconfig"
)

const helpBanner = `
 _                                                  
| |_ _ __ __ _  ___ ___  ___  ___ ___  _ __   ___ 
| __| '__/ _' |/ __/ _ \/ __|/ __/ _ \| '_ \ / _ \
| |_| | | (_| | (_|  __/\__ \ (_| (_) | |_) |  __/
 \__|_|  \__,_|\___\___||___/\___\___/| .__/ \___|
                                      |_|          
`

const helpDescription = `
Browse recorded graphics API traces frame by frame without loading them whole.

Highlights:
  - Indexes plain traces in one pass and loads frame contents on demand.
  - Reuses saved frame indexes when a trace has not changed.
  - Searches call text forwards or backwards from any call.
  - Configure via file ($HOME/.tracescope/config.toml), env (TRACESCOPE_*), or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  tracescope frames app.trace.jsonl
  tracescope dump app.trace.jsonl 12
  tracescope search app.trace.jsonl 12 glDrawElements --after 4711
  tracescope locate call app.trace.jsonl 4711
  tracescope pack app.trace.jsonl app.trace.jsonl.gz
  tracescope watch app.trace.jsonl --metrics-addr :9464
  tracescope prune --max-age 168h
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// rootOptions carries the resolved configuration to subcommands.
type rootOptions struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		cfg: cliconfig.DefaultConfig(),
		log: cliconfig.Logger("info"),
	}

	root := &cobra.Command{
		Use:           "tracescope",
		Short:         "Browse, index and search graphics API traces",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgPath, "config", "", "path to config file (default: $HOME/.tracescope/config.toml)")
	flags.StringVar(&opts.cfg.StateDir, "state-dir", opts.cfg.StateDir, "directory for saved frame indexes")
	flags.StringVar(&opts.cfg.HelpFile, "help-file", opts.cfg.HelpFile, "tab-separated call help table (default: bundled)")
	flags.IntVar(&opts.cfg.BatchSize, "batch-size", opts.cfg.BatchSize, "frames per batch when a trace is decoded eagerly")
	flags.IntVar(&opts.cfg.QueueSize, "queue-size", opts.cfg.QueueSize, "request queue capacity")
	flags.BoolVar(&opts.cfg.IndexCache, "index-cache", opts.cfg.IndexCache, "save and reuse frame indexes")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.cfg.MetricsAddr, "metrics-addr", opts.cfg.MetricsAddr, "address to serve Prometheus metrics on (watch only)")
	flags.DurationVar(&opts.cfg.Debounce, "debounce", opts.cfg.Debounce, "delay before reopening a changed trace (watch only)")

	root.AddCommand(
		newFramesCmd(opts),
		newDumpCmd(opts),
		newSearchCmd(opts),
		newLocateCmd(opts),
		newPackCmd(opts),
		newWatchCmd(opts),
		newPruneCmd(opts),
	)
	return root
}

// load applies the config file, then environment variables, then flags.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfgFile := o.cfgPath
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
		if err := cliconfig.ApplyFileConfig(&o.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&o.cfg, changed); err != nil {
		return err
	}
	if err := o.cfg.Validate(); err != nil {
		return err
	}

	o.log = cliconfig.Logger(o.cfg.LogLevel)
	o.log.Debug().Interface("config", o.cfg).Msg("configuration")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log := cliconfig.Logger("info")
		log.Error().Err(err).Msg("tracescope")
		stop()
		os.Exit(1)
	}
}
