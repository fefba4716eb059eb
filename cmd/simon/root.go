package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/simon/config"
	"github.com/lixenwraith/simon/core"
)

// options holds the persistent flags
type options struct {
	configPath  string
	difficulty  string
	mute        bool
	debug       bool
	metricsAddr string
	scoresDB    string
	seed        int64
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "simon",
		Short: "Simon - terminal memory sequence game",
		Long: `Simon shows a growing sequence of colored pads. Repeat it to advance a level;
one wrong press ends the run. Sequences speed up every five levels.

Keys:
  1-4 or r g b y   press a pad
  Enter / s        start
  Space / p        pause or resume
  x                reset
  d                cycle difficulty (between runs)
  m                toggle sound
  + / -            volume
  q / Esc          quit`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.difficulty, "difficulty", "", "difficulty: easy, normal or hard")
	flags.BoolVar(&opts.mute, "mute", false, "start with sound off")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log to the log directory")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&opts.scoresDB, "scores-db", "", "best score database path, empty keeps scores in memory")
	flags.Int64Var(&opts.seed, "seed", 0, "sequence seed, 0 for random")

	rootCmd.AddCommand(newScoresCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// resolveConfig loads file and environment settings and applies explicitly set flags
// The config file is optional unless named with --config
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, string, error) {
	path := opts.configPath
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		path = config.DefaultPath()
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return cfg, path, err
	}

	if err := applyFlags(cmd, opts, &cfg); err != nil {
		return cfg, path, err
	}
	return cfg, path, cfg.Validate()
}

// applyFlags overrides cfg with the flags the user set
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("difficulty") {
		d, err := core.ParseDifficulty(opts.difficulty)
		if err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		cfg.Difficulty = d.Key()
	}
	if flags.Changed("mute") {
		cfg.Sound.Enabled = !opts.mute
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = opts.debug
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if flags.Changed("scores-db") {
		cfg.Scores.Path = opts.scoresDB
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simon %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildDate)
		},
	}
}

func newConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, out)
			return nil
		},
	}
}
