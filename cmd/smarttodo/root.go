package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/smarttodo/internal/tui"
)

func newRootCmd() *cobra.Command {
	opts := &options{}

	var web bool
	rootCmd := &cobra.Command{
		Use:   "smarttodo",
		Short: "Task manager with natural-language entry, reminders and a web dashboard",
		Long: `smarttodo keeps tasks in a local SQLite database.

Run without a subcommand to open the terminal UI. Tasks can also be added
and listed from the command line, served over HTTP, exported and backed up.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, web)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is the user config dir)")
	flags.StringVar(&opts.dbPath, "db", "", "database file (default is next to the config file)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&web, "web", false, "also start the web server")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newTUICmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newDoneCmd(opts),
		newRemoveCmd(opts),
		newPlanCmd(opts),
		newStatsCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newBackupCmd(opts),
		newTemplatesCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newServeCmd(opts *options) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard and reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if port > 0 {
				a.cfg.WebPort = port
			}

			ctx, cancel := context.WithCancel(ctx)
			var wg sync.WaitGroup
			defer func() {
				cancel()
				wg.Wait()
			}()
			if err := a.startBackground(ctx, &wg); err != nil {
				return err
			}
			return a.serveHTTP(ctx, a.webServer().Handler())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func newTUICmd(opts *options) *cobra.Command {
	var web bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, web)
		},
	}
	cmd.Flags().BoolVar(&web, "web", false, "also start the web server")
	return cmd
}

func runTUI(ctx context.Context, opts *options, web bool) error {
	a, err := openApp(ctx, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	if err := a.startBackground(ctx, &wg); err != nil {
		return err
	}

	if web || a.cfg.WebEnabled {
		handler := a.webServer().Handler()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.serveHTTP(ctx, handler); err != nil {
				a.log.Logf("[WARN] web server: %v", err)
			}
		}()
	} else {
		a.announceCompletions()
	}

	if err := tui.Run(ctx, a.repo, tui.WithNotifications(a.center)); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
