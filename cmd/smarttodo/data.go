package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Joseda-hg/smarttodo/internal/backup"
	"github.com/Joseda-hg/smarttodo/internal/config"
	"github.com/Joseda-hg/smarttodo/internal/version"
)

// formatFor picks the data format from an explicit flag or the file extension.
func formatFor(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext != "" {
		return ext
	}
	return "json"
}

func newExportCmd(opts *options) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON, CSV or iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			bw := bufio.NewWriter(w)
			now := time.Now()
			tasks := a.repo.Tasks()
			switch formatFor(format, output) {
			case "json":
				err = backup.ExportJSON(bw, tasks, a.repo.Categories(), now)
			case "csv":
				err = backup.ExportCSV(bw, tasks)
			case "ics":
				err = backup.ExportICS(bw, tasks, now)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			if err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return err
			}
			a.log.Logf("[INFO] exported %d tasks", len(tasks))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, csv or ics (default from the output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks: JSON replaces all tasks, CSV appends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			now := time.Now()
			out := cmd.OutOrStdout()
			switch formatFor(format, args[0]) {
			case "json":
				doc, err := backup.ImportJSON(f, now)
				if err != nil {
					return err
				}
				a.repo.ReplaceTasks(ctx, doc.Tasks, doc.Categories)
				fmt.Fprintf(out, "imported %d tasks\n", len(doc.Tasks))
			case "csv":
				imported, err := backup.ImportCSV(f, now)
				if err != nil {
					return err
				}
				a.repo.ReplaceTasks(ctx, append(a.repo.Tasks(), imported...), nil)
				fmt.Fprintf(out, "imported %d tasks\n", len(imported))
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or csv (default from the file extension)")
	return cmd
}

func newBackupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage stored backups",
	}

	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Store a backup of all tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			meta, err := a.backups.Create(ctx, name, a.repo.Tasks(), a.repo.Categories())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created backup %s %q (%d tasks)\n", meta.ID, meta.Name, meta.TaskCount)
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored backups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			metas, err := a.backups.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(metas) == 0 {
				fmt.Fprintln(out, "no backups")
				return nil
			}
			for _, meta := range metas {
				fmt.Fprintf(out, "%s  %s  %4d tasks  %6d bytes  %s\n",
					color.CyanString(meta.ID), meta.Timestamp.Local().Format("2006-01-02 15:04"),
					meta.TaskCount, meta.Size, meta.Name)
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace all tasks with a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.backups.Get(ctx, args[0])
			if err != nil {
				return err
			}
			a.repo.ReplaceTasks(ctx, doc.Tasks, doc.Categories)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d tasks\n", len(doc.Tasks))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a stored backup",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backups.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted backup %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, list, restore, remove)
	return cmd
}

func newTemplatesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage task templates",
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add templates from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templates, err := config.LoadTemplates(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, tmpl := range templates {
				created := a.repo.CreateTemplate(ctx, tmpl.Name, tmpl.Description, tmpl.Tasks)
				fmt.Fprintf(cmd.OutOrStdout(), "added template %s %q (%d tasks)\n", shortID(created.ID), created.Name, len(created.Tasks))
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			templates := a.repo.Templates()
			if len(templates) == 0 {
				fmt.Fprintln(out, "no templates")
				return nil
			}
			for _, tmpl := range templates {
				fmt.Fprintf(out, "%s %s (%d tasks)", color.CyanString(shortID(tmpl.ID)), tmpl.Name, len(tmpl.Tasks))
				if tmpl.Description != "" {
					fmt.Fprintf(out, "  %s", tmpl.Description)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <id|name>",
		Short: "Create the tasks of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			id := ""
			for _, tmpl := range a.repo.Templates() {
				if tmpl.ID == args[0] || strings.HasPrefix(tmpl.ID, args[0]) || strings.EqualFold(tmpl.Name, args[0]) {
					id = tmpl.ID
					break
				}
			}
			tasks, ok := a.repo.InstantiateTemplate(ctx, id)
			if !ok {
				return fmt.Errorf("no template matches %q", args[0])
			}
			now := time.Now()
			for _, task := range tasks {
				printTask(cmd.OutOrStdout(), task, now)
			}
			return nil
		},
	}

	cmd.AddCommand(importCmd, list, use)
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
