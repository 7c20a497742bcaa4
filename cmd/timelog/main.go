package main

import (
	"fmt"
	"os"

	"github.com/loykin/timelog/internal/config"
	"github.com/loykin/timelog/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires every subcommand to a shared
// handler bound to the resolved configuration.
func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	c := &command{out: os.Stdout, errW: os.Stderr}

	root := &cobra.Command{
		Use:           "timelog",
		Short:         "Track time on named tasks and report by period",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			var err error
			if global.ConfigPath != "" {
				cfg, err = config.LoadFrom(global.ConfigPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.New(cfg.Log, global.Verbose)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "path to config file (default ~/.timelog/config.toml)")
	root.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		createStartCommand(c),
		createPauseCommand(c),
		createResumeCommand(c),
		createStopCommand(c),
		createStatusCommand(c),
		createReportCommand(c),
		createAmendCommand(c),
		createUploadCommand(c),
	)
	return root
}

func createStartCommand(c *command) *cobra.Command {
	flags := &StartFlags{}
	cmd := &cobra.Command{
		Use:   "start TASK",
		Short: "Start tracking a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start(args[0], *flags)
		},
	}
	cmd.Flags().StringVarP(&flags.Project, "project", "p", "", "project label for the task")
	return cmd
}

func createPauseCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the active task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Pause()
		},
	}
}

func createResumeCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Resume()
		},
	}
}

func createStopCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active task and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop()
		},
	}
}

func createStatusCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current task and elapsed time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status()
		},
	}
}

func createReportCommand(c *command) *cobra.Command {
	flags := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "report PERIOD",
		Short: "Report recorded time for a period (today, yesterday, this-week, last-week, this-month, last-month, ytd, last-year)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Report(args[0], *flags)
		},
	}
	cmd.Flags().StringVarP(&flags.Project, "project", "p", "", "only include records for this project")
	return cmd
}

func createAmendCommand(c *command) *cobra.Command {
	flags := &AmendFlags{}
	cmd := &cobra.Command{
		Use:   "amend DATE TASK_PATTERN",
		Short: "Amend a single recorded entry matched by date and task substring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.NewTaskSet = cmd.Flags().Changed("new-task")
			flags.NewDurationSet = cmd.Flags().Changed("new-duration")
			flags.NewProjectSet = cmd.Flags().Changed("new-project")
			return c.Amend(args[0], args[1], *flags)
		},
	}
	cmd.Flags().StringVar(&flags.NewTask, "new-task", "", "replacement task name")
	cmd.Flags().Int64Var(&flags.NewDurationMin, "new-duration", 0, "replacement duration in minutes")
	cmd.Flags().StringVar(&flags.NewProject, "new-project", "", "replacement project (empty clears it)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "show the change without writing it")
	return cmd
}

func createUploadCommand(c *command) *cobra.Command {
	flags := &UploadFlags{}
	cmd := &cobra.Command{
		Use:   "upload PERIOD",
		Short: "Hand records for a period to an upload plugin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ListPlugins {
				return c.Upload("", *flags)
			}
			if len(args) != 1 {
				return fmt.Errorf("a period is required unless --list-plugins is given")
			}
			return c.Upload(args[0], *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Plugin, "plugin", "", "plugin name (auto-selected when only one exists)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "pass --dry-run to the plugin")
	cmd.Flags().BoolVar(&flags.ListPlugins, "list-plugins", false, "list installed plugins")
	return cmd
}
