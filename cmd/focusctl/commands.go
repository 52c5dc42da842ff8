package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"focusflow/internal/app"
	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/platform"

	"github.com/spf13/cobra"
)

func newInsightsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Print insights over the stored sessions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				return printJSON(cmd, core.Analytics.GenerateInsights())
			})
		},
	}
}

func newRewardsCommand(flags *globalFlags) *cobra.Command {
	rewards := &cobra.Command{
		Use:   "rewards",
		Short: "Print points, streak and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				printRewards(cmd, core.Rewards.Points())
				return nil
			})
		},
	}

	var period string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Roll over the daily or weekly counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				switch events.Period(period) {
				case events.PeriodDaily:
					core.Rewards.ResetDaily()
				case events.PeriodWeekly:
					core.Rewards.ResetWeekly()
				default:
					return fmt.Errorf("unknown period %q", period)
				}
				printRewards(cmd, core.Rewards.Points())
				return nil
			})
		},
	}
	reset.Flags().StringVar(&period, "period", string(events.PeriodDaily), "daily or weekly")
	rewards.AddCommand(reset)
	return rewards
}

func printRewards(cmd *cobra.Command, points model.RewardPoints) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "points: daily %d, weekly %d, total %d\n", points.Daily, points.Weekly, points.Total)
	fmt.Fprintf(out, "streak: %d days (best %d)\n", points.Streak.Current, points.Streak.Best)

	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ACHIEVEMENT\tPROGRESS\tPOINTS\tUNLOCKED")
	for _, achievement := range points.Achievements {
		unlocked := "-"
		if achievement.Unlocked() {
			unlocked = achievement.UnlockedAt.Format("2006-01-02")
		}
		fmt.Fprintf(table, "%s\t%d/%d\t%d\t%s\n",
			achievement.ID, achievement.Progress, achievement.MaxProgress, achievement.PointValue, unlocked)
	}
	_ = table.Flush()
}

func newPrefsCommand(flags *globalFlags) *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Export, import or reset preferences",
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write preferences as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				data, err := core.Preferences.Export()
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, data)
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Overlay a YAML or JSON document on the preferences (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return flags.withCore(func(core *app.Core) error {
				if err := core.Preferences.Import(data); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "preferences imported")
				return nil
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				if err := core.Preferences.ResetToDefaults(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "preferences reset")
				return nil
			})
		},
	}

	prefs.AddCommand(export, importCmd, reset)
	return prefs
}

func newStoreCommand(flags *globalFlags) *cobra.Command {
	store := &cobra.Command{
		Use:   "store",
		Short: "Export, import or sweep stored items",
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every live item as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				data, err := core.Store.Export()
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, append(data, '\n'))
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store every item of an export document (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return flags.withCore(func(core *app.Core) error {
				imported, err := core.Store.Import(data)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d items\n", imported)
				return err
			})
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d items\n", core.Store.Sweep())
				return nil
			})
		},
	}

	store.AddCommand(export, importCmd, sweep)
	return store
}

func newSimulateCommand(flags *globalFlags) *cobra.Command {
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Publish events on the bus as the desktop app would",
	}

	var (
		minutes      int
		intensity    string
		energy       int
		distractions int
		tasks        int
	)
	focus := &cobra.Command{
		Use:   "focus",
		Short: "Complete a focus session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := model.Intensity(intensity)
			if !level.Valid() {
				return fmt.Errorf("unknown intensity %q", intensity)
			}
			return flags.withCore(func(core *app.Core) error {
				if energy >= 0 {
					core.Bus.Emit(events.EnergyLevelUpdate{Level: energy})
				}
				for i := 0; i < distractions; i++ {
					core.Bus.Emit(events.DistractionDetected{Source: "simulate"})
				}
				for i := 0; i < tasks; i++ {
					core.Bus.Emit(events.TaskCompleted{Title: "simulate"})
				}
				core.Bus.Emit(events.TimerStateUpdate{
					Mode:      model.SessionFocus,
					Completed: true,
					Duration:  minutes,
					Intensity: level,
				})
				return printLastSession(cmd, core)
			})
		},
	}
	focus.Flags().IntVar(&minutes, "minutes", 25, "session length in minutes")
	focus.Flags().StringVar(&intensity, "intensity", string(model.IntensityMedium), "low, medium or high")
	focus.Flags().IntVar(&energy, "energy", -1, "self-reported energy 0-10 (default: estimated)")
	focus.Flags().IntVar(&distractions, "distractions", 0, "distractions during the session")
	focus.Flags().IntVar(&tasks, "tasks", 0, "tasks completed during the session")

	var breakMinutes int
	breakCmd := &cobra.Command{
		Use:   "break",
		Short: "Complete a break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				core.Bus.Emit(events.TimerStateUpdate{
					Mode:      model.SessionBreak,
					Completed: true,
					Duration:  breakMinutes,
					Intensity: model.IntensityLow,
				})
				return printLastSession(cmd, core)
			})
		},
	}
	breakCmd.Flags().IntVar(&breakMinutes, "minutes", 5, "break length in minutes")

	var noise, lighting, temperature string
	environment := &cobra.Command{
		Use:   "environment",
		Short: "Report the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				core.Bus.Emit(events.EnvironmentUpdate{
					Noise:       model.Noise(noise),
					Lighting:    model.Lighting(lighting),
					Temperature: model.Temperature(temperature),
				})
				return printJSON(cmd, core.Analytics.Environment())
			})
		},
	}
	environment.Flags().StringVar(&noise, "noise", "", "quiet, moderate or loud")
	environment.Flags().StringVar(&lighting, "lighting", "", "dark, dim or bright")
	environment.Flags().StringVar(&temperature, "temperature", "", "cold, moderate or warm")

	var (
		source  string
		blocked bool
	)
	distraction := &cobra.Command{
		Use:   "distraction",
		Short: "Report a distraction, or a resisted one with --blocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				if blocked {
					core.Bus.Emit(events.DistractionBlocked{Source: source})
					printRewards(cmd, core.Rewards.Points())
					return nil
				}
				core.Bus.Emit(events.DistractionDetected{Source: source})
				fmt.Fprintln(cmd.OutOrStdout(), "distraction recorded")
				return nil
			})
		},
	}
	distraction.Flags().StringVar(&source, "source", "manual", "where the distraction came from")
	distraction.Flags().BoolVar(&blocked, "blocked", false, "the distraction was resisted")

	simulate.AddCommand(focus, breakCmd, environment, distraction)
	return simulate
}

func printLastSession(cmd *cobra.Command, core *app.Core) error {
	sessions := core.Analytics.Sessions()
	if len(sessions) == 0 {
		return fmt.Errorf("no session was recorded")
	}
	session := sessions[len(sessions)-1]
	fmt.Fprintf(cmd.OutOrStdout(), "session %s: %s %d min, productivity %.2f, flow %s, energy %d, points %d\n",
		session.ID, session.Type, session.Duration, session.Productivity, session.Flow.State,
		session.EnergyLevel, core.Rewards.Points().Total)
	return nil
}

func newShortcutsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shortcuts",
		Short: "List the desktop keyboard shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withCore(func(core *app.Core) error {
				noop := func() {}
				core.RegisterDefaultShortcuts(app.Controls{TogglePause: noop, SkipBreak: noop, LongBreak: noop})

				table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, group := range core.Shortcuts.GetShortcutHelp() {
					fmt.Fprintf(table, "[%s]\t\n", group.Category)
					for _, entry := range group.Entries {
						fmt.Fprintf(table, "  %s\t%s\n", entry.Key, entry.Description)
					}
				}
				return table.Flush()
			})
		},
	}
}

func newAutostartCommand() *cobra.Command {
	var execPath string
	autostart := &cobra.Command{
		Use:       "autostart enable|disable",
		Short:     "Start the desktop app at login",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"enable", "disable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := args[0] == "enable"
			if enabled && execPath == "" {
				self, err := os.Executable()
				if err != nil {
					return fmt.Errorf("locate executable: %w", err)
				}
				execPath = filepath.Join(filepath.Dir(self), "focusflow")
			}
			if err := platform.SetAutostart(platform.NewService(), "FocusFlow", execPath, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "autostart %sd\n", args[0])
			return nil
		},
	}
	autostart.Flags().StringVar(&execPath, "exec", "", "desktop binary to launch (default: focusflow next to focusctl)")
	return autostart
}

func printJSON(cmd *cobra.Command, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
