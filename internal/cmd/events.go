package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/intraworks/workbench/internal/api"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage calendar events",
	Long: `Manage the shared calendar.

Subcommands:
  list    List events in a month
  add     Add an event
  move    Reschedule an event by a number of days
  rm      Remove an event

Examples:
  workbench events list --month 2026-09
  workbench events add "Sprint demo" --date 2026-09-12
  workbench events move ev-42 --days 7
  workbench events rm ev-42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// eventsListCmd lists one month of events
var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events in a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		monthFlag, _ := cmd.Flags().GetString("month")

		month := time.Now()
		if monthFlag != "" {
			var err error
			month, err = time.ParseInLocation("2006-01", monthFlag, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --month %q, want YYYY-MM", monthFlag)
			}
		}
		from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 1, 0)

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		events, err := app.client.ListEvents(cmd.Context(), from, to)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Printf("No events in %s.\n", from.Format("January 2006"))
			return nil
		}
		for _, ev := range events {
			when := ev.Start.Local().Format("Jan 02 15:04")
			if ev.AllDay {
				when = ev.Start.Local().Format("Jan 02") + " (all day)"
			}
			fmt.Printf("%-12s %-20s %s\n", ev.ID, when, ev.Title)
		}
		return nil
	},
}

// eventsAddCmd creates an event
var eventsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		atFlag, _ := cmd.Flags().GetString("at")
		duration, _ := cmd.Flags().GetDuration("for")

		day := time.Now()
		if dateFlag != "" {
			var err error
			day, err = time.ParseInLocation("2006-01-02", dateFlag, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateFlag)
			}
		}

		event := api.Event{
			ID:     uuid.New().String(),
			Title:  args[0],
			Start:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local),
			AllDay: true,
		}
		event.End = event.Start.AddDate(0, 0, 1)

		if atFlag != "" {
			start, err := time.ParseInLocation("15:04", atFlag, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at %q, want HH:MM", atFlag)
			}
			event.Start = time.Date(day.Year(), day.Month(), day.Day(),
				start.Hour(), start.Minute(), 0, 0, time.Local)
			event.End = event.Start.Add(duration)
			event.AllDay = false
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		created, err := app.client.CreateEvent(cmd.Context(), event)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s: %s\n", created.ID, created.Title)
		return nil
	},
}

// eventsMoveCmd reschedules an event
var eventsMoveCmd = &cobra.Command{
	Use:   "move <event-id>",
	Short: "Reschedule an event by a number of days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days == 0 {
			return fmt.Errorf("--days must be non-zero")
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		// The month window around now covers the common case; events
		// further out can be moved from the TUI.
		from := time.Now().AddDate(0, -1, 0)
		to := time.Now().AddDate(0, 2, 0)
		events, err := app.client.ListEvents(cmd.Context(), from, to)
		if err != nil {
			return err
		}

		for _, ev := range events {
			if ev.ID != args[0] {
				continue
			}
			ev.Start = ev.Start.AddDate(0, 0, days)
			ev.End = ev.End.AddDate(0, 0, days)
			updated, err := app.client.UpdateEvent(cmd.Context(), ev)
			if err != nil {
				return err
			}
			fmt.Printf("Moved %s to %s\n", updated.Title, updated.Start.Local().Format("Jan 02"))
			return nil
		}
		return fmt.Errorf("event %q not found between %s and %s",
			args[0], from.Format("2006-01-02"), to.Format("2006-01-02"))
	},
}

// eventsRmCmd removes an event
var eventsRmCmd = &cobra.Command{
	Use:   "rm <event-id>",
	Short: "Remove an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		if err := app.client.DeleteEvent(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

func init() {
	eventsListCmd.Flags().String("month", "", "month to list (YYYY-MM, default current)")
	eventsAddCmd.Flags().String("date", "", "event date (YYYY-MM-DD, default today)")
	eventsAddCmd.Flags().String("at", "", "start time (HH:MM); omit for an all-day event")
	eventsAddCmd.Flags().Duration("for", time.Hour, "event duration when --at is set")
	eventsMoveCmd.Flags().Int("days", 0, "days to shift the event by (negative moves earlier)")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsAddCmd)
	eventsCmd.AddCommand(eventsMoveCmd)
	eventsCmd.AddCommand(eventsRmCmd)
	rootCmd.AddCommand(eventsCmd)
}
