package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rodortega/calcli/internal/api"
)

type EventsCmd struct {
	List   EventsListCmd   `cmd:"" help:"List events in a date range"`
	Show   EventsShowCmd   `cmd:"" help:"Show a single event"`
	Create EventsCreateCmd `cmd:"" help:"Create an event"`
	Update EventsUpdateCmd `cmd:"" help:"Update an event"`
	Delete EventsDeleteCmd `cmd:"" help:"Delete an event"`
}

type EventsListCmd struct {
	Start string `help:"Range start (RFC 3339 or YYYY-MM-DD), defaults to now"`
	End   string `help:"Range end (RFC 3339 or YYYY-MM-DD), defaults to start plus 7 days"`
	Watch bool   `help:"Watch for changes (refresh every 30 seconds)" default:"false"`
}

func (l *EventsListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	start, end, err := l.resolveRange()
	if err != nil {
		return err
	}

	if l.Watch {
		return l.watchEvents(ctx, app, start, end)
	}

	return l.listEvents(ctx, app, start, end)
}

func (l *EventsListCmd) resolveRange() (time.Time, time.Time, error) {
	start := time.Now()
	if l.Start != "" {
		var err error
		start, err = parseWhen(l.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
	}

	end := start.AddDate(0, 0, 7)
	if l.End != "" {
		var err error
		end, err = parseWhen(l.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must be after --start")
	}

	return start, end, nil
}

func (l *EventsListCmd) listEvents(ctx context.Context, app *App, start, end time.Time) error {
	resp, err := app.API.ListEvents(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	printEvents(resp.Events, start, end)
	return nil
}

func (l *EventsListCmd) watchEvents(ctx context.Context, app *App, start, end time.Time) error {
	fmt.Println("Watching events (press Ctrl+C to stop)...")
	fmt.Println()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	// Print initial state
	if err := l.listEvents(ctx, app, start, end); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fmt.Print("\033[2J\033[H") // Clear screen and move cursor to top
			fmt.Printf("Events (updated at %s)\n", time.Now().Format("15:04:05"))
			fmt.Println()

			if err := l.listEvents(ctx, app, start, end); err != nil {
				fmt.Printf("Error updating event list: %v\n", err)
			}
		}
	}
}

func printEvents(events []api.CalendarEvent, start, end time.Time) {
	fmt.Printf("Events (%s to %s):\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	if len(events) == 0 {
		fmt.Println("No events found.")
		return
	}

	// Print header
	fmt.Printf("%-36s %-25s %-16s %-16s %-10s\n",
		"Event ID", "Title", "Start", "End", "Visibility")
	fmt.Println(strings.Repeat("─", 108))

	for _, event := range events {
		title := event.Title
		if len(title) > 25 {
			title = title[:22] + "..."
		}

		startAt := event.StartDate.Format("2006-01-02 15:04")
		endAt := event.EndDate.Format("2006-01-02 15:04")
		if event.AllDay {
			startAt = event.StartDate.Format("2006-01-02")
			endAt = "all day"
		}

		fmt.Printf("%-36s %-25s %-16s %-16s %-10s\n",
			event.ID,
			title,
			startAt,
			endAt,
			event.Visibility)
	}

	fmt.Printf("\nTotal events: %d\n", len(events))
}

type EventsShowCmd struct {
	ID string `arg:"" help:"Event ID"`
}

func (s *EventsShowCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	event, err := app.API.GetEvent(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	fmt.Printf("ID:          %s\n", event.ID)
	fmt.Printf("Title:       %s\n", event.Title)
	fmt.Printf("Start:       %s\n", event.StartDate.Format(time.RFC3339))
	fmt.Printf("End:         %s\n", event.EndDate.Format(time.RFC3339))
	fmt.Printf("Visibility:  %s\n", event.Visibility)

	if event.AllDay {
		fmt.Println("All day:     yes")
	}
	if event.Location != "" {
		fmt.Printf("Location:    %s\n", event.Location)
	}
	if event.Description != "" {
		fmt.Printf("Description: %s\n", event.Description)
	}
	if event.IsRecurring {
		fmt.Println("Recurring:   yes")
	}

	if len(event.Participants) > 0 {
		fmt.Println("Participants:")
		for _, p := range event.Participants {
			fmt.Printf("  - %s <%s> (%s, %s)\n", p.Contact.Name, p.Contact.Email, p.Role, p.Status)
		}
	}

	if len(event.Reminders) > 0 {
		fmt.Println("Reminders:")
		for _, r := range event.Reminders {
			fmt.Printf("  - %d minutes before (%s)\n", r.MinutesBefore, r.Type)
		}
	}

	return nil
}

type EventsCreateCmd struct {
	Title       string `help:"Event title" required:""`
	Start       string `help:"Start time (RFC 3339 or YYYY-MM-DD)" required:""`
	End         string `help:"End time (RFC 3339 or YYYY-MM-DD), defaults to start plus one hour"`
	AllDay      bool   `help:"All-day event" default:"false"`
	Visibility  string `help:"Event visibility" enum:"private,team,public" default:"team"`
	Location    string `help:"Event location"`
	Description string `help:"Event description"`
}

func (c *EventsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	start, err := parseWhen(c.Start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	end := start.Add(time.Hour)
	if c.End != "" {
		end, err = parseWhen(c.End)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	event, err := app.API.CreateEvent(ctx, api.CreateEventInput{
		Title:       c.Title,
		StartDate:   start,
		EndDate:     end,
		AllDay:      c.AllDay,
		Visibility:  c.Visibility,
		Location:    c.Location,
		Description: c.Description,
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	fmt.Printf("Created event %s\n", event.ID)

	return nil
}

type EventsUpdateCmd struct {
	ID          string  `arg:"" help:"Event ID"`
	Title       *string `help:"New title"`
	Start       *string `help:"New start time (RFC 3339 or YYYY-MM-DD)"`
	End         *string `help:"New end time (RFC 3339 or YYYY-MM-DD)"`
	Visibility  *string `help:"New visibility (private, team, public)"`
	Location    *string `help:"New location"`
	Description *string `help:"New description"`
}

func (u *EventsUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	input := api.UpdateEventInput{
		Title:       u.Title,
		Visibility:  u.Visibility,
		Location:    u.Location,
		Description: u.Description,
	}

	if u.Start != nil {
		start, err := parseWhen(*u.Start)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		input.StartDate = &start
	}

	if u.End != nil {
		end, err := parseWhen(*u.End)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
		input.EndDate = &end
	}

	event, err := app.API.UpdateEvent(ctx, u.ID, input)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	fmt.Printf("Updated event %s\n", event.ID)

	return nil
}

type EventsDeleteCmd struct {
	ID string `arg:"" help:"Event ID"`
}

func (d *EventsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := buildApp(globals)
	if err != nil {
		return err
	}

	if err := app.API.DeleteEvent(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Printf("Deleted event %s\n", d.ID)

	return nil
}

// parseWhen accepts either a full RFC 3339 timestamp or a bare date.
func parseWhen(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}
