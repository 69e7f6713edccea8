package tui

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/intraworks/workbench/internal/api"
)

// calendarState holds the month grid: a cursor day, the month's events
// bucketed per day, and an optional move in progress.
type calendarState struct {
	cursor time.Time // always midnight local
	events []api.Event
	byDay  map[string][]api.Event

	// eventIdx selects among the cursor day's events
	eventIdx int

	// moving holds the event being rescheduled; target tracks where the
	// cursor has carried it
	moving *api.Event
	target time.Time

	// adding is non-nil while the new-event title prompt is open
	adding *eventDraft
}

type eventDraft struct {
	title string
	day   time.Time
}

func newCalendarState(now time.Time) calendarState {
	return calendarState{
		cursor: dayOf(now),
		byDay:  make(map[string][]api.Event),
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// monthRange returns the [first, first-of-next-month) window of the
// cursor's month.
func (c *calendarState) monthRange() (time.Time, time.Time) {
	first := time.Date(c.cursor.Year(), c.cursor.Month(), 1, 0, 0, 0, 0, c.cursor.Location())
	return first, first.AddDate(0, 1, 0)
}

// setEvents replaces the month's events and rebuilds the per-day buckets.
func (c *calendarState) setEvents(events []api.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	c.events = events
	c.byDay = make(map[string][]api.Event)
	for _, ev := range events {
		key := dayKey(ev.Start.In(c.cursor.Location()))
		c.byDay[key] = append(c.byDay[key], ev)
	}
	c.clampEventIdx()
}

// dayEvents returns the events on the cursor day.
func (c *calendarState) dayEvents() []api.Event {
	return c.byDay[dayKey(c.cursor)]
}

// selectedEvent returns the highlighted event on the cursor day, nil when
// the day is empty.
func (c *calendarState) selectedEvent() *api.Event {
	evs := c.dayEvents()
	if len(evs) == 0 {
		return nil
	}
	if c.eventIdx >= len(evs) {
		c.eventIdx = len(evs) - 1
	}
	return &evs[c.eventIdx]
}

func (c *calendarState) clampEventIdx() {
	if n := len(c.dayEvents()); c.eventIdx >= n {
		c.eventIdx = 0
	}
}

// shiftCursor moves the cursor (or the move target while rescheduling) by
// days. Returns true when the month changed.
func (c *calendarState) shiftCursor(days int) bool {
	oldMonth := c.cursor.Month()
	c.cursor = c.cursor.AddDate(0, 0, days)
	if c.moving != nil {
		c.target = c.cursor
	}
	c.eventIdx = 0
	return c.cursor.Month() != oldMonth
}

// shiftMonth moves the cursor by whole months, keeping the day when it
// exists in the target month.
func (c *calendarState) shiftMonth(months int) {
	day := c.cursor.Day()
	first := time.Date(c.cursor.Year(), c.cursor.Month(), 1, 0, 0, 0, 0, c.cursor.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	c.cursor = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
	if c.moving != nil {
		c.target = c.cursor
	}
	c.eventIdx = 0
}

// beginMove marks the selected event for rescheduling.
func (c *calendarState) beginMove() bool {
	ev := c.selectedEvent()
	if ev == nil {
		return false
	}
	moving := *ev
	c.moving = &moving
	c.target = c.cursor
	return true
}

// moveDelta is how far the pending move shifts the event.
func (c *calendarState) moveDelta() time.Duration {
	if c.moving == nil {
		return 0
	}
	return c.target.Sub(dayOf(c.moving.Start.In(c.cursor.Location())))
}

func (c *calendarState) cancelMove() {
	c.moving = nil
}

// handleCalendarKey drives the calendar view.
func (m *Model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.calendar

	// The title prompt swallows keys while adding an event.
	if c.adding != nil {
		return m.handleDraftKey(msg)
	}

	reload := func(monthChanged bool) tea.Cmd {
		if !monthChanged {
			return nil
		}
		from, to := c.monthRange()
		return m.loadEventsCmd(from, to)
	}

	switch msg.String() {
	case "left":
		return m, reload(c.shiftCursor(-1))
	case "right":
		return m, reload(c.shiftCursor(1))
	case "up":
		return m, reload(c.shiftCursor(-7))
	case "down":
		return m, reload(c.shiftCursor(7))
	case "p":
		c.shiftMonth(-1)
		from, to := c.monthRange()
		return m, m.loadEventsCmd(from, to)
	case "n":
		c.shiftMonth(1)
		from, to := c.monthRange()
		return m, m.loadEventsCmd(from, to)

	case "J":
		if n := len(c.dayEvents()); n > 0 {
			c.eventIdx = (c.eventIdx + 1) % n
		}
		return m, nil
	case "K":
		if n := len(c.dayEvents()); n > 0 {
			c.eventIdx = (c.eventIdx - 1 + n) % n
		}
		return m, nil

	case "a":
		c.adding = &eventDraft{day: c.cursor}
		return m, nil

	case "x":
		if ev := c.selectedEvent(); ev != nil && c.moving == nil {
			return m, m.deleteEventCmd(ev.ID)
		}
		return m, nil

	case "enter":
		if c.moving != nil {
			ev := *c.moving
			delta := c.moveDelta()
			c.cancelMove()
			if delta == 0 {
				return m, nil
			}
			return m, m.moveEventCmd(ev, delta)
		}
		return m, nil

	case "m":
		c.beginMove()
		return m, nil

	case "esc":
		c.cancelMove()
		return m, nil

	case "r":
		from, to := c.monthRange()
		return m, m.loadEventsCmd(from, to)
	}

	return m, nil
}

// handleDraftKey edits the new-event title prompt.
func (m *Model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.calendar
	draft := c.adding

	switch msg.Type {
	case tea.KeyEsc:
		c.adding = nil
		return m, nil

	case tea.KeyEnter:
		title := draft.title
		c.adding = nil
		if title == "" {
			return m, nil
		}
		event := api.Event{
			ID:     uuid.New().String(),
			Title:  title,
			Start:  draft.day,
			End:    draft.day.AddDate(0, 0, 1),
			AllDay: true,
		}
		return m, m.createEventCmd(event)

	case tea.KeyBackspace:
		if len(draft.title) > 0 {
			runes := []rune(draft.title)
			draft.title = string(runes[:len(runes)-1])
		}
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		draft.title += msg.String()
		return m, nil
	}

	return m, nil
}
