package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/intraworks/workbench/internal/viewer"
)

func (m *Model) renderLoading() string {
	msg := m.spinner.View() + " Restoring session..."
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Workbench"))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.styles.Warning.Render(m.notice))
		b.WriteString("\n\n")
	}

	if m.loginBusy {
		b.WriteString(m.spinner.View() + " Signing in...")
	} else if m.loginForm != nil {
		b.WriteString(m.loginForm.View())
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m *Model) renderBoards() string {
	boardPane := m.renderBoardList()
	postsPane := m.renderWithFocus(m.postsTable.View(), m.focus == focusPosts)
	contentPane := m.renderWithFocus(m.contentView.View(), m.focus == focusContent)

	right := lipgloss.JoinVertical(lipgloss.Left, postsPane, contentPane)
	body := lipgloss.JoinHorizontal(lipgloss.Top, boardPane, right)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderBoardList() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Boards"))
	b.WriteString("\n")

	for i, board := range m.boards {
		line := fmt.Sprintf("%s (%d)", board.Name, board.PostCount)
		if i == m.boardCursor {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.boards) == 0 {
		b.WriteString(m.styles.Muted.Render("no boards"))
	}

	pane := lipgloss.NewStyle().Width(boardPaneWidth).Render(b.String())
	return m.renderWithFocus(pane, m.focus == focusBoards)
}

func (m *Model) renderWithFocus(content string, focused bool) string {
	if focused {
		return m.styles.FocusBorder.Render(content)
	}
	return m.styles.Border.Render(content)
}

func (m *Model) renderCalendar() string {
	c := &m.calendar
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(c.cursor.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(" Su  Mo  Tu  We  Th  Fr  Sa"))
	b.WriteString("\n")

	first := time.Date(c.cursor.Year(), c.cursor.Month(), 1, 0, 0, 0, 0, c.cursor.Location())
	last := first.AddDate(0, 1, -1)
	today := dayOf(time.Now())

	// Leading blanks up to the first weekday.
	b.WriteString(strings.Repeat("    ", int(first.Weekday())))

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		cell := fmt.Sprintf("%3d", day.Day())
		if len(c.byDay[dayKey(day)]) > 0 {
			cell += "*"
		} else {
			cell += " "
		}

		switch {
		case day.Equal(c.cursor):
			cell = m.styles.Selected.Render(cell)
		case day.Equal(today):
			cell = m.styles.Today.Render(cell)
		}
		b.WriteString(cell)

		if day.Weekday() == time.Saturday {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.styles.Subtitle.Render(c.cursor.Format("Mon Jan 2")))
	b.WriteString("\n")
	events := c.dayEvents()
	if len(events) == 0 {
		b.WriteString(m.styles.Muted.Render("  no events"))
		b.WriteString("\n")
	}
	for i, ev := range events {
		line := "  " + ev.Title
		if !ev.AllDay {
			line += m.styles.Muted.Render(" " + ev.Start.Format("15:04"))
		}
		if i == c.eventIdx {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if c.moving != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render(
			fmt.Sprintf("Moving %q to %s (enter to confirm, esc to cancel)",
				c.moving.Title, c.target.Format("Jan 2"))))
		b.WriteString("\n")
	}

	if c.adding != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Status.Render("New event title: "))
		b.WriteString(c.adding.title)
		b.WriteString("▌")
		b.WriteString("\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left, b.String(), m.renderStatusBar())
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Press ? or esc to go back."))
	return b.String()
}

// renderViewerOverlay draws the image inspector centered over the UI.
func (m *Model) renderViewerOverlay() string {
	var body string

	switch m.viewer.State() {
	case viewer.StateLoading:
		body = m.spinner.View() + " Loading " + m.viewer.URL()

	case viewer.StateError:
		body = m.styles.Error.Render("Could not load image") + "\n" +
			m.styles.Muted.Render(m.viewer.Err().Error())

	case viewer.StateReady:
		w, h := m.viewer.ImageSize()
		offX, offY := m.viewer.Offset()
		title := m.viewer.Alt()
		if title == "" {
			title = m.viewer.URL()
		}
		body = m.styles.Title.Render(title) + "\n" +
			fmt.Sprintf("%dx%d  zoom %.0f%%  offset %+.0f,%+.0f", w, h, m.viewer.Scale()*100, offX, offY) +
			"\n\n" +
			m.styles.Muted.Render("+/- zoom · 0 reset · arrows pan · esc close")
	}

	box := m.styles.FocusBorder.Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderStatusBar shows the signed-in user, token horizon, and errors.
func (m *Model) renderStatusBar() string {
	var parts []string

	if m.store.IsAuthenticated() {
		who := m.store.UserName()
		if m.store.IsAdmin() {
			who += " (admin)"
		}
		parts = append(parts, m.styles.Status.Render(who))
	}

	if info := m.store.TokenInfo(); info != nil {
		remaining := time.Until(info.AccessExpiresAt).Round(time.Minute)
		if remaining > 0 {
			parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("token %s", remaining)))
		}
	}

	if m.lastError != "" {
		parts = append(parts, m.styles.Error.Render(m.lastError))
	}

	parts = append(parts, m.styles.Help.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return strings.Join(parts, "  ")
}
