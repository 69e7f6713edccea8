package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/session"
	"github.com/intraworks/workbench/internal/viewer"
)

// Run starts the bubbletea program for model m, creating the session
// refresher whose logout callback posts back into the program.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	refresher := session.NewRefresher(session.RefresherConfig{
		Store:    m.store,
		Client:   m.client,
		Interval: m.cfg.RefreshInterval,
		Ahead:    m.cfg.RefreshAhead,
		OnLogout: func() { p.Send(sessionExpiredMsg{}) },
		Logger:   m.logger,
	})
	m.SetRefresher(refresher)
	defer refresher.Stop()

	_, err := p.Run()
	return err
}

// requestCtx bounds one API call.
func (m *Model) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, m.cfg.RequestTimeout)
}

func (m *Model) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		ok := session.Bootstrap(m.ctx, m.store, m.client, m.logger)
		return bootstrapDoneMsg{authenticated: ok}
	}
}

func (m *Model) loginCmd(id, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		user, tokenInfo, err := m.client.Login(ctx, id, password)
		return loginResultMsg{user: user, tokenInfo: tokenInfo, err: err}
	}
}

// logoutCmd tears the session down locally even when the server call
// fails; a dead server must not keep the client signed in.
func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		if err := m.client.Logout(ctx); err != nil {
			m.logger.WithError(err).Warn("server logout failed")
		}
		m.store.ClearUser()
		return logoutDoneMsg{}
	}
}

func (m *Model) loadBoardsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		boards, err := m.client.ListBoards(ctx)
		return boardsLoadedMsg{boards: boards, err: err}
	}
}

func (m *Model) loadPostsCmd(boardID string, page int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		posts, serverPage, totalPages, err := m.client.ListPosts(ctx, boardID, page)
		return postsLoadedMsg{boardID: boardID, posts: posts, page: serverPage, totalPages: totalPages, err: err}
	}
}

func (m *Model) loadPostCmd(postID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		post, err := m.client.GetPost(ctx, postID)
		return postLoadedMsg{post: post, err: err}
	}
}

func (m *Model) deletePostCmd(postID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		err := m.client.DeletePost(ctx, postID)
		return postDeletedMsg{postID: postID, err: err}
	}
}

func (m *Model) loadEventsCmd(from, to time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		events, err := m.client.ListEvents(ctx, from, to)
		return eventsLoadedMsg{events: events, err: err}
	}
}

func (m *Model) createEventCmd(event api.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		_, err := m.client.CreateEvent(ctx, event)
		return eventSavedMsg{err: err}
	}
}

// moveEventCmd reschedules an event, shifting start and end together.
func (m *Model) moveEventCmd(event api.Event, delta time.Duration) tea.Cmd {
	event.Start = event.Start.Add(delta)
	event.End = event.End.Add(delta)
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		_, err := m.client.UpdateEvent(ctx, event)
		return eventSavedMsg{err: err}
	}
}

func (m *Model) deleteEventCmd(eventID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()

		err := m.client.DeleteEvent(ctx, eventID)
		return eventDeletedMsg{err: err}
	}
}

func (m *Model) preloadCmd(load viewer.LoadFunc) tea.Cmd {
	return func() tea.Msg {
		return imageLoadedMsg{res: load()}
	}
}
