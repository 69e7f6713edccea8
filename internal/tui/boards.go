package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/session"
)

func newPostsTable() table.Model {
	columns := []table.Column{
		{Title: "Title", Width: 36},
		{Title: "Author", Width: 14},
		{Title: "Posted", Width: 12},
	}
	return table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(10),
	)
}

// layoutPanes resizes the board view panes after a window size change.
func (m *Model) layoutPanes() {
	contentWidth := m.width - boardPaneWidth - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	tableHeight := m.height/2 - 4
	if tableHeight < 4 {
		tableHeight = 4
	}
	contentHeight := m.height - tableHeight - 8
	if contentHeight < 4 {
		contentHeight = 4
	}

	m.postsTable.SetHeight(tableHeight)
	if m.contentView.Width == 0 {
		m.contentView = viewport.New(contentWidth, contentHeight)
	} else {
		m.contentView.Width = contentWidth
		m.contentView.Height = contentHeight
	}
	if m.currentPost != nil {
		m.contentView.SetContent(m.renderPostContent(m.currentPost))
	}
}

func (m *Model) handlePostsLoaded(msg postsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastError = msg.err.Error()
		return m, nil
	}
	m.lastError = ""
	m.posts = msg.posts
	m.postsPage = msg.page
	m.totalPages = msg.totalPages

	rows := make([]table.Row, len(msg.posts))
	for i, p := range msg.posts {
		rows[i] = table.Row{p.Title, p.Author, p.CreatedAt.Format("2006-01-02")}
	}
	m.postsTable.SetRows(rows)
	m.postsTable.SetCursor(0)
	return m, nil
}

func (m *Model) handlePostLoaded(msg postLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastError = msg.err.Error()
		return m, nil
	}
	m.lastError = ""
	m.currentPost = msg.post

	// Feed the body through the enhancer so its images get numbered
	// affordances; Flush so the pass lands before the next render.
	m.enhancer.SetContent(msg.post.Content)
	m.enhancer.Flush()

	m.contentView.SetContent(m.renderPostContent(msg.post))
	m.contentView.GotoTop()
	m.focus = focusContent
	return m, nil
}

func (m *Model) handlePostDeleted(msg postDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastError = msg.err.Error()
		return m, nil
	}
	m.lastError = ""

	if m.currentPost != nil && m.currentPost.ID == msg.postID {
		m.currentPost = nil
		m.enhancer.SetContent("")
		m.enhancer.Flush()
		m.contentView.SetContent("")
		m.focus = focusPosts
		m.syncTableFocus()
	}

	if len(m.boards) > 0 {
		return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, m.postsPage)
	}
	return m, nil
}

// handleBoardsKey drives the three board panes. Focus cycles with
// left/right, selection with up/down, enter descends.
func (m *Model) handleBoardsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Digits open the numbered image affordances of the open post.
	if m.focus == focusContent && len(key) == 1 && key >= "1" && key <= "9" {
		return m, m.openImageByIndex(int(key[0] - '0'))
	}

	switch key {
	case "left", "h":
		if m.focus > focusBoards {
			m.focus--
			m.syncTableFocus()
		}
		return m, nil

	case "right", "l":
		if m.focus < focusContent {
			m.focus++
			m.syncTableFocus()
		}
		return m, nil

	case "up", "k":
		switch m.focus {
		case focusBoards:
			if m.boardCursor > 0 {
				m.boardCursor--
				return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, 1)
			}
		case focusPosts:
			m.postsTable.MoveUp(1)
		case focusContent:
			m.contentView.ScrollUp(1)
		}
		return m, nil

	case "down", "j":
		switch m.focus {
		case focusBoards:
			if m.boardCursor < len(m.boards)-1 {
				m.boardCursor++
				return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, 1)
			}
		case focusPosts:
			m.postsTable.MoveDown(1)
		case focusContent:
			m.contentView.ScrollDown(1)
		}
		return m, nil

	case "enter":
		if m.focus == focusPosts {
			if post := m.selectedPost(); post != nil {
				return m, m.loadPostCmd(post.ID)
			}
		}
		return m, nil

	case "[":
		if m.postsPage > 1 && len(m.boards) > 0 {
			return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, m.postsPage-1)
		}
		return m, nil

	case "]":
		if m.postsPage < m.totalPages && len(m.boards) > 0 {
			return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, m.postsPage+1)
		}
		return m, nil

	case "x":
		if m.focus == focusPosts {
			if post := m.selectedPost(); post != nil {
				if !m.store.CanAccessBoard(post.BoardID, session.ActionDelete) {
					m.lastError = "no permission to delete posts on this board"
					return m, nil
				}
				return m, m.deletePostCmd(post.ID)
			}
		}
		return m, nil

	case "r":
		return m, m.loadBoardsCmd()
	}

	return m, nil
}

func (m *Model) syncTableFocus() {
	if m.focus == focusPosts {
		m.postsTable.Focus()
	} else {
		m.postsTable.Blur()
	}
}

func (m *Model) selectedPost() *api.Post {
	idx := m.postsTable.Cursor()
	if idx < 0 || idx >= len(m.posts) {
		return nil
	}
	return &m.posts[idx]
}

// openImageByIndex opens the viewer on the post image with the given
// affordance number and starts its preload.
func (m *Model) openImageByIndex(n int) tea.Cmd {
	for _, img := range m.images {
		if img.Index == n {
			load := m.viewer.Open(img.Source, img.Alt)
			return m.preloadCmd(load)
		}
	}
	return nil
}

// renderPostContent rewrites the post body for the viewport, replacing
// image references with their numbered affordances.
func (m *Model) renderPostContent(post *api.Post) string {
	body := post.Content
	for _, img := range m.images {
		label := m.styles.Highlighted.Render(fmt.Sprintf("[image %d]", img.Index))
		if img.Alt != "" {
			label += " " + m.styles.Muted.Render(img.Alt)
		}
		markdown := fmt.Sprintf("![%s](%s)", img.Alt, img.Source)
		if strings.Contains(body, markdown) {
			body = strings.ReplaceAll(body, markdown, label)
		} else {
			body = strings.ReplaceAll(body, img.Source, label)
		}
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(post.Title))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(post.Author + " · " + post.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("\n\n")
	b.WriteString(body)

	if len(post.Attachments) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Attachments:"))
		for _, att := range post.Attachments {
			b.WriteString("\n  " + att.Name + " (" + strconv.FormatInt(att.Size, 10) + " bytes)")
		}
	}
	return b.String()
}
