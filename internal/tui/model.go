// Package tui implements the interactive workbench terminal UI: login,
// board and post browsing with inline image inspection, and the event
// calendar, composed over the session store and API client.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/config"
	"github.com/intraworks/workbench/internal/content"
	"github.com/intraworks/workbench/internal/log"
	"github.com/intraworks/workbench/internal/session"
	"github.com/intraworks/workbench/internal/viewer"
)

// ViewType represents the current view being displayed
type ViewType int

// View type constants
const (
	// ViewLoading is the startup view shown while bootstrap runs
	ViewLoading ViewType = iota
	// ViewLogin is the credential form
	ViewLogin
	// ViewBoards is the board and post browser
	ViewBoards
	// ViewCalendar is the month calendar
	ViewCalendar
	// ViewHelp is the help screen
	ViewHelp
)

// boardsFocus marks which pane of the board view receives keys.
type boardsFocus int

const (
	focusBoards boardsFocus = iota
	focusPosts
	focusContent
)

// Model represents the TUI application state
type Model struct {
	ctx    context.Context
	cfg    *config.Config
	client *api.Client
	store  *session.Store

	// refresher is started after login or a successful bootstrap and
	// stopped on logout and quit
	refresher *session.Refresher
	logger    *log.Logger

	// UI state
	currentView ViewType
	prevView    ViewType
	width       int
	height      int
	ready       bool
	quitting    bool
	notice      string
	lastError   string

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	// Login state
	loginForm     *huh.Form
	loginID       string
	loginPassword string
	loginBusy     bool

	// Board view state
	focus       boardsFocus
	boards      []api.Board
	boardCursor int
	postsTable  table.Model
	posts       []api.Post
	postsPage   int
	totalPages  int
	currentPost *api.Post
	contentView viewport.Model
	enhancer    *content.Enhancer
	images      []content.ImageRef

	// Image viewer overlay
	viewer *viewer.Viewer

	// Calendar state
	calendar calendarState

	styles Styles
}

// NewModel creates the TUI model. The refresher is attached afterwards
// via SetRefresher because its logout callback needs the running program.
func NewModel(ctx context.Context, cfg *config.Config, client *api.Client, store *session.Store, logger *log.Logger) *Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Status

	m := &Model{
		ctx:         ctx,
		cfg:         cfg,
		client:      client,
		store:       store,
		logger:      logger,
		currentView: ViewLoading,
		spinner:     sp,
		help:        help.New(),
		keys:        defaultKeyMap(),
		postsTable:  newPostsTable(),
		viewer:      viewer.New(client),
		calendar:    newCalendarState(time.Now()),
		styles:      styles,
	}
	m.enhancer = content.NewEnhancer(cfg.ScanDebounce, m.enhanceImage)
	return m
}

// SetRefresher attaches the background refresher the model starts and
// stops around the session lifecycle.
func (m *Model) SetRefresher(r *session.Refresher) {
	m.refresher = r
}

// enhanceImage records a numbered affordance for an image found in the
// open post. The teardown drops it from the numbered list again.
func (m *Model) enhanceImage(ref content.ImageRef) func() {
	m.images = append(m.images, ref)
	return func() {
		for i, img := range m.images {
			if img.Key == ref.Key {
				m.images = append(m.images[:i], m.images[i+1:]...)
				return
			}
		}
	}
}

// Init kicks off the spinner and the auth bootstrap (required by Bubble Tea)
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bootstrapCmd())
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.layoutPanes()
		m.viewer.SetContainerSize(msg.Width-8, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if m.currentView == ViewLoading || m.loginBusy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case bootstrapDoneMsg:
		return m.handleBootstrapDone(msg)

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case sessionExpiredMsg:
		// The refresher already cleared the store; drop to login.
		m.notice = "Session expired, please sign in again."
		m.resetWorkspace()
		m.showLogin()
		return m, nil

	case logoutDoneMsg:
		m.notice = "Signed out."
		m.resetWorkspace()
		m.showLogin()
		return m, nil

	case boardsLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.boards = msg.boards
		if m.boardCursor >= len(m.boards) {
			m.boardCursor = 0
		}
		if len(m.boards) > 0 {
			return m, m.loadPostsCmd(m.boards[m.boardCursor].ID, 1)
		}
		return m, nil

	case postsLoadedMsg:
		return m.handlePostsLoaded(msg)

	case postLoadedMsg:
		return m.handlePostLoaded(msg)

	case postDeletedMsg:
		return m.handlePostDeleted(msg)

	case imageLoadedMsg:
		m.viewer.Deliver(msg.res)
		return m, nil

	case eventsLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.calendar.setEvents(msg.events)
		return m, nil

	case eventSavedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		from, to := m.calendar.monthRange()
		return m, m.loadEventsCmd(from, to)

	case eventDeletedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		from, to := m.calendar.monthRange()
		return m, m.loadEventsCmd(from, to)
	}

	// The login form consumes everything else while visible.
	if m.currentView == ViewLogin && m.loginForm != nil {
		return m.updateLoginForm(msg)
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.quitting {
		return ""
	}

	var body string
	switch m.currentView {
	case ViewLoading:
		body = m.renderLoading()
	case ViewLogin:
		body = m.renderLogin()
	case ViewBoards:
		body = m.renderBoards()
	case ViewCalendar:
		body = m.renderCalendar()
	case ViewHelp:
		body = m.renderHelp()
	default:
		body = "Unknown view"
	}

	if m.viewer.State() != viewer.StateClosed {
		return m.renderViewerOverlay()
	}
	return body
}

// handleBootstrapDone routes the startup outcome to the first real view.
func (m *Model) handleBootstrapDone(msg bootstrapDoneMsg) (tea.Model, tea.Cmd) {
	if !msg.authenticated {
		m.showLogin()
		return m, nil
	}

	m.startRefresher()
	m.currentView = ViewBoards
	return m, m.loadBoardsCmd()
}

func (m *Model) startRefresher() {
	if m.refresher != nil {
		m.refresher.Start(m.ctx)
	}
}

// showLogin rebuilds the credential form and switches to the login view.
func (m *Model) showLogin() {
	m.loginID = ""
	m.loginPassword = ""
	m.loginBusy = false
	m.loginForm = newLoginForm(&m.loginID, &m.loginPassword)
	m.currentView = ViewLogin
}

// resetWorkspace drops everything tied to the old session.
func (m *Model) resetWorkspace() {
	if m.refresher != nil {
		m.refresher.Stop()
	}
	m.viewer.Close()
	m.enhancer.Dispose()
	m.enhancer = content.NewEnhancer(m.cfg.ScanDebounce, m.enhanceImage)
	m.images = nil
	m.boards = nil
	m.posts = nil
	m.currentPost = nil
	m.postsTable.SetRows(nil)
	m.focus = focusBoards
	m.lastError = ""
}

func newLoginForm(id, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("id").
				Title("ID").
				Value(id),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		).Title("Sign in to Workbench"),
	)
}

func (m *Model) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.loginForm = f
		if m.loginForm.State == huh.StateCompleted && !m.loginBusy {
			m.loginBusy = true
			m.notice = ""
			return m, tea.Batch(m.spinner.Tick, m.loginCmd(m.loginID, m.loginPassword))
		}
	}
	return m, cmd
}

func (m *Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.loginBusy = false
	if msg.err != nil {
		m.notice = msg.err.Error()
		m.showLogin()
		return m, nil
	}

	m.store.SetUser(msg.user, msg.tokenInfo)
	m.notice = ""
	m.startRefresher()
	m.currentView = ViewBoards
	return m, m.loadBoardsCmd()
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	// A visible viewer overlay owns the keyboard.
	if m.viewer.State() != viewer.StateClosed {
		m.viewer.HandleKey(msg.String())
		return m, nil
	}

	switch m.currentView {
	case ViewLoading:
		return m, nil

	case ViewLogin:
		return m.updateLoginForm(msg)

	case ViewHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.currentView = m.prevView
		}
		return m, nil
	}

	// Keys shared by the board and calendar views.
	switch msg.String() {
	case "q":
		return m.quit()
	case "?":
		m.prevView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "tab":
		if m.currentView == ViewBoards {
			m.currentView = ViewCalendar
			from, to := m.calendar.monthRange()
			return m, m.loadEventsCmd(from, to)
		}
		m.currentView = ViewBoards
		return m, nil
	case "ctrl+o":
		return m, m.logoutCmd()
	}

	switch m.currentView {
	case ViewBoards:
		return m.handleBoardsKey(msg)
	case ViewCalendar:
		return m.handleCalendarKey(msg)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.refresher != nil {
		m.refresher.Stop()
	}
	m.viewer.Close()
	m.enhancer.Dispose()
	return m, tea.Quit
}

// Custom messages for session and API events

// bootstrapDoneMsg reports the startup auth outcome
type bootstrapDoneMsg struct {
	authenticated bool
}

// loginResultMsg carries the login response
type loginResultMsg struct {
	user      *api.User
	tokenInfo *api.TokenInfo
	err       error
}

// sessionExpiredMsg is posted by the refresher's logout callback
type sessionExpiredMsg struct{}

// logoutDoneMsg reports an explicit sign-out finished
type logoutDoneMsg struct{}

// boardsLoadedMsg carries the board listing
type boardsLoadedMsg struct {
	boards []api.Board
	err    error
}

// postsLoadedMsg carries one page of a board's posts
type postsLoadedMsg struct {
	boardID    string
	posts      []api.Post
	page       int
	totalPages int
	err        error
}

// postLoadedMsg carries a full post body
type postLoadedMsg struct {
	post *api.Post
	err  error
}

// postDeletedMsg reports a post removal
type postDeletedMsg struct {
	postID string
	err    error
}

// imageLoadedMsg carries a viewer preload result
type imageLoadedMsg struct {
	res viewer.LoadResult
}

// eventsLoadedMsg carries the calendar month's events
type eventsLoadedMsg struct {
	events []api.Event
	err    error
}

// eventSavedMsg reports an event create or update
type eventSavedMsg struct {
	err error
}

// eventDeletedMsg reports an event removal
type eventDeletedMsg struct {
	err error
}
