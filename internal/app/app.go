package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
	"github.com/nhle/stickylist/internal/ui"
	"github.com/nhle/stickylist/internal/ui/authform"
	"github.com/nhle/stickylist/internal/ui/board"
	"github.com/nhle/stickylist/internal/ui/checklists"
	"github.com/nhle/stickylist/internal/ui/command"
	"github.com/nhle/stickylist/internal/ui/config"
	"github.com/nhle/stickylist/internal/ui/confirm"
	"github.com/nhle/stickylist/internal/ui/detail"
	helpview "github.com/nhle/stickylist/internal/ui/help"
)

// Notices shown on the login screen when the user is sent back to it.
const (
	NoticeSignInRequired = "Please sign in to continue."
	NoticeSessionExpired = "Your session has expired. Please sign in again."
	NoticeSignedOut      = "You have been signed out."
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewRegister
	ViewChecklists
	ViewBoard
	ViewDetail
	ViewConfirm
	ViewHelp
	ViewCommand
	ViewSettings
)

// protected reports whether v needs a stored session.
func (v ViewState) protected() bool {
	return v == ViewChecklists || v == ViewBoard || v == ViewDetail
}

// Model is the root Bubble Tea model. It routes between the auth forms,
// the checklists screen and a task board, and owns the collections backing
// them.
type Model struct {
	svc          *Services
	logger       *zap.Logger
	keys         *KeyMap
	layout       ui.Layout
	currentView  ViewState
	previousView ViewState

	auth       authform.Model
	checklists checklists.Model
	board      board.Model
	detail     detail.Model
	confirm    confirm.Model
	helpView   helpview.Model
	palette    command.Model
	settings   config.Model

	lists     *appsync.ChecklistSet
	listsGen  int
	listsSub  <-chan appsync.Event[model.Checklist]
	tasks     *appsync.TaskBoard
	tasksGen  int
	tasksSub  <-chan appsync.Event[model.Task]
	refresher *appsync.Refresher

	notice string
	errMsg string
	ready  bool
}

// New creates the root model over svc.
func New(svc *Services) Model {
	k := DefaultKeyMap()
	color, err := model.ParseColor(svc.Config.Display.DefaultColor)
	if err != nil {
		color = model.DefaultColor
	}

	return Model{
		svc:         svc,
		logger:      svc.Logger.Named("tui"),
		keys:        k,
		layout:      ui.NewLayout(80, 24),
		currentView: ViewLogin,
		auth:        authform.New(authform.ModeLogin, 80, 24),
		checklists:  checklists.New(k, 80, 24),
		board:       board.New(k, color, 80, 24),
		detail:      detail.New(k, 80, 24),
		confirm:     confirm.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		palette:     command.New(80, 24),
		settings:    config.New(svc.TestConnection, k, 80, 24),
		refresher:   svc.NewRefresher(),
	}
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState { return m.currentView }

// Init starts the refresher and routes to the first screen.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresher.Start(), func() tea.Msg { return startMsg{} })
}

// startMsg picks the first screen. Init cannot mutate the model, so the
// first navigation goes through Update.
type startMsg struct{}

// Shutdown stops the refresher and the open collections. Call it after
// the program exits.
func (m Model) Shutdown() {
	m.refresher.Stop()
	if m.tasks != nil {
		m.tasks.Close()
	}
	if m.lists != nil {
		m.lists.Close()
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.auth.SetSize(w, h)
		m.checklists.SetSize(w, h)
		m.board.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.confirm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.palette.SetSize(w, h)
		m.settings.SetSize(w, h)
		return m.updateActiveView(msg)

	case startMsg:
		if !m.svc.SignedIn() {
			return m, m.showAuth(authform.ModeLogin, "")
		}
		return m, m.enterChecklists()

	// Auth forms

	case authform.LoginSubmitMsg:
		return m, m.login(msg.Form)

	case authform.RegisterSubmitMsg:
		return m, m.register(msg.Form)

	case authform.SwitchModeMsg:
		return m, m.showAuth(msg.Mode, "")

	case authform.QuitMsg:
		return m, tea.Quit

	case authDoneMsg:
		if msg.err != nil {
			m.auth.SetError(apperror.UserMessage(msg.err))
			return m, m.auth.Start()
		}
		return m, m.enterChecklists()

	// Checklists screen

	case checklists.OpenMsg:
		return m, m.openBoard(msg.Checklist)

	case checklists.CreateMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, m.createChecklist(msg.Title)

	case checklists.DeleteRequestMsg:
		return m, m.ask(confirm.Request{
			Title:       "Delete checklist?",
			Description: fmt.Sprintf("%q and its tasks will be removed.", msg.Checklist.Title),
			Tag:         deleteChecklistTag{id: msg.Checklist.ID},
		})

	case checklists.RefreshMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, loadCollection(m.lists)

	// Task board

	case board.BackMsg:
		m.closeBoard()
		return m, m.enterChecklists()

	case board.CreateMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, m.createTask(msg.Text, msg.Color)

	case board.ToggleCompletedMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, m.toggleCompleted(msg.TaskID)

	case board.TogglePinnedMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, m.togglePinned(msg.TaskID)

	case board.DeleteRequestMsg:
		return m, m.ask(confirm.Request{
			Title:       "Delete task?",
			Description: fmt.Sprintf("%q will be removed.", msg.Task.Text),
			Tag:         deleteTaskTag{id: msg.Task.ID},
		})

	case board.OpenTaskMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		m.detail.SetTask(msg.Task)
		m.currentView = ViewDetail
		return m, nil

	// Task detail

	case detail.BackMsg:
		m.currentView = ViewBoard
		return m, nil

	case detail.ActionMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		switch msg.Action {
		case detail.ActionComplete:
			return m, m.toggleCompleted(msg.Task.ID)
		case detail.ActionPin:
			return m, m.togglePinned(msg.Task.ID)
		case detail.ActionDelete:
			return m, m.ask(confirm.Request{
				Title:       "Delete task?",
				Description: fmt.Sprintf("%q will be removed.", msg.Task.Text),
				Tag:         deleteTaskTag{id: msg.Task.ID},
			})
		}
		return m, nil

	case board.RefreshMsg:
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		return m, loadCollection(m.tasks)

	// Confirmation dialog

	case confirm.ResultMsg:
		m.currentView = m.previousView
		if !msg.Confirmed {
			return m, nil
		}
		if cmd, ok := m.guard(); !ok {
			return m, cmd
		}
		switch tag := msg.Tag.(type) {
		case deleteChecklistTag:
			if m.lists != nil {
				return m, m.deleteChecklist(tag.id)
			}
		case deleteTaskTag:
			if m.tasks != nil {
				return m, m.deleteTask(tag.id)
			}
		}
		return m, nil

	// Command palette

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	// Settings

	case config.SavedMsg:
		m.currentView = m.previousView
		if err := m.svc.SaveSettings(msg.Config); err != nil {
			m.errMsg = apperror.UserMessage(err)
			return m, nil
		}
		if c, err := model.ParseColor(msg.Config.Display.DefaultColor); err == nil {
			m.board.SetDefaultColor(c)
		}
		m.notice = "Settings saved. A new service URL applies after restart."
		return m, nil

	case config.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case cacheClearedMsg:
		if msg.err != nil {
			m.errMsg = apperror.UserMessage(msg.err)
			return m, nil
		}
		m.notice = "Removed the copy saved on this device."
		return m, nil

	// Collection results

	case checklistEventMsg:
		if msg.gen != m.listsGen || m.lists == nil {
			return m, nil
		}
		cmd := m.checklists.SetItems(msg.event.Items)
		return m, tea.Batch(cmd, waitForChecklists(m.listsGen, m.listsSub))

	case taskEventMsg:
		if msg.gen != m.tasksGen || m.tasks == nil {
			return m, nil
		}
		cmd := m.board.SetItems(msg.event.Items)
		if !m.detail.Refresh(msg.event.Items) {
			if m.currentView == ViewDetail {
				m.currentView = ViewBoard
			}
			if m.previousView == ViewDetail {
				m.previousView = ViewBoard
			}
		}
		return m, tea.Batch(cmd, waitForTasks(m.tasksGen, m.tasksSub))

	case loadDoneMsg:
		return m.handleLoadDone(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case appsync.RefreshResultMsg:
		wait := m.refresher.WaitForNextResult()
		if msg.AuthExpired {
			return m, tea.Batch(wait, m.signOut(NoticeSessionExpired))
		}
		if msg.Error == nil && msg.Result.Source == appsync.SourceRemote {
			m.notice = "Back online."
		}
		return m, wait

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Forms and dialogs receive every key.
		if m.currentView == ViewLogin || m.currentView == ViewRegister ||
			m.currentView == ViewConfirm || m.currentView == ViewCommand ||
			m.currentView == ViewSettings || m.capturing() {
			return m.updateActiveView(msg)
		}

		m.notice = ""
		m.errMsg = ""

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			m.helpView.SetScreen(m.helpScreen())
			return m, nil

		case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
			m.currentView = m.previousView
			return m, nil

		case key.Matches(msg, m.keys.Command) && m.currentView.protected():
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.palette.Open()

		case key.Matches(msg, m.keys.Logout):
			if err := m.svc.Logout(); err != nil {
				m.errMsg = apperror.UserMessage(err)
				return m, nil
			}
			return m, m.signOut(NoticeSignedOut)
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin, ViewRegister:
		m.auth, cmd = m.auth.Update(msg)
	case ViewChecklists:
		m.checklists, cmd = m.checklists.Update(msg)
	case ViewBoard:
		m.board, cmd = m.board.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.palette, cmd = m.palette.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}

	return m, cmd
}

func (m Model) capturing() bool {
	switch m.currentView {
	case ViewChecklists:
		return m.checklists.Capturing()
	case ViewBoard:
		return m.board.Capturing()
	}
	return false
}

// guard checks the stored session before a protected action. Without one
// it tears down the collections and returns the command showing the login
// form.
func (m *Model) guard() (tea.Cmd, bool) {
	if m.svc.SignedIn() {
		return nil, true
	}
	m.logger.Info("session missing, redirecting to login")
	return m.signOut(NoticeSignInRequired), false
}

// enterChecklists shows the checklists screen, opening its collection on
// first entry.
func (m *Model) enterChecklists() tea.Cmd {
	if cmd, ok := m.guard(); !ok {
		return cmd
	}
	m.currentView = ViewChecklists

	if m.lists != nil {
		m.checklists.SetLoading(true)
		return loadCollection(m.lists)
	}

	m.lists = m.svc.Collections.Checklists()
	m.listsGen++
	m.listsSub = m.lists.Subscribe(8)
	m.refresher.Register(m.lists)
	m.checklists.SetLoading(true)
	return tea.Batch(
		waitForChecklists(m.listsGen, m.listsSub),
		loadCollection(m.lists),
	)
}

// openBoard shows the task board of c.
func (m *Model) openBoard(c model.Checklist) tea.Cmd {
	if cmd, ok := m.guard(); !ok {
		return cmd
	}
	m.closeBoard()

	m.tasks = m.svc.Collections.Tasks(c.ID)
	m.tasksGen++
	m.tasksSub = m.tasks.Subscribe(8)
	m.refresher.Register(m.tasks)
	m.currentView = ViewBoard

	return tea.Batch(
		m.board.Open(c),
		waitForTasks(m.tasksGen, m.tasksSub),
		loadCollection(m.tasks),
	)
}

func (m *Model) closeBoard() {
	if m.tasks == nil {
		return
	}
	m.refresher.Unregister(m.tasks.Key())
	m.tasks.Close()
	m.tasks = nil
	m.tasksSub = nil
}

// signOut drops the open collections and shows the login form with notice.
func (m *Model) signOut(notice string) tea.Cmd {
	m.closeBoard()
	if m.lists != nil {
		m.refresher.Unregister(m.lists.Key())
		m.lists.Close()
		m.lists = nil
		m.listsSub = nil
	}
	return m.showAuth(authform.ModeLogin, notice)
}

func (m *Model) showAuth(mode authform.Mode, notice string) tea.Cmd {
	m.auth = authform.New(mode, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.auth.SetNotice(notice)
	m.currentView = ViewLogin
	if mode == authform.ModeRegister {
		m.currentView = ViewRegister
	}
	return m.auth.Start()
}

func (m *Model) ask(req confirm.Request) tea.Cmd {
	if cmd, ok := m.guard(); !ok {
		return cmd
	}
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	return m.confirm.Ask(req)
}

func (m Model) handleLoadDone(msg loadDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.lists != nil && msg.key == m.lists.Key():
		m.checklists.SetLoading(false)
	case m.tasks != nil && msg.key == m.tasks.Key():
		m.board.SetLoading(false)
	default:
		return m, nil
	}

	if msg.err == nil {
		if msg.result.Source == appsync.SourceMirror {
			m.notice = "Showing the copy saved on this device."
		}
		return m, nil
	}
	if apperror.IsAuthExpired(msg.err) {
		return m, m.signOut(NoticeSessionExpired)
	}
	if errors.Is(msg.err, appsync.ErrClosed) {
		return m, nil
	}
	m.logger.Warn("load failed", zap.String("collection", msg.key), zap.Error(msg.err))
	m.errMsg = apperror.UserMessage(msg.err)
	return m, nil
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil || errors.Is(msg.err, appsync.ErrClosed) {
		m.notice = msg.notice
		return m, nil
	}
	if apperror.IsAuthExpired(msg.err) {
		return m, m.signOut(NoticeSessionExpired)
	}

	text := apperror.UserMessage(msg.err)
	if msg.op == opDelete && msg.state == appsync.Reverted && !apperror.IsValidation(msg.err) {
		text = "Could not delete, the item was restored: " + text
	}
	m.errMsg = text
	m.notice = msg.notice
	return m, nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	offline := !m.svc.Conn.Online()
	status := "online"
	if offline {
		status = "offline"
	}
	if m.currentView == ViewLogin || m.currentView == ViewRegister {
		status = "signed out"
	}

	return m.layout.Render(ui.Frame{
		Title:   m.headerTitle(),
		Status:  status,
		Offline: offline && m.currentView.protected(),
		Content: m.renderContent(),
		Hints:   m.statusLine(),
	})
}

func (m Model) helpScreen() helpview.Screen {
	if m.previousView == ViewBoard || m.previousView == ViewDetail {
		return helpview.ScreenBoard
	}
	return helpview.ScreenChecklists
}

func (m Model) headerTitle() string {
	if m.tasks != nil {
		return "Sticky Notes / " + m.board.Checklist().Title
	}
	return "Sticky Notes"
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin, ViewRegister:
		return m.auth.View()
	case ViewChecklists:
		return m.checklists.View()
	case ViewBoard:
		return m.board.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfirm:
		return m.confirm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.palette.View()
	case ViewSettings:
		return m.settings.View()
	default:
		return ""
	}
}

// statusLine returns the error, the notice or keyboard hints, in that
// order of priority.
func (m Model) statusLine() string {
	if m.errMsg != "" {
		return m.errMsg
	}
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewLogin, ViewRegister:
		return "enter submit | ctrl+r switch form | ctrl+c quit"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewSettings:
		return "tab next field | enter save | esc discard"
	case ViewBoard:
		return "esc back | enter open | n new | x done | p pin | d delete | / search | r reload"
	case ViewDetail:
		return "esc back | x done | p pin | d delete | j/k scroll"
	default:
		return "q quit | ? help | : command | enter open | n new | d delete | / search | r reload | L log out"
	}
}

// executeCommand runs a command chosen in the palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case command.Reload:
		if c, ok := m.guard(); !ok {
			return m, c
		}
		return m, m.reloadCurrent()
	case command.Logout:
		if err := m.svc.Logout(); err != nil {
			m.errMsg = apperror.UserMessage(err)
			return m, nil
		}
		return m, m.signOut(NoticeSignedOut)
	case command.Help:
		m.previousView = m.currentView
		m.currentView = ViewHelp
		m.helpView.SetScreen(m.helpScreen())
		return m, nil
	case command.ClearCache:
		return m, m.clearCache()
	case command.Settings:
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m, m.settings.Open(*m.svc.Config)
	case command.Quit:
		return m, tea.Quit
	default:
		return m, nil
	}
}

// reloadCurrent reloads the collection behind the active screen.
func (m *Model) reloadCurrent() tea.Cmd {
	if (m.currentView == ViewBoard || m.currentView == ViewDetail) && m.tasks != nil {
		m.board.SetLoading(true)
		return loadCollection(m.tasks)
	}
	if m.lists != nil {
		m.checklists.SetLoading(true)
		return loadCollection(m.lists)
	}
	return nil
}
