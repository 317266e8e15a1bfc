package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// TUIModel is the Bubble Tea model for the game client. All game state it
// shows arrives over the network; the model itself only renders and collects
// input.
type TUIModel struct {
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog      []string
	actionResult chan ActionResult
	quitSignal   chan bool
	quitting     bool
	focusedPane  int // 0 = log, 1 = input

	// Display state, all event-driven
	group   string
	phase   string
	round   int
	role    string
	players []PlayerInfo
	menu    *NightMenu

	// Dimensions
	width       int
	height      int
	initialized bool // Track if viewport has been properly sized

	// Test mode
	testMode        bool
	capturedLog     []string             // For test assertions
	messageCallback func(msgType string) // Callback for test event synchronization
}

// ActionResult represents the result of a user action
type ActionResult struct {
	Action   string
	Args     []string
	Continue bool
	Error    error
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// PlayerInfo holds player information for the sidebar
type PlayerInfo struct {
	Name  string
	Alive bool
}

// Target is one entry of a night menu
type Target struct {
	ID   string
	Name string
}

// NightMenu holds the pending night choice for the player's role
type NightMenu struct {
	Role    string
	Targets []Target
}

// NewTUIModel creates a new TUI model
func NewTUIModel(logger *log.Logger) *TUIModel {
	return NewTUIModelWithOptions(logger, false)
}

// NewTUIModelWithOptions creates a new TUI model with test mode option
func NewTUIModelWithOptions(logger *log.Logger, testMode bool) *TUIModel {
	// Create viewport for game log with minimal initial size
	// Will be properly sized when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	// Create textinput for commands
	ti := textinput.New()
	ti.Placeholder = "Type /help for commands"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		logger:       logger.WithPrefix("tui"),
		logViewport:  vp,
		actionInput:  ti,
		gameLog:      []string{},
		actionResult: make(chan ActionResult, 1),
		quitSignal:   make(chan bool, 1),
		phase:        "lobby",
		focusedPane:  1, // Start with input focused
		testMode:     testMode,
		capturedLog:  []string{},
	}
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForQuit())
}

// listenForQuit returns a command that listens for quit signals
func (m *TUIModel) listenForQuit() tea.Cmd {
	return func() tea.Msg {
		<-m.quitSignal
		return QuitMsg{}
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.actionResult <- ActionResult{Action: "/quit", Continue: false}
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			// Switch focus between log and input
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				action := strings.TrimSpace(m.actionInput.Value())
				if action != "" {
					m.processAction(action)
				}
				m.actionInput.SetValue("")
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	// Update components
	var cmd tea.Cmd

	// Only update input if it's focused
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Always update viewport (for scrolling)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	calculatedActionWidth := m.width - 2       // Full width minus border
	calculatedActionHeight := actionHeight - 2 // Content height minus border

	if calculatedActionWidth < 1 {
		calculatedActionWidth = 1
	}
	if calculatedActionHeight < 1 {
		calculatedActionHeight = 1
	}

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(calculatedActionWidth).
		Height(calculatedActionHeight)
	actionPane := actionStyle.Render(actionContent)

	// Sidebar pane (right side of log pane, same height as log pane)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := lipgloss.Width(sidebarContent)

	calculatedSidebarWidth := 25
	if sidebarWidth > calculatedSidebarWidth {
		calculatedSidebarWidth = sidebarWidth
	}

	calculatedSidebarHeight := m.height - actionHeight - 4

	if calculatedSidebarWidth < 1 {
		calculatedSidebarWidth = 1
	}
	if calculatedSidebarHeight < 1 {
		calculatedSidebarHeight = 1
	}

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedSidebarWidth).
		Height(calculatedSidebarHeight)

	sidebarPane := sidebarStyle.Render(sidebarContent)

	// Log pane (top, fills height minus action pane)
	logContent := m.renderLogPane()
	m.logViewport.SetContent(logContent)

	calculatedLogWidth := m.width - calculatedSidebarWidth - 4
	calculatedLogHeight := m.height - actionHeight - 4

	if calculatedLogWidth < 1 {
		calculatedLogWidth = 1
	}
	if calculatedLogHeight < 1 {
		calculatedLogHeight = 1
	}

	m.logViewport.Width = calculatedLogWidth
	m.logViewport.Height = calculatedLogHeight

	// On first proper sizing, reset to top to avoid starting scrolled down
	if !m.initialized && calculatedLogWidth > 1 && calculatedLogHeight > 1 {
		m.logViewport.GotoTop()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedLogWidth).
		Height(calculatedLogHeight)

	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	// Top row (log pane + sidebar pane)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)

	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderLogPane renders the game log pane content
func (m *TUIModel) renderLogPane() string {
	return strings.Join(m.gameLog, "\n")
}

// renderSidebarPane creates the sidebar content
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder

	if m.group == "" {
		content.WriteString(InfoStyle.Render("No group yet"))
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("/new or /join <group>"))
		content.WriteString("\n")
		return content.String()
	}

	content.WriteString(HeaderStyle.Render(" " + m.group + " "))
	content.WriteString("\n\n")

	content.WriteString(PhaseStyle.Render(m.renderPhase()))
	content.WriteString("\n")

	if m.role != "" {
		content.WriteString(RoleStyle.Render("You are the " + m.role))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	if len(m.players) > 0 {
		content.WriteString(InfoStyle.Render("Players:"))
		content.WriteString("\n")
		for _, player := range m.players {
			if player.Alive {
				content.WriteString(fmt.Sprintf("  %s\n", player.Name))
			} else {
				content.WriteString(DeadStyle.Render(fmt.Sprintf("  %s (dead)", player.Name)))
				content.WriteString("\n")
			}
		}
	}

	return content.String()
}

func (m *TUIModel) renderPhase() string {
	switch m.phase {
	case "night", "day":
		return fmt.Sprintf("%s %d", strings.ToUpper(m.phase[:1])+m.phase[1:], m.round)
	case "dusk":
		return fmt.Sprintf("Dusk %d", m.round)
	default:
		return "Lobby"
	}
}

// renderActionPane renders the command input pane
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder

	if m.menu != nil {
		var targets []string
		for _, target := range m.menu.Targets {
			targets = append(targets, WarningStyle.Render("["+target.Name+"]"))
		}
		content.WriteString(ActionsStyle.Render("Pick a target: " + strings.Join(targets, " ")))
		content.WriteString("\n")
		m.actionInput.Placeholder = "/pick <name> to choose your target"
	} else {
		switch m.phase {
		case "day":
			m.actionInput.Placeholder = "/vote <name> to accuse someone"
		case "dusk":
			m.actionInput.Placeholder = "/night to send the group back to sleep"
		default:
			m.actionInput.Placeholder = "Type /help for commands"
		}
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	// Show help text
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render(
			"Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render(
			"Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}

	return content.String()
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	// In test mode, also capture the log entry
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return // Skip UI updates in test mode
	}

	// Update content and auto-scroll to bottom
	content := strings.Join(m.gameLog, "\n")
	m.logViewport.SetContent(content)

	// Only call GotoBottom if viewport has valid dimensions
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// AddBoldLogEntry adds a highlighted entry to the game log
func (m *TUIModel) AddBoldLogEntry(entry string) {
	boldEntry := fmt.Sprintf("\033[1m%s\033[0m", entry)

	// In test mode, capture without ANSI codes
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		m.gameLog = append(m.gameLog, boldEntry)
		return // Skip UI updates in test mode
	}

	m.gameLog = append(m.gameLog, boldEntry)
	content := strings.Join(m.gameLog, "\n")
	m.logViewport.SetContent(content)

	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// ClearLog clears the game log
func (m *TUIModel) ClearLog() {
	m.gameLog = []string{}
	m.logViewport.SetContent("")
}

// SetGroup sets the group shown in the sidebar
func (m *TUIModel) SetGroup(group string) {
	m.group = group
}

// SetPhase updates the phase shown in the sidebar
func (m *TUIModel) SetPhase(phase string, round int) {
	m.phase = phase
	m.round = round
}

// SetRole records the role dealt to this player
func (m *TUIModel) SetRole(role string) {
	m.role = role
}

// SetPlayers replaces the sidebar player list
func (m *TUIModel) SetPlayers(players []PlayerInfo) {
	m.players = players
}

// AddPlayer appends a player to the sidebar if not already listed
func (m *TUIModel) AddPlayer(name string) {
	for _, player := range m.players {
		if player.Name == name {
			return
		}
	}
	m.players = append(m.players, PlayerInfo{Name: name, Alive: true})
}

// MarkDead flags a player as dead in the sidebar
func (m *TUIModel) MarkDead(name string) {
	for i := range m.players {
		if m.players[i].Name == name {
			m.players[i].Alive = false
		}
	}
}

// SyncAlive reconciles the sidebar against the authoritative list of living
// players. Unlisted players are marked dead; unknown names are added, which
// fills in the roster after a reconnect.
func (m *TUIModel) SyncAlive(alive []string) {
	living := make(map[string]bool, len(alive))
	for _, name := range alive {
		living[name] = true
	}

	for i := range m.players {
		m.players[i].Alive = living[m.players[i].Name]
		delete(living, m.players[i].Name)
	}
	for _, name := range alive {
		if living[name] {
			m.players = append(m.players, PlayerInfo{Name: name, Alive: true})
		}
	}
}

// ResetGame clears per-game state once a game ends
func (m *TUIModel) ResetGame() {
	m.phase = "lobby"
	m.round = 0
	m.role = ""
	m.menu = nil
	m.players = nil
}

// SetNightMenu shows a pending night choice. A nil menu clears it.
func (m *TUIModel) SetNightMenu(menu *NightMenu) {
	m.menu = menu
}

// MenuRole returns the role of the pending night menu, if any
func (m *TUIModel) MenuRole() (string, bool) {
	if m.menu == nil {
		return "", false
	}
	return m.menu.Role, true
}

// FindTarget resolves a name against the pending night menu
func (m *TUIModel) FindTarget(name string) (Target, bool) {
	if m.menu == nil {
		return Target{}, false
	}
	for _, target := range m.menu.Targets {
		if strings.EqualFold(target.Name, name) {
			return target, true
		}
	}
	return Target{}, false
}

// processAction processes a user action
func (m *TUIModel) processAction(input string) {
	parts := strings.Fields(strings.ToLower(input))

	if len(parts) == 0 {
		return
	}

	// Send action result through channel
	m.actionResult <- ActionResult{
		Action:   parts[0],
		Args:     parts[1:],
		Continue: true, // Let the command handler decide whether to continue
	}
}

// WaitForAction waits for user input (for use by the command loop)
func (m *TUIModel) WaitForAction() (string, []string, bool, error) {
	result := <-m.actionResult
	return result.Action, result.Args, result.Continue, result.Error
}

// SendQuitSignal signals the TUI to quit gracefully
func (m *TUIModel) SendQuitSignal() {
	select {
	case m.quitSignal <- true:
	default:
		// Channel is full, quit signal already sent
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	// Return a copy to prevent modification
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// InjectAction programmatically injects an action (test mode only)
func (m *TUIModel) InjectAction(action string, args []string) error {
	if !m.testMode {
		return fmt.Errorf("action injection only available in test mode")
	}

	select {
	case m.actionResult <- ActionResult{
		Action:   action,
		Args:     args,
		Continue: true,
	}:
		return nil
	default:
		return fmt.Errorf("action channel full")
	}
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}

// SetMessageCallback sets a callback function for test event synchronization
func (m *TUIModel) SetMessageCallback(callback func(msgType string)) {
	if m.testMode {
		m.messageCallback = callback
	}
}

// notifyMessageCallback calls the message callback if in test mode
func (m *TUIModel) notifyMessageCallback(msgType string) {
	if m.testMode && m.messageCallback != nil {
		m.messageCallback(msgType)
	}
}
