package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

const (
	AppTitle        = "INQUEST"
	PlaceHolderText = "번호 또는 /명령어 입력 (/help)"
	commandTimeout  = 10 * time.Second
)

// entry is one block of transcript.
type entry struct {
	kind string // "input", "output", "error", "note"
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	backend      *backend
	members      []string
	play         *play
	transcript   []entry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	busy         bool

	// Category selection state
	showCategoryModal bool
	categories        []string
	selectedCategory  int
	loadingCategories bool

	// Quit confirmation state
	showQuitModal bool
}

type categoriesLoadedMsg struct {
	categories []string
	err        error
}

type sessionStartedMsg struct {
	play *play
	err  error
}

type commandResultMsg struct {
	input string
	out   string
	err   error
}

type statusMsg struct {
	status string
}

type notificationMsg struct {
	note storage.Notification
	ok   bool
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(b *backend, members []string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		backend:           b,
		members:           members,
		textarea:          ta,
		chatViewport:      chatVp,
		metaViewport:      metaVp,
		showCategoryModal: true,
		loadingCategories: true,
	}
}

// writeChatContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(AppTitle) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, e := range m.transcript {
		text := wordwrap.String(e.text, width)
		switch e.kind {
		case "input":
			content.WriteString(userStyle.Render(":: "+text) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render(text) + "\n\n")
		case "note":
			content.WriteString(noteStyle.Render(text) + "\n\n")
		default:
			content.WriteString(outputStyle.Render(text) + "\n\n")
		}
	}
	if m.busy {
		content.WriteString(loadingStyle.Render("…") + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 6
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.loadCategories(), m.waitForNotification())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Notifications arrive regardless of which screen is showing
	if note, ok := msg.(notificationMsg); ok {
		if !note.ok {
			return m, nil
		}
		m.transcript = append(m.transcript, entry{kind: "note", text: note.note.CharacterID + ": " + note.note.Message})
		if m.ready {
			m.writeChatContent()
		}
		return m, tea.Batch(m.waitForNotification(), m.refreshStatus())
	}

	// The quit modal only takes keys.
	if _, isKey := msg.(tea.KeyMsg); isKey && m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showCategoryModal {
		return m.updateCategoryModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.EqualFold(input, "/copy") {
				return m.copyTranscript(), nil
			}
			m.busy = true
			m.transcript = append(m.transcript, entry{kind: "input", text: input})
			m.writeChatContent()
			return m, m.runCommand(input)
		}

	case commandResultMsg:
		m.busy = false
		if msg.out != "" {
			m.transcript = append(m.transcript, entry{kind: "output", text: msg.out})
		}
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{kind: "error", text: friendly(msg.err)})
		}
		m.writeChatContent()
		return m, m.refreshStatus()

	case statusMsg:
		m.metaViewport.SetContent(msg.status)
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) copyTranscript() ConsoleUI {
	var sb strings.Builder
	for _, e := range m.transcript {
		if e.kind == "input" {
			sb.WriteString(":: ")
		}
		sb.WriteString(e.text + "\n\n")
	}
	if err := clipboard.WriteAll(sb.String()); err != nil {
		m.transcript = append(m.transcript, entry{kind: "error", text: "클립보드 복사 실패: " + err.Error()})
	} else {
		m.transcript = append(m.transcript, entry{kind: "note", text: "📋 기록을 클립보드에 복사했습니다."})
	}
	m.writeChatContent()
	return m
}

func (m ConsoleUI) runCommand(input string) tea.Cmd {
	p := m.play
	return func() tea.Msg {
		cmd, err := parseCommand(input)
		if err != nil {
			return commandResultMsg{input: input, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		out, err := p.exec(ctx, cmd)
		return commandResultMsg{input: input, out: out, err: err}
	}
}

func (m ConsoleUI) refreshStatus() tea.Cmd {
	p := m.play
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return statusMsg{status: writeMetadata(ctx, p)}
	}
}

func writeMetadata(ctx context.Context, p *play) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")
	content.WriteString(p.session.Category + "\n")
	content.WriteString(p.session.ID.String()[:8] + "...\n\n")
	content.WriteString("조작 중: " + p.active + "\n\n")
	content.WriteString(titleStyle.Render("PARTY") + "\n\n")
	content.WriteString(p.b.partyStatus(ctx, p.session.Members))
	content.WriteString("Commands:\n")
	content.WriteString("• /help\n")
	content.WriteString("• /copy\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func (m ConsoleUI) waitForNotification() tea.Cmd {
	notes := m.backend.notes
	if notes == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-notes
		return notificationMsg{note: n, ok: ok}
	}
}

func (m ConsoleUI) loadCategories() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		cats, err := b.content.Categories(context.Background())
		return categoriesLoadedMsg{cats, err}
	}
}

func (m ConsoleUI) startSession(category string) tea.Cmd {
	b, members := m.backend, m.members
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		p, err := newPlay(ctx, b, category, members)
		return sessionStartedMsg{p, err}
	}
}

func (m ConsoleUI) updateCategoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case categoriesLoadedMsg:
		m.loadingCategories = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.categories = msg.categories
		}

	case sessionStartedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.play = msg.play
		m.showCategoryModal = false
		if m.width > 0 && m.height > 0 {
			m.layout()
		}
		m.transcript = append(m.transcript, entry{kind: "output", text: renderScene(m.play.scene)})
		m.writeChatContent()
		m.textarea.Focus()
		m.ready = true
		return m, tea.Batch(textarea.Blink, m.refreshStatus())

	case tea.KeyMsg:
		if m.loadingCategories || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCategory > 0 {
				m.selectedCategory--
			}
		case tea.KeyDown:
			if m.selectedCategory < len(m.categories)-1 {
				m.selectedCategory++
			}
		case tea.KeyEnter:
			if len(m.categories) > 0 && !m.busy {
				m.busy = true
				return m, m.startSession(m.categories[m.selectedCategory])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showCategoryModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("조사를 종료하시겠습니까?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Y: 종료, N: 계속, Ctrl+C: 강제 종료"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCategoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingCategories:
		content.WriteString(modalTitleStyle.Render("Loading..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("%v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.busy:
		content.WriteString(modalTitleStyle.Render("조사를 준비하는 중..."))
	case len(m.categories) == 0:
		content.WriteString(modalTitleStyle.Render("조사 지역이 없습니다"))
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("CONTENT_DIR/categories 에 YAML 파일을 추가하세요"))
	default:
		content.WriteString(modalTitleStyle.Render("조사 지역 선택"))
		content.WriteString("\n\n")
		for i, c := range m.categories {
			if i == m.selectedCategory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", c)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", c)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render(fmt.Sprintf("파티: %s", strings.Join(m.members, ", "))))
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("↑/↓ 이동, Enter 선택, Ctrl+C 종료"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showCategoryModal {
		return m.renderCategoryModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
