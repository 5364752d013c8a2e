package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/orchestrator"
	"github.com/higress-group/docqa-bot/schema"
)

// Asker answers a question for a session.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string, sink delivery.Sink) (orchestrator.Outcome, error)
}

const sessionID = "console"

// Model is the Bubble Tea model of the interactive console.
type Model struct {
	ctx      context.Context
	asker    Asker
	pagesDir string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []string
	busy       bool
	ready      bool
	status     string
}

// New creates the console model. Evidence pages are written to pagesDir when it is set.
func New(ctx context.Context, asker Asker, pagesDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		asker:    asker,
		pagesDir: pagesDir,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready.",
	}
}

// answerMsg carries everything the pipeline delivered for one question.
type answerMsg struct {
	entries []string
	outcome orchestrator.Outcome
	err     error
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + th + 1 // header, status, query box, frames, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			m.status = "Thinking..."
			m.transcript = append(m.transcript, questionStyle.Render("> "+q))
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		}
	case answerMsg:
		m.busy = false
		m.transcript = append(m.transcript, msg.entries...)
		m.status = "Last question: " + msg.outcome.String()
		if msg.err != nil {
			m.status += " (" + msg.err.Error() + ")"
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + transcriptBoxStyle.Render(m.viewport.View()) + "\n" + queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		sink := &transcriptSink{pagesDir: m.pagesDir}
		outcome, err := m.asker.Ask(m.ctx, sessionID, question, sink)
		return answerMsg{entries: sink.Entries(), outcome: outcome, err: err}
	}
}

// transcriptSink renders pipeline output as transcript entries.
type transcriptSink struct {
	pagesDir string

	mu      sync.Mutex
	entries []string
}

func (s *transcriptSink) add(entry string) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

func (s *transcriptSink) SendText(ctx context.Context, text string) error {
	s.add(text)
	return nil
}

func (s *transcriptSink) SendImage(ctx context.Context, img schema.PageImage, caption string) error {
	entry := fmt.Sprintf("[%s, %d KB]", caption, (len(img.Data)+1023)/1024)
	if s.pagesDir != "" {
		path := filepath.Join(s.pagesDir, "page_"+img.Page+".jpg")
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return err
		}
		entry = fmt.Sprintf("[%s: %s]", caption, path)
	}
	s.add(pageStyle.Render(entry))
	return nil
}

// SendProgress is shown by the spinner instead.
func (s *transcriptSink) SendProgress(ctx context.Context) error { return nil }

func (s *transcriptSink) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// Run starts the interactive console and blocks until the user quits.
func Run(ctx context.Context, asker Asker, pagesDir string) error {
	_, err := tea.NewProgram(New(ctx, asker, pagesDir), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	pageStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
