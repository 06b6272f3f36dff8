package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const scrollbackLimit = 200

type lineKind int

const (
	lineInput lineKind = iota
	lineResult
	lineError
)

type replLine struct {
	text string
	kind lineKind
}

// replModel holds one session for its whole lifetime so globals persist
// across inputs, REPL-style.
type replModel struct {
	sess  *session.Session
	input textinput.Model
	lines []replLine
	err   error
}

func newREPLModel(sess *session.Session) *replModel {
	input := textinput.New()
	input.Placeholder = "JavaScript expression"
	input.Prompt = promptStyle.Render("js> ")
	input.Focus()

	return &replModel{
		sess:  sess,
		input: input,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			source := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if source == "" {
				return m, nil
			}
			m.append(replLine{kind: lineInput, text: "js> " + source})

			result, err := m.sess.Evaluate(context.Background(), source)
			if err != nil {
				m.append(replLine{kind: lineError, text: err.Error()})
			} else {
				m.append(replLine{kind: lineResult, text: formatValue(result)})
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) append(line replLine) {
	m.lines = append(m.lines, line)
	if len(m.lines) > scrollbackLimit {
		m.lines = m.lines[len(m.lines)-scrollbackLimit:]
	}
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("jsrun"))
	b.WriteString("\n\n")

	for _, line := range m.lines {
		switch line.kind {
		case lineResult:
			b.WriteString(resultStyle.Render(line.text))
		case lineError:
			b.WriteString(errorStyle.Render(line.text))
		default:
			b.WriteString(line.text)
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter: evaluate • ctrl+c: quit"))
	b.WriteByte('\n')

	return b.String()
}

func runInteractive(logger *zap.Logger, memPages uint32) error {
	ctx := context.Background()

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithFilename("<repl>"),
	}
	if memPages > 0 {
		opts = append(opts, session.WithMemoryLimitPages(memPages))
	}

	sess, err := session.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer sess.Close(ctx)

	_, err = tea.NewProgram(newREPLModel(sess)).Run()
	return err
}
