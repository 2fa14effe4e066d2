package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type selectModel struct {
	title    string
	options  []string
	cursor   int
	chosen   bool
	quitting bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = true
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.quitting {
		return ""
	}

	out := titleStyle.Render(m.title) + "\n\n"
	for i, opt := range m.options {
		if i == m.cursor {
			out += cursorStyle.Render("❯ ") + selectedStyle.Render(opt) + "\n"
		} else {
			out += "  " + opt + "\n"
		}
	}
	out += "\n(↑/↓ to move, enter to select, q to cancel)\n"
	return out
}

// Select shows an interactive picker and returns the chosen option.
func Select(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select")
	}

	m := selectModel{title: title, options: options}
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	fm, ok := finalModel.(selectModel)
	if !ok || !fm.chosen {
		return "", fmt.Errorf("cancelled")
	}
	return fm.options[fm.cursor], nil
}
