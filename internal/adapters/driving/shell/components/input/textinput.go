// Package input provides the command line input of the shell.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/styles"
)

// CommandInput wraps a bubbles textinput with a viper-style prompt
// showing the active project and open sample.
type CommandInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	project   string
	sample    string
	width     int
}

// NewCommandInput creates a focused command input.
func NewCommandInput(s *styles.Styles) *CommandInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "help"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	c := &CommandInput{
		textinput: ti,
		styles:    s,
		width:     80,
	}
	c.refreshPrompt()
	return c
}

// Init starts the cursor blinking.
func (c *CommandInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *CommandInput) Update(msg tea.Msg) (*CommandInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the prompt and input.
func (c *CommandInput) View() string {
	return c.textinput.View()
}

// SetContext updates the project and sample shown in the prompt.
func (c *CommandInput) SetContext(project, sample string) {
	c.project = project
	c.sample = sample
	c.refreshPrompt()
}

// Prompt returns the unstyled prompt text.
func (c *CommandInput) Prompt() string {
	return promptText(c.project, c.sample)
}

func (c *CommandInput) refreshPrompt() {
	label := c.styles.Prompt.Render("specimen")
	if c.project != "" {
		label += c.styles.Project.Render(" " + c.project)
	}
	if c.sample != "" {
		label += " " + c.styles.Session.Render(c.sample)
	}
	c.textinput.Prompt = label + " > "
}

// promptText mirrors refreshPrompt without styling.
func promptText(project, sample string) string {
	p := "specimen"
	if project != "" {
		p += " " + project
	}
	if sample != "" {
		p += " " + sample
	}
	return p + " > "
}

// Value returns the current input value.
func (c *CommandInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value and moves the cursor to the end.
func (c *CommandInput) SetValue(value string) {
	c.textinput.SetValue(value)
	c.textinput.CursorEnd()
}

// Focus sets focus on the input.
func (c *CommandInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *CommandInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *CommandInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *CommandInput) SetWidth(width int) {
	c.width = width
	inputWidth := width - len(c.Prompt()) - 2
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *CommandInput) Width() int {
	return c.width
}

// Reset clears the input.
func (c *CommandInput) Reset() {
	c.textinput.Reset()
}
