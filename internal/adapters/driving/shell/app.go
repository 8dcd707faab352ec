package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/components/input"
	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/components/status"
	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/keymap"
	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/messages"
	"github.com/custodia-labs/specimen/internal/adapters/driving/shell/styles"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

// shortHash is how many sha256 characters the prompt shows.
const shortHash = 12

// App is the shell model following the Elm architecture.
// Each entered line is one command chain; the project and the open sample
// carry over from one chain to the next.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input  *input.CommandInput
	status *status.Bar
	output viewport.Model

	// lines is the rendered output history.
	lines []string

	// history holds entered chains; histPos indexes it while browsing.
	history []string
	histPos int

	project string
	sample  string
	running bool

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a shell starting in project.
func NewApp(ports *Ports, project string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating shell: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		input:   input.NewCommandInput(s),
		status:  status.NewBar(s, km),
		output:  viewport.New(80, 20),
		project: project,
	}
	a.input.SetContext(a.project, "")
	return a, nil
}

// WithContext sets the context chains are dispatched with.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("specimen"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ChainCompleted:
		a.complete(msg)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Clear):
		a.lines = nil
		a.refreshOutput()
		return a, nil

	case key.Matches(msg, a.keymap.Previous):
		a.browse(-1)
		return a, nil

	case key.Matches(msg, a.keymap.Next):
		a.browse(1)
		return a, nil

	case key.Matches(msg, a.keymap.PageUp), key.Matches(msg, a.keymap.PageDown):
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return a, cmd

	case key.Matches(msg, a.keymap.Run):
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit dispatches the typed chain.
func (a *App) submit() tea.Cmd {
	line := strings.TrimSpace(a.input.Value())
	a.input.Reset()
	if line == "" || a.running {
		return nil
	}
	if line == "exit" || line == "quit" {
		return tea.Quit
	}

	a.history = append(a.history, line)
	a.histPos = len(a.history)
	a.appendLines(a.styles.Echo.Render(a.input.Prompt() + line))

	a.running = true
	a.status.SetState(status.StateRunning)

	req := domain.ChainRequest{Project: a.project, SHA256: a.sample, Command: line}
	ctx, dispatcher := a.ctx, a.ports.Dispatcher
	return func() tea.Msg {
		res, err := dispatcher.Dispatch(ctx, req)
		return messages.ChainCompleted{Request: req, Result: res, Err: err}
	}
}

// complete renders a finished chain and carries its context forward.
func (a *App) complete(msg messages.ChainCompleted) {
	a.running = false
	if msg.Err != nil {
		a.appendLines(render.Entry(domain.ErrorEntry(msg.Err.Error()), a.styles.Output()))
		a.status.SetState(status.StateError)
		a.status.SetMessage(msg.Err.Error())
		return
	}

	res := msg.Result
	for _, r := range res.Results {
		if len(r.Entries) > 0 {
			a.appendLines(render.Entries(r.Entries, a.styles.Output()))
		}
	}
	a.project = res.Project
	a.sample = res.Sample
	a.input.SetContext(a.project, abbreviate(a.sample))
	a.status.SetOutcome(len(res.Results), res.Failures())
}

func (a *App) browse(step int) {
	if len(a.history) == 0 {
		return
	}
	a.histPos += step
	switch {
	case a.histPos < 0:
		a.histPos = 0
	case a.histPos >= len(a.history):
		a.histPos = len(a.history)
		a.input.SetValue("")
		return
	}
	a.input.SetValue(a.history[a.histPos])
}

func (a *App) appendLines(text string) {
	a.lines = append(a.lines, text)
	a.refreshOutput()
}

func (a *App) refreshOutput() {
	a.output.SetContent(strings.Join(a.lines, "\n"))
	a.output.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Starting specimen shell..."
	}
	return a.output.View() + "\n" + a.input.View() + "\n" + a.status.View()
}

// SetDimensions resizes every component.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	outputHeight := height - 2
	if outputHeight < 1 {
		outputHeight = 1
	}
	a.output.Width = width
	a.output.Height = outputHeight
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refreshOutput()
}

// Project returns the project the next chain will run in.
func (a *App) Project() string {
	return a.project
}

// Sample returns the sha256 the next chain will open, if any.
func (a *App) Sample() string {
	return a.sample
}

// Output returns the rendered output history.
func (a *App) Output() []string {
	return a.lines
}

// Running reports whether a chain is in flight.
func (a *App) Running() bool {
	return a.running
}

func abbreviate(sha string) string {
	if len(sha) > shortHash {
		return sha[:shortHash]
	}
	return sha
}
