// Package tui renders the login screen with Bubble Tea. The model owns no
// form state of its own: keystrokes become controller.UpdateField calls,
// enter on the password field becomes Submit, terminal resizes are published
// to the viewport broadcaster and every controller change is fed back into the
// program as a message.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/view"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// snapshotMsg carries a controller change into the program.
type snapshotMsg controller.Snapshot

// Option configures a Model.
type Option func(*Model)

// WithStyles overrides DefaultStyles.
func WithStyles(styles Styles) Option {
	return func(m *Model) {
		m.styles = styles
	}
}

// WithCellHeight sets the pixel height of one terminal row used to convert
// resizes into viewport events.
func WithCellHeight(px int) Option {
	return func(m *Model) {
		if px > 0 {
			m.cellHeight = px
		}
	}
}

// WithLogo overrides the decorative image shown in portrait mode.
func WithLogo(logo string) Option {
	return func(m *Model) {
		m.logo = logo
	}
}

// WithLogger sets the model logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithContext sets the context passed to Submit.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// Model is the Bubble Tea model of the login screen.
type Model struct {
	ctrl       *controller.Controller
	screen     *viewport.Broadcaster
	ctx        context.Context
	logger     *zap.Logger
	styles     Styles
	cellHeight int
	logo       string

	inputs   [2]textinput.Model
	focus    int
	spinner  spinner.Model
	spinning bool
	snapshot controller.Snapshot
	changes  chan controller.Snapshot
	remove   func()
	notice   string
}

// New builds the model. screen receives the terminal size on every resize.
func New(ctrl *controller.Controller, screen *viewport.Broadcaster, options ...Option) Model {
	m := Model{
		ctrl:       ctrl,
		screen:     screen,
		ctx:        context.Background(),
		logger:     zap.NewNop(),
		styles:     DefaultStyles(),
		cellHeight: viewport.DefaultCellHeight,
		logo:       view.DefaultLogo,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		changes:    make(chan controller.Snapshot, 1),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&m)
	}
	m.spinner.Style = m.styles.Spinner

	email := textinput.New()
	email.Placeholder = "E-mail"
	email.CharLimit = 254
	email.Prompt = ""
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m.inputs = [2]textinput.Model{email, password}
	changes := m.changes
	m.remove = ctrl.OnChange(func(s controller.Snapshot) {
		offer(changes, s)
	})
	m.snapshot = ctrl.Snapshot()
	return m
}

// offer delivers s, replacing a pending snapshot nobody consumed yet.
func offer(ch chan controller.Snapshot, s controller.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func waitForSnapshot(ch <-chan controller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

// Init starts the cursor blink and the snapshot pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForSnapshot(m.changes))
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.screen != nil {
			m.screen.Publish(viewport.FromCells(msg.Width, msg.Height, m.cellHeight))
		}
		m.snapshot = m.ctrl.Snapshot()
		return m, nil

	case snapshotMsg:
		m.snapshot = controller.Snapshot(msg)
		cmds := []tea.Cmd{waitForSnapshot(m.changes)}
		if cmd := m.syncSpinner(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.ctrl.Deactivate()
		return m, tea.Quit
	case "esc":
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
		m.focus = -1
		return m, nil
	case "tab", "down":
		return m, m.setFocus(m.focus + 1)
	case "shift+tab", "up":
		return m, m.setFocus(m.focus - 1)
	case "enter":
		if m.focus == 0 {
			return m, m.setFocus(1)
		}
		return m.submit()
	}
	return m.updateFocused(msg)
}

func (m *Model) setFocus(idx int) tea.Cmd {
	n := len(m.inputs)
	idx = ((idx % n) + n) % n
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
	return cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	err := m.ctrl.Submit(m.ctx)
	switch {
	case err == nil:
		m.notice = ""
	case errors.Is(err, controller.ErrNotSubmittable), errors.Is(err, controller.ErrSubmitInFlight):
		// Disabled control: nothing happens.
		return m, nil
	default:
		m.logger.Warn("submit failed", zap.Error(err))
		m.notice = "Unable to start login."
	}
	m.snapshot = m.ctrl.Snapshot()
	return m, m.syncSpinner()
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		name := form.Fields()[m.focus]
		if err := m.ctrl.UpdateField(name, after); err != nil {
			m.logger.Warn("update field", zap.String("field", string(name)), zap.Error(err))
		}
		m.snapshot = m.ctrl.Snapshot()
	}
	return m, cmd
}

func (m *Model) syncSpinner() tea.Cmd {
	loading := m.snapshot.Loading()
	if loading && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	if !loading {
		m.spinning = false
	}
	return nil
}

// Close detaches the model from the controller.
func (m Model) Close() {
	if m.remove != nil {
		m.remove()
	}
}

// View draws the screen.
func (m Model) View() string {
	screen := view.FromSnapshot(m.snapshot)
	var b strings.Builder

	if screen.ShowImage && m.logo != "" {
		b.WriteString(m.styles.Logo.Render(m.logo))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.Title.Render(screen.Title))
	b.WriteString("\n\n")

	for i, field := range screen.Fields {
		b.WriteString(m.styles.Label.Render(field.Label))
		b.WriteString(m.inputs[i].View())
		if field.ShowInvalid {
			b.WriteString(" ")
			b.WriteString(m.styles.Invalid.Render("✗"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if screen.ShowError {
		b.WriteString(m.styles.Error.Render(screen.Error))
		b.WriteString("\n\n")
	}

	if screen.ShowSpinner {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(screen.LoadingText)
	} else if screen.SubmitEnabled {
		b.WriteString(m.styles.Button.Render(screen.SubmitLabel))
	} else {
		b.WriteString(m.styles.ButtonDisabled.Render(screen.SubmitLabel))
	}
	b.WriteString("\n")

	if sess := m.snapshot.Auth.Session; sess != nil && !screen.ShowSpinner {
		b.WriteString("\n")
		b.WriteString(m.styles.Success.Render("Signed in as " + sess.Email))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("tab: next field • enter: login • esc: dismiss keyboard • ctrl+c: quit"))
	return b.String()
}

// Run activates the controller, runs the program until it exits and releases
// every subscription on the way out.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	if err := m.ctrl.Activate(ctx); err != nil {
		return err
	}
	defer m.ctrl.Deactivate()
	defer m.Close()

	m.snapshot = m.ctrl.Snapshot()
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
