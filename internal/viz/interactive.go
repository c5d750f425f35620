package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fibersag/internal/config"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	valueHi     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var presetInfo = map[string]string{
	"sag":        "1000 stiff segments",
	"demo":       "50 segments, settles fast",
	"taut":       "pre-stretched",
	"slack":      "long fiber, pre-sagged",
	"three-node": "undamped oscillator",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// fields are the parameters editable before a run.
var fields = []string{"k", "rest_length", "mass", "damping", "gravity", "subdivisions", "initial_sag"}

type model struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	err           error
	liveModel     Model
}

// NewInteractiveApp opens on the preset menu.
func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.fieldCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	name := fields[m.fieldCursor]
	cur, _ := m.cfg.Param(name)
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				_ = m.cfg.SetParam(name, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, strconv.FormatFloat(cur, 'g', -1, 64)
	case "left", "h":
		_ = m.cfg.SetParam(name, cur*0.9)
	case "right", "l":
		_ = m.cfg.SetParam(name, cur*1.1)
	case "s":
		return m.start()
	}
	return m, nil
}

// start builds the chain; a rejected configuration stays on the config
// screen with the error shown.
func (m model) start() (model, tea.Cmd) {
	cfg := m.cfg.Clone()
	cfg.Fiber.Dt = 0
	chain, err := cfg.NewChain()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.liveModel = NewModel(chain, cfg.RunConfig(), m.selected)
	m.state = stateSim
	return m, m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("FIBERSAG") + "\n    " + subStyle.Render("elastic fiber under gravity") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-12s", name)), valueHi.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", name)), subStyle.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subStyle.Render(presetInfo[m.selected]) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range fields {
		v, _ := m.cfg.Param(name)
		valStr := fmt.Sprintf("%10.4g", v)
		if m.editing && i == m.fieldCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-13s", name)), valueHi.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-13s", name)), subStyle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
