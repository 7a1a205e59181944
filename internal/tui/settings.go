package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/config"
	"github.com/GriffinCanCode/persona/internal/terminal"
)

type settingField struct {
	label string
	get   func(*config.Config) string
	set   func(*config.Config, string) error
}

var settingFields = []settingField{
	{
		label: "Agent command",
		get:   func(c *config.Config) string { return c.Agent.Command },
		set: func(c *config.Config, v string) error {
			if v == "" {
				return fmt.Errorf("agent command cannot be empty")
			}
			c.Agent.Command = v
			return nil
		},
	},
	{
		label: "Theme",
		get:   func(c *config.Config) string { return c.Terminal.Theme },
		set: func(c *config.Config, v string) error {
			t, ok := terminal.ThemeByName(v)
			if !ok {
				return fmt.Errorf("unknown theme %q (have %s)", v, strings.Join(terminal.ThemeNames(), ", "))
			}
			c.Terminal.Theme = t.Name
			return nil
		},
	},
	{
		label: "Initial columns",
		get:   func(c *config.Config) string { return strconv.Itoa(c.Terminal.InitialCols) },
		set: func(c *config.Config, v string) error {
			n, err := positive(v)
			if err != nil {
				return err
			}
			c.Terminal.InitialCols = n
			return nil
		},
	},
	{
		label: "Initial rows",
		get:   func(c *config.Config) string { return strconv.Itoa(c.Terminal.InitialRows) },
		set: func(c *config.Config, v string) error {
			n, err := positive(v)
			if err != nil {
				return err
			}
			c.Terminal.InitialRows = n
			return nil
		},
	},
	{
		label: "Berry server URL",
		get:   func(c *config.Config) string { return c.Berry.ServerURL },
		set: func(c *config.Config, v string) error {
			if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
				return fmt.Errorf("server URL must start with http:// or https://")
			}
			c.Berry.ServerURL = v
			return nil
		},
	},
	{
		label: "Personas directory",
		get:   func(c *config.Config) string { return c.Personas.Directory },
		set: func(c *config.Config, v string) error {
			c.Personas.Directory = v
			return nil
		},
	},
	{
		label: "Log level",
		get:   func(c *config.Config) string { return c.Logging.Level },
		set: func(c *config.Config, v string) error {
			switch strings.ToLower(v) {
			case "debug", "info", "warn", "error":
				c.Logging.Level = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("log level must be debug, info, warn or error")
		},
	},
}

func positive(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive number", v)
	}
	return n, nil
}

type settingsView struct {
	cursor  int
	editing bool
	input   textinput.Model
	err     string
}

func newSettingsView() settingsView {
	in := textinput.New()
	in.CharLimit = 512
	return settingsView{input: in}
}

func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	v := &m.settings

	if v.editing {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			v.editing = false
			v.input.Blur()
			v.err = ""
		case msg.Type == tea.KeyEnter:
			m.commitSetting()
		default:
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return cmd
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if v.cursor < len(settingFields)-1 {
			v.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		v.editing = true
		v.err = ""
		v.input.SetValue(settingFields[v.cursor].get(m.cfg))
		v.input.CursorEnd()
		return v.input.Focus()
	case key.Matches(msg, m.keys.Save):
		m.saveConfig()
	}
	return nil
}

func (m *Model) commitSetting() {
	v := &m.settings
	field := settingFields[v.cursor]
	if err := field.set(m.cfg, strings.TrimSpace(v.input.Value())); err != nil {
		v.err = err.Error()
		return
	}
	v.editing = false
	v.err = ""
	v.input.Blur()

	if field.label == "Theme" {
		m.theme, _ = terminal.ThemeByName(m.cfg.Terminal.Theme)
		m.styles = newStyles(m.theme)
	}
	m.setStatus("%s updated; press s to save", field.label)
}

func (m *Model) saveConfig() {
	if m.cfgPath == "" {
		m.setStatus("No config path; settings are not saved")
		return
	}
	if err := m.cfg.Save(m.cfgPath); err != nil {
		m.logger.Error("Failed to save config", zap.String("path", m.cfgPath), zap.Error(err))
		m.setStatus("Save failed: %v", err)
		return
	}
	m.logger.Info("Config saved", zap.String("path", m.cfgPath))
	m.setStatus("Saved %s", m.cfgPath)
}

func (m *Model) settingsBody() string {
	v := &m.settings
	st := m.styles
	var b strings.Builder

	b.WriteString(st.title.Render("Settings"))
	b.WriteString("\n")
	path := m.cfgPath
	if path == "" {
		path = "(not saved)"
	}
	b.WriteString(st.muted.Render("Config file: " + path))
	b.WriteString("\n\n")

	for i, f := range settingFields {
		value := f.get(m.cfg)
		if v.editing && i == v.cursor {
			value = v.input.View()
		}
		b.WriteString(m.row(i == v.cursor, fmt.Sprintf("%-20s %s", f.label, value)))
	}
	if v.err != "" {
		b.WriteString("\n")
		b.WriteString(st.errorText.Render(v.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.muted.Render("Effective configuration"))
	b.WriteString("\n")
	b.WriteString(st.muted.Render(m.cfg.String()))
	return b.String()
}
