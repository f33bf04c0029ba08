package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tab int

const (
	tabMeshes tab = iota
	tabCommands
	tabCache
	tabCount
)

var tabNames = [tabCount]string{"meshes", "commands", "cache"}

// captureMsg carries a finished capture back to the model.
type captureMsg struct {
	snap *snapshot
	err  error
}

type model struct {
	cfg    sceneConfig
	frames int

	width, height int
	tab           tab
	tbl           table.Model
	snap          *snapshot
	status        string
	err           error
}

func newModel(cfg sceneConfig, frames int) model {
	m := model{cfg: cfg, frames: frames, status: "capturing..."}
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(16)
	return m
}

func (m model) captureCmd() tea.Cmd {
	cfg, frames := m.cfg, m.frames
	return func() tea.Msg {
		snap, err := capture(context.Background(), cfg, frames)
		return captureMsg{snap: snap, err: err}
	}
}

func (m model) Init() tea.Cmd { return m.captureCmd() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.tbl.SetHeight(max(m.height-10, 4))
	case captureMsg:
		m.snap, m.err = msg.snap, msg.err
		if m.err != nil {
			m.status = "capture failed"
		} else {
			m.status = fmt.Sprintf("%d objects, %d meshes, %d draws", m.cfg.count, len(m.snap.meshes), m.snap.draws())
		}
		m.refreshTable()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % tabCount
			m.refreshTable()
			return m, nil
		case "shift+tab", "left", "h":
			m.tab = (m.tab + tabCount - 1) % tabCount
			m.refreshTable()
			return m, nil
		case "+", "=":
			m.cfg.count += 8
			m.status = "capturing..."
			return m, m.captureCmd()
		case "-", "_":
			m.cfg.count = max(m.cfg.count-8, 1)
			m.status = "capturing..."
			return m, m.captureCmd()
		case "r":
			m.status = "capturing..."
			return m, m.captureCmd()
		}
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// refreshTable loads the rows of the active tab.
func (m *model) refreshTable() {
	m.tbl.SetRows(nil)
	if m.snap == nil {
		m.tbl.SetColumns(nil)
		return
	}
	cols, rows := tableFor(m.snap, m.tab)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	m.tbl.GotoTop()
}

func tableFor(s *snapshot, t tab) ([]table.Column, []table.Row) {
	switch t {
	case tabMeshes:
		cols := []table.Column{{Title: "#", Width: 4}, {Title: "mesh", Width: 14}, {Title: "instances", Width: 10}, {Title: "stroke only", Width: 12}}
		rows := make([]table.Row, 0, len(s.meshes))
		for i, r := range s.meshes {
			rows = append(rows, table.Row{strconv.Itoa(i), r.label, strconv.Itoa(r.instances), strconv.FormatBool(r.strokeOnly)})
		}
		return cols, rows
	case tabCommands:
		cols := []table.Column{{Title: "#", Width: 5}, {Title: "op", Width: 16}, {Title: "id", Width: 6}, {Title: "detail", Width: 44}}
		rows := make([]table.Row, 0, len(s.commands))
		for i, c := range s.commands {
			detail := c.Label
			if len(c.Args) > 0 {
				detail = strings.TrimSpace(detail + " " + fmt.Sprint(c.Args))
			}
			rows = append(rows, table.Row{strconv.Itoa(i), c.Op.String(), strconv.FormatUint(c.ID, 10), detail})
		}
		return cols, rows
	}
	cols := []table.Column{{Title: "counter", Width: 14}, {Title: "value", Width: 40}}
	rows := []table.Row{
		{"programs", strconv.Itoa(s.cache.Programs)},
		{"pipelines", strconv.Itoa(s.cache.Pipelines)},
		{"samplers", strconv.Itoa(s.cache.Samplers)},
		{"bindings", strconv.Itoa(s.cache.Bindings)},
		{"hits", strconv.FormatUint(s.cache.Hits, 10)},
		{"misses", strconv.FormatUint(s.cache.Misses, 10)},
		{"hit rate", fmt.Sprintf("%.1f%%", s.cache.HitRate()*100)},
		{"writes", strconv.Itoa(len(s.writes))},
		{"frames", strconv.FormatUint(s.frames, 10)},
		{"plan", s.plan},
		{"bounds", s.bounds},
	}
	return cols, rows
}

func (m model) View() string {
	var tabs []string
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs = append(tabs, activeTab.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("gscene-inspect"), "  ", lipgloss.JoinHorizontal(lipgloss.Top, tabs...))

	var body string
	switch {
	case m.err != nil:
		body = errStyle.Render(m.err.Error())
	case m.snap == nil:
		body = dimStyle.Render("rendering demo scene...")
	default:
		body = m.tbl.View()
	}
	lines := []string{header, boxStyle.Render(body), dimStyle.Render(m.status)}
	if m.snap != nil && m.snap.excluded != nil {
		lines = append(lines, errStyle.Render("excluded: "+m.snap.excluded.Error()))
	}
	lines = append(lines, dimStyle.Render("tab/←/→ switch • ↑/↓ scroll • +/- objects • r re-render • q quit"))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
