// Package phases holds a set of keyed sub-models, showing and updating only
// the current one. The owner decides which phase is current through Set.
package phases

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type Phase struct {
	Name string
	mdl  tea.Model
}

func (p Phase) Init() tea.Cmd {
	return p.mdl.Init()
}

func (p Phase) Update(msg tea.Msg) (Phase, tea.Cmd) {
	updatedMdl, cmd := p.mdl.Update(msg)
	p.mdl = updatedMdl
	return p, cmd
}

func (p Phase) View() string {
	return p.mdl.View()
}

func NewPhase(name string, mdl tea.Model) Phase {
	return Phase{
		Name: name,
		mdl:  mdl,
	}
}

// Model holds one Phase per key.
type Model[K comparable] struct {
	phases map[K]Phase
	curr   K
}

// New creates a container starting at initial.
func New[K comparable](initial K, phases map[K]Phase) Model[K] {
	return Model[K]{
		phases: phases,
		curr:   initial,
	}
}

// Set installs mdl behind key and makes it current in one step, returning
// the new model's Init command. Unknown keys are added under their printed
// name.
func (m Model[K]) Set(key K, mdl tea.Model) (Model[K], tea.Cmd) {
	next := make(map[K]Phase, len(m.phases)+1)
	for k, p := range m.phases {
		next[k] = p
	}

	p, known := next[key]
	if !known {
		p.Name = fmt.Sprint(key)
	}
	p.mdl = mdl
	next[key] = p

	m.phases = next
	m.curr = key

	return m, p.Init()
}

func (m Model[K]) Init() tea.Cmd {
	return m.phases[m.curr].Init()
}

func (m Model[K]) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	ph, cmd := m.phases[m.curr].Update(teaMsg)
	m.phases[m.curr] = ph

	return m, cmd
}

func (m Model[K]) View() string {
	return m.phases[m.curr].View()
}

// Current returns the key of the current phase.
func (m Model[K]) Current() K {
	return m.curr
}

// CurrentPhaseName returns the name of the current phase.
func (m Model[K]) CurrentPhaseName() string {
	return m.phases[m.curr].Name
}
