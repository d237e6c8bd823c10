// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/pkg/types"
)

func feed(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func TestModel_TracksPhases(t *testing.T) {
	m, _ := feed(t, NewModel("Quantum Computing", nil),
		EventMsg{Phase: types.PhaseResearch},
		EventMsg{Phase: types.PhasePlanning},
		EventMsg{Phase: types.PhaseWriting},
		EventMsg{Phase: types.PhaseWriting, Section: "Introduction", Current: 1, Total: 4, Elapsed: 3 * time.Second},
	)

	assert.Equal(t, types.PhaseWriting, m.phase)
	assert.Equal(t, []types.Phase{types.PhaseResearch, types.PhasePlanning, types.PhaseWriting}, m.seen)
	assert.Equal(t, 1, m.current)
	assert.Equal(t, 4, m.total)

	view := m.View()
	assert.Contains(t, view, "Writing: Quantum Computing")
	assert.Contains(t, view, "1/4 Introduction")
	assert.Contains(t, view, "· reviewing")
	assert.Contains(t, view, "elapsed 3s")
}

func TestModel_Done(t *testing.T) {
	res := pipeline.Result{
		Phase:    types.PhaseComplete,
		Metadata: types.Metadata{Title: "Qubits", WordCount: 900, SectionCount: 6},
		Saved:    types.SaveResult{ContentPath: "articles/article_qubits.md"},
	}
	m, cmd := feed(t, NewModel("Qubits", nil), EventMsg{Phase: types.PhaseComplete}, DoneMsg{Result: res})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	view := m.View()
	assert.Contains(t, view, "900 words, 6 sections")
	assert.Contains(t, view, "articles/article_qubits.md")
}

func TestModel_Failed(t *testing.T) {
	m, _ := feed(t, NewModel("Qubits", nil),
		EventMsg{Phase: types.PhaseResearch},
		EventMsg{Phase: types.PhasePlanning},
		EventMsg{Phase: types.PhaseFailed, Err: "bad outline"},
		DoneMsg{Err: errors.New("pipeline failed during planning: bad outline")},
	)
	view := m.View()
	assert.Contains(t, view, "✗ planning")
	assert.Contains(t, view, "failed: pipeline failed during planning")
}

func TestModel_InterruptCancels(t *testing.T) {
	cancelled := false
	m := NewModel("Qubits", func() { cancelled = true })
	_, cmd := feed(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
	assert.Nil(t, cmd, "the view stays up until the run reports back")
}
