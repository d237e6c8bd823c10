// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui renders the progress of one pipeline run in the terminal.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdiddy/article-engine/internal/pipeline"
	pipelineprogress "github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/pkg/types"
)

// EventMsg carries one pipeline progress event.
type EventMsg types.ProgressEvent

// DoneMsg reports that the run finished.
type DoneMsg struct {
	Result pipeline.Result
	Err    error
}

// Model is the bubbletea model for a run.
type Model struct {
	topic   string
	spinner spinner.Model
	bar     progress.Model

	phase   types.Phase
	seen    []types.Phase
	section string
	current int
	total   int
	elapsed time.Duration

	done   bool
	result pipeline.Result
	err    error
	cancel context.CancelFunc
}

// NewModel returns the initial model for a run on topic. cancel is called
// when the user interrupts.
func NewModel(topic string, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle
	return Model{
		topic:   topic,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:  cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case EventMsg:
		m = m.apply(types.ProgressEvent(msg))
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) apply(e types.ProgressEvent) Model {
	m.elapsed = e.Elapsed
	if e.Phase == types.PhaseFailed {
		m.phase = e.Phase
		return m
	}
	if e.Total > 0 {
		m.section, m.current, m.total = e.Section, e.Current, e.Total
	}
	if !slices.Contains(m.seen, e.Phase) {
		m.seen = append(m.seen, e.Phase)
	}
	m.phase = e.Phase
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Writing: " + m.topic))
	b.WriteString("\n")

	for _, p := range types.Phases {
		switch {
		case m.phase == types.PhaseFailed && p == m.lastSeen():
			fmt.Fprintf(&b, "%s %s\n", errorStyle.Render("✗"), p)
		case p == m.phase && !m.done:
			fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), activeStyle.Render(string(p)))
		case slices.Contains(m.seen, p):
			fmt.Fprintf(&b, "%s %s\n", doneStyle.Render("✓"), p)
		default:
			fmt.Fprintf(&b, "%s\n", pendingStyle.Render("· "+string(p)))
		}
	}

	if m.total > 0 {
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(float64(m.current) / float64(m.total)))
		fmt.Fprintf(&b, " %d/%d %s\n", m.current, m.total, m.section)
	}
	fmt.Fprintf(&b, "\n%s\n", pendingStyle.Render("elapsed "+m.elapsed.Round(100*time.Millisecond).String()))

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render("failed: " + m.err.Error()))
		} else {
			md := m.result.Metadata
			b.WriteString(boxStyle.Render(fmt.Sprintf("%s\n%d words, %d sections\n%s",
				md.Title, md.WordCount, md.SectionCount, m.result.Saved.ContentPath)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) lastSeen() types.Phase {
	if len(m.seen) == 0 {
		return types.PhaseResearch
	}
	return m.seen[len(m.seen)-1]
}

// RunFunc runs the pipeline, reporting progress to obs.
type RunFunc func(ctx context.Context, obs pipelineprogress.Observer) (pipeline.Result, error)

// Run shows the progress view while run executes and returns its outcome.
func Run(ctx context.Context, topic string, run RunFunc, opts ...tea.ProgramOption) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewModel(topic, cancel), opts...)
	obs := pipelineprogress.ObserverFunc(func(e types.ProgressEvent) { prog.Send(EventMsg(e)) })

	var (
		res pipeline.Result
		err error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, err = run(ctx, obs)
		prog.Send(DoneMsg{Result: res, Err: err})
	}()

	if _, uiErr := prog.Run(); uiErr != nil {
		cancel()
		<-finished
		if err == nil {
			err = fmt.Errorf("running progress view: %w", uiErr)
		}
		return res, err
	}
	<-finished
	return res, err
}
