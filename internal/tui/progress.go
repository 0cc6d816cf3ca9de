package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/kadanoff/internal/solver"
)

const historyLen = 60

type eventMsg solver.Event

type doneMsg struct{ err error }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// progress is the bubbletea model of a running calculation.
type progress struct {
	title  string
	nt     int
	k      int
	cancel context.CancelFunc

	phase    solver.Phase
	method   string
	iter     int
	residual float64
	history  []float64
	tstp     int

	start   time.Time
	elapsed time.Duration
	done    bool
	err     error
	width   int
}

func newProgress(title string, nt, k int, cancel context.CancelFunc) progress {
	return progress{
		title:   title,
		nt:      nt,
		k:       k,
		cancel:  cancel,
		phase:   solver.PhaseMatsubara,
		tstp:    -1,
		start:   time.Now(),
		history: make([]float64, 0, historyLen),
		width:   80,
	}
}

func (m progress) Init() tea.Cmd { return tick() }

func (m progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.start)
		return m, tick()
	case eventMsg:
		m = m.apply(solver.Event(msg))
	case doneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	}
	return m, nil
}

func (m progress) apply(e solver.Event) progress {
	if e.Phase != m.phase {
		m.history = m.history[:0]
	}
	m.phase = e.Phase
	m.iter = e.Iteration
	m.residual = e.Residual
	m.tstp = e.Timestep
	if e.Phase == solver.PhaseMatsubara {
		m.method = e.Method.String()
	}
	if e.Residual > 0 {
		m.history = append(m.history, math.Log10(e.Residual))
		if len(m.history) > historyLen {
			m.history = m.history[1:]
		}
	}
	return m
}

func (m progress) fraction() float64 {
	switch m.phase {
	case solver.PhasePropagation:
		if m.nt <= m.k {
			return 1
		}
		return float64(m.tstp-m.k) / float64(m.nt-m.k)
	default:
		return 0
	}
}

func (m progress) View() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render(m.title) + "  " + dim.Render(fmt.Sprintf("nt=%d  k=%d", m.nt, m.k)) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 40)) + "\n\n")

	phases := []solver.Phase{solver.PhaseMatsubara, solver.PhaseBootstrap, solver.PhasePropagation}
	for _, p := range phases {
		marker := dim.Render("  ")
		name := dim.Render(fmt.Sprintf("%-12s", p))
		if p == m.phase {
			marker = cyan.Render("▸ ")
			name = white.Render(fmt.Sprintf("%-12s", p))
		}
		b.WriteString("  " + marker + name + "\n")
	}
	b.WriteString("\n")

	switch m.phase {
	case solver.PhaseMatsubara:
		b.WriteString(fmt.Sprintf("  %s %s  %s %d  %s %s\n",
			dim.Render("method"), magenta.Render(m.method),
			dim.Render("iter"), m.iter,
			dim.Render("err"), white.Render(fmt.Sprintf("%.3e", m.residual))))
	case solver.PhaseBootstrap:
		b.WriteString(fmt.Sprintf("  %s %d  %s %s\n",
			dim.Render("iter"), m.iter,
			dim.Render("err"), white.Render(fmt.Sprintf("%.3e", m.residual))))
	case solver.PhasePropagation:
		w := max(10, min(m.width-20, 50))
		b.WriteString(fmt.Sprintf("  %s %s/%d\n", bar(m.fraction(), w), white.Render(fmt.Sprint(m.tstp)), m.nt))
	}
	if spark := sparkline(m.history, 40); spark != "" {
		b.WriteString("  " + dim.Render("log err ") + cyan.Render(spark) + "\n")
	}

	b.WriteString("\n  " + dim.Render(fmt.Sprintf("elapsed %s", m.elapsed.Round(100*time.Millisecond))))
	switch {
	case m.done && m.err != nil:
		b.WriteString("  " + red.Render("failed: "+m.err.Error()))
	case m.done:
		b.WriteString("  " + green.Render("done"))
	default:
		b.WriteString("  " + dim.Render("q abort"))
	}
	b.WriteString("\n")
	return b.String()
}

// reporter forwards solver events to a running program.
type reporter struct {
	p *tea.Program
}

func (r reporter) OnEvent(e solver.Event) { r.p.Send(eventMsg(e)) }

// RunWithProgress runs fn while showing a live progress view. fn receives
// a context that is canceled when the user aborts, and an observer to
// register with the solver.
func RunWithProgress(ctx context.Context, title string, nt, k int, fn func(ctx context.Context, obs solver.Observer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgress(title, nt, k, cancel))
	errc := make(chan error, 1)
	go func() {
		err := fn(ctx, reporter{p: p})
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return err
	}
	return <-errc
}
