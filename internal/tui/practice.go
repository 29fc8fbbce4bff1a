package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/emission"
	"github.com/physicsrob/didah-sub001/internal/generator"
	"github.com/physicsrob/didah-sub001/internal/journal"
	"github.com/physicsrob/didah-sub001/internal/keybus"
	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/morse"
	"github.com/physicsrob/didah-sub001/internal/stats"
	"github.com/physicsrob/didah-sub001/internal/store"
)

type charStat struct {
	correct      int
	incorrect    int
	missed       int
	latencySumMs int64
	latencyCount int64
}

type outcomeMsg struct {
	result emission.Result
}

type feedbackMsg struct {
	outcome emission.Outcome
	char    string
}

type sessionDoneMsg struct {
	err error
}

// PracticeModel runs Practice mode: each character is played, then the
// learner's keystroke races the recognition window.
type PracticeModel struct {
	config  model.Config
	store   *store.Store
	gen     *generator.Generator
	charset []rune
	weakSet map[rune]struct{}

	clk     clock.Clock
	bus     *keybus.Bus
	jnl     *journal.Journal
	machine *emission.Machine

	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan tea.Msg

	width  int
	height int

	targetRunes []rune
	outcomes    []emission.Outcome
	idx         int
	startedAt   time.Time
	charStats   map[rune]*charStat
	correct     int
	incorrect   int
	missed      int

	flash     string
	done      bool
	doneErr   error
	saveErr   error
	sessionID int64

	lastAcc float64
	hasLast bool
	allAcc  float64
	allRuns int
}

type busFeedback struct {
	msgs chan<- tea.Msg
}

// Trigger forwards the cue into the Bubble Tea message stream. Cues are
// dropped rather than blocking the emission machine.
func (f busFeedback) Trigger(outcome emission.Outcome, char string) {
	select {
	case f.msgs <- feedbackMsg{outcome: outcome, char: char}:
	default:
	}
}

// NewPractice constructs the practice UI and its emission machine.
func NewPractice(cfg model.Config, st *store.Store, player emission.Player, weakSet map[rune]struct{}) (*PracticeModel, error) {
	tier, err := morse.ParseTier(cfg.Tier)
	if err != nil {
		return nil, fmt.Errorf("invalid tier %q: %w", cfg.Tier, err)
	}
	m := &PracticeModel{
		config:  cfg,
		store:   st,
		gen:     generator.New(),
		charset: []rune(strings.ToUpper(cfg.Chars)),
		weakSet: weakSet,
		clk:     clock.Real(),
		bus:     keybus.New(),
		jnl:     journal.New(),
		msgs:    make(chan tea.Msg, 16),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	machine, err := emission.New(m.clk, m.bus, player, busFeedback{msgs: m.msgs}, m.jnl, emission.Config{
		WPM:  cfg.WPM,
		Tier: tier,
	})
	if err != nil {
		return nil, err
	}
	m.machine = machine
	m.resetSession()
	m.loadFooterStats()
	return m, nil
}

// Init implements tea.Model.
func (m *PracticeModel) Init() tea.Cmd {
	go m.runSession()
	return m.listen()
}

func (m *PracticeModel) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

// runSession drives the emission machine over the whole target text.
// Emission N+1 never starts before N's race has settled: Run only
// returns once every losing arm has been cancelled and unwound.
func (m *PracticeModel) runSession() {
	for _, char := range m.targetRunes {
		res, err := m.machine.Run(m.ctx, string(char))
		if err != nil {
			m.msgs <- sessionDoneMsg{err: err}
			return
		}
		m.msgs <- outcomeMsg{result: res}
	}
	m.msgs <- sessionDoneMsg{}
}

// Update implements tea.Model.
func (m *PracticeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case outcomeMsg:
		m.recordOutcome(msg.result)
		return m, m.listen()
	case feedbackMsg:
		m.flash = flashLine(msg.outcome, msg.char)
		return m, m.listen()
	case sessionDoneMsg:
		m.doneErr = msg.err
		m.done = true
		if msg.err == nil {
			m.finishSession()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *PracticeModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancel()
		return m, tea.Quit
	case tea.KeySpace:
		m.pushKey(" ")
		return m, nil
	case tea.KeyRunes:
		if m.done {
			return m, tea.Quit
		}
		for _, r := range msg.Runes {
			m.pushKey(string(r))
		}
		return m, nil
	case tea.KeyEnter:
		if m.done {
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *PracticeModel) pushKey(key string) {
	if m.done {
		return
	}
	if !m.startedAt.IsZero() {
		m.bus.Push(keybus.Event{At: m.clk.Now(), Key: key})
	}
}

func (m *PracticeModel) recordOutcome(res emission.Result) {
	if m.idx < len(m.outcomes) {
		m.outcomes[m.idx] = res.Outcome
	}
	m.idx++
	if res.Char == " " {
		return
	}
	entry := m.charEntry([]rune(res.Char)[0])
	switch res.Outcome {
	case emission.OutcomeCorrect:
		m.correct++
		entry.correct++
		entry.latencySumMs += res.LatencyMs
		entry.latencyCount++
	case emission.OutcomeIncorrect:
		m.incorrect++
		entry.incorrect++
	case emission.OutcomeTimeout:
		m.missed++
		entry.missed++
	}
}

func (m *PracticeModel) charEntry(char rune) *charStat {
	if m.charStats == nil {
		m.charStats = map[rune]*charStat{}
	}
	entry, ok := m.charStats[char]
	if !ok {
		entry = &charStat{}
		m.charStats[char] = entry
	}
	return entry
}

func (m *PracticeModel) resetSession() {
	m.idx = 0
	m.correct = 0
	m.incorrect = 0
	m.missed = 0
	m.charStats = map[rune]*charStat{}
	m.flash = ""
	m.startedAt = time.Now()

	var text string
	if m.config.FocusWeak && len(m.weakSet) > 0 {
		text = m.gen.GenerateWeighted(m.charset, m.config.Groups, m.config.GroupSize, m.weakSet, m.config.WeakFactor)
	} else {
		text = m.gen.Generate(m.charset, m.config.Groups, m.config.GroupSize)
	}
	m.targetRunes = []rune(text)
	m.outcomes = make([]emission.Outcome, len(m.targetRunes))
}

func (m *PracticeModel) finishSession() {
	endedAt := time.Now()
	session := model.SessionStats{
		StartedAt:     m.startedAt,
		EndedAt:       endedAt,
		Mode:          model.ModePractice,
		WPM:           m.config.WPM,
		Tier:          m.config.Tier,
		FarnsworthWPM: m.config.FarnsworthWPM,
		Chars:         m.config.Chars,
		Correct:       m.correct,
		Incorrect:     m.incorrect,
		Missed:        m.missed,
		DurationMs:    endedAt.Sub(m.startedAt).Milliseconds(),
	}
	charStats := make([]model.CharStats, 0, len(m.charStats))
	for ch, entry := range m.charStats {
		charStats = append(charStats, model.CharStats{
			Char:         string(ch),
			Correct:      entry.correct,
			Incorrect:    entry.incorrect,
			Missed:       entry.missed,
			LatencySumMs: entry.latencySumMs,
			LatencyCount: entry.latencyCount,
		})
	}
	id, err := m.store.InsertSession(context.Background(), session, charStats)
	if err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.sessionID = id
	_, _, acc := stats.SessionMetrics(m.correct, m.incorrect, m.missed, session.DurationMs)
	m.lastAcc = acc
	m.hasLast = true
	m.loadFooterStats()
}

func (m *PracticeModel) loadFooterStats() {
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Mode: model.ModePractice})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	if !m.hasLast {
		last := sessions[len(sessions)-1]
		_, _, acc := stats.SessionMetrics(last.Correct, last.Incorrect, last.Missed, last.DurationMs)
		m.lastAcc = acc
		m.hasLast = true
	}
	var correct, incorrect, missed int
	var duration int64
	for _, s := range sessions {
		correct += s.Correct
		incorrect += s.Incorrect
		missed += s.Missed
		duration += s.DurationMs
	}
	_, _, acc := stats.SessionMetrics(correct, incorrect, missed, duration)
	m.allAcc = acc
	m.allRuns = len(sessions)
}

// View implements tea.Model.
func (m *PracticeModel) View() string {
	if m.done {
		return m.viewSummary()
	}
	styled := make([]styledRune, 0, len(m.targetRunes))
	for i, target := range m.targetRunes {
		style := pendingStyle
		switch {
		case i == m.idx:
			style = currentStyle
		case i < m.idx:
			style = outcomeStyle(m.outcomes[i])
		}
		styled = append(styled, newStyledRune(target, style))
	}
	content := renderStyledRunes(styled)
	if m.width > 0 {
		contentWidth := int(float64(m.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
		content = lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth))
	}
	if m.flash != "" {
		content += "\n\n" + m.flash
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		if footer != "" {
			return content + "\n" + footer
		}
		return content
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *PracticeModel) viewSummary() string {
	if m.doneErr != nil {
		return footerStyle.Render("session aborted")
	}
	total := m.correct + m.incorrect + m.missed
	acc := 0.0
	if total > 0 {
		acc = float64(m.correct) / float64(total) * 100
	}
	lines := []string{
		titleStyle.Render("Session complete"),
		"",
		fmt.Sprintf("Correct: %d  Incorrect: %d  Missed: %d", m.correct, m.incorrect, m.missed),
		fmt.Sprintf("Accuracy: %.1f%%", acc),
	}
	if m.saveErr != nil {
		lines = append(lines, incorrectStyle.Render("session was not saved"))
	}
	lines = append(lines, "", footerStyle.Render("press any key to quit"))
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *PracticeModel) renderFooter() string {
	segments := []string{
		fmt.Sprintf("%.0f WPM · %s", m.config.WPM, m.config.Tier),
		fmt.Sprintf("Progress %d/%d", m.idx, len(m.targetRunes)),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if m.allRuns > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% over %d runs", m.allAcc*100, m.allRuns))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func outcomeStyle(outcome emission.Outcome) lipgloss.Style {
	switch outcome {
	case emission.OutcomeCorrect:
		return correctStyle
	case emission.OutcomeIncorrect:
		return incorrectStyle
	case emission.OutcomeTimeout:
		return missedStyle
	default:
		return pendingStyle
	}
}

func flashLine(outcome emission.Outcome, char string) string {
	switch outcome {
	case emission.OutcomeCorrect:
		return correctStyle.Render("✓ " + char)
	case emission.OutcomeIncorrect:
		return incorrectStyle.Render("✗ " + char)
	default:
		return missedStyle.Render("– " + char)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
