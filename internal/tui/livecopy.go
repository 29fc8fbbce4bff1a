package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/emission"
	"github.com/physicsrob/didah-sub001/internal/generator"
	"github.com/physicsrob/didah-sub001/internal/livecopy"
	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/morse"
	"github.com/physicsrob/didah-sub001/internal/store"
)

type transmittedMsg struct {
	slot int
	err  error
}

type transmitDoneMsg struct{}

type tickMsg time.Time

// LiveCopyModel runs Live Copy mode: a whole passage is transmitted and
// the learner types along, with corrections withheld until the end. The
// on-screen state is recomputed from the event log on every tick; the
// final reveal uses the same evaluator, so the live view and the
// summary can never disagree.
type LiveCopyModel struct {
	config model.Config
	store  *store.Store
	player emission.Player

	clk      clock.Clock
	schedule []livecopy.Slot
	events   []livecopy.Event
	evalCfg  livecopy.Config

	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan tea.Msg

	width  int
	height int

	startedAt    time.Time
	transmitted  int
	transmitDone bool
	snapshot     livecopy.Result
	revealed     bool
	saveErr      error
}

// NewLiveCopy builds a live-copy session over a fresh schedule.
func NewLiveCopy(cfg model.Config, st *store.Store, player emission.Player, weakSet map[rune]struct{}) (*LiveCopyModel, error) {
	if _, err := morse.ParseTier(cfg.Tier); err != nil {
		return nil, fmt.Errorf("invalid tier %q: %w", cfg.Tier, err)
	}
	gen := generator.New()
	charset := []rune(strings.ToUpper(cfg.Chars))
	var text string
	if cfg.FocusWeak && len(weakSet) > 0 {
		text = gen.GenerateWeighted(charset, cfg.Groups, cfg.GroupSize, weakSet, cfg.WeakFactor)
	} else {
		text = gen.Generate(charset, cfg.Groups, cfg.GroupSize)
	}
	schedule, err := livecopy.BuildSchedule(text, cfg.WPM, cfg.FarnsworthWPM)
	if err != nil {
		return nil, err
	}
	m := &LiveCopyModel{
		config:   cfg,
		store:    st,
		player:   player,
		clk:      clock.Real(),
		schedule: schedule,
		evalCfg:  livecopy.Config{OffsetMs: cfg.OffsetMs},
		msgs:     make(chan tea.Msg, 16),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

// Init implements tea.Model.
func (m *LiveCopyModel) Init() tea.Cmd {
	m.startedAt = time.Now()
	go m.transmit()
	return tea.Batch(m.listen(), m.tick())
}

func (m *LiveCopyModel) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

func (m *LiveCopyModel) tick() tea.Cmd {
	interval := time.Duration(m.config.UpdateMs) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// transmit plays each scheduled slot in order: the character's audio,
// then the remainder of its slot as silence.
func (m *LiveCopyModel) transmit() {
	for i, slot := range m.schedule {
		if err := m.player.PlayChar(m.ctx, slot.Char, m.config.WPM); err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.msgs <- transmittedMsg{slot: i, err: err}
		} else {
			m.msgs <- transmittedMsg{slot: i}
		}
		gap := time.Duration(slot.SlotMs-slot.AudioMs) * time.Millisecond
		if err := m.clk.Sleep(m.ctx, gap); err != nil {
			return
		}
	}
	m.msgs <- transmitDoneMsg{}
}

func (m *LiveCopyModel) nowMs() int64 {
	return time.Since(m.startedAt).Milliseconds()
}

// Update implements tea.Model.
func (m *LiveCopyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case transmittedMsg:
		slot := m.schedule[msg.slot]
		if msg.err != nil {
			logErrf("audio playback failed for %q: %v\n", slot.Char, msg.err)
		}
		if !slot.WordGap {
			m.events = append(m.events, livecopy.Transmitted(slot.Char, slot.StartMs, slot.SlotMs))
		}
		m.transmitted = msg.slot + 1
		return m, m.listen()
	case transmitDoneMsg:
		m.transmitDone = true
		return m, nil
	case tickMsg:
		return m.updateTick()
	default:
		return m, nil
	}
}

func (m *LiveCopyModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancel()
		return m, tea.Quit
	case tea.KeyBackspace, tea.KeyDelete:
		m.undoTyped()
		return m, nil
	case tea.KeySpace:
		m.appendTyped(" ")
		return m, nil
	case tea.KeyRunes:
		if m.revealed {
			return m, tea.Quit
		}
		for _, r := range msg.Runes {
			m.appendTyped(string(r))
		}
		return m, nil
	case tea.KeyEnter:
		if m.revealed {
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *LiveCopyModel) appendTyped(key string) {
	if m.revealed {
		return
	}
	m.events = append(m.events, livecopy.Typed(key, m.nowMs()))
}

// undoTyped removes the most recent typed event (backspace). Transmit
// events are never touched.
func (m *LiveCopyModel) undoTyped() {
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == livecopy.EventTyped {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return
		}
	}
}

func (m *LiveCopyModel) updateTick() (tea.Model, tea.Cmd) {
	if m.revealed {
		return m, nil
	}
	now := m.nowMs()
	if m.transmitDone && now >= m.sessionEndMs() {
		m.snapshot = livecopy.Evaluate(m.events, m.sessionEndMs(), m.evalCfg)
		m.revealed = true
		m.finishSession()
		return m, nil
	}
	m.snapshot = livecopy.Evaluate(m.events, now, m.evalCfg)
	return m, m.tick()
}

// sessionEndMs is the close of the last character's window; evaluating
// there reveals every character.
func (m *LiveCopyModel) sessionEndMs() int64 {
	if len(m.schedule) == 0 {
		return 0
	}
	last := m.schedule[len(m.schedule)-1]
	return last.StartMs + last.SlotMs + m.evalCfg.OffsetMs
}

func (m *LiveCopyModel) finishSession() {
	endedAt := time.Now()
	score := m.snapshot.Score
	stats := model.SessionStats{
		StartedAt:     m.startedAt,
		EndedAt:       endedAt,
		Mode:          model.ModeLiveCopy,
		WPM:           m.config.WPM,
		Tier:          m.config.Tier,
		FarnsworthWPM: m.config.FarnsworthWPM,
		Chars:         m.config.Chars,
		Correct:       score.Correct,
		Incorrect:     score.Wrong,
		Missed:        score.Missed,
		DurationMs:    endedAt.Sub(m.startedAt).Milliseconds(),
	}
	byChar := map[rune]*charStat{}
	for _, cd := range m.snapshot.Display {
		runes := []rune(cd.Char)
		if len(runes) == 0 {
			continue
		}
		entry, ok := byChar[runes[0]]
		if !ok {
			entry = &charStat{}
			byChar[runes[0]] = entry
		}
		switch cd.Status {
		case livecopy.StatusCorrect:
			entry.correct++
		case livecopy.StatusWrong:
			entry.incorrect++
		case livecopy.StatusMissed:
			entry.missed++
		}
	}
	charStats := make([]model.CharStats, 0, len(byChar))
	for ch, entry := range byChar {
		charStats = append(charStats, model.CharStats{
			Char:      string(ch),
			Correct:   entry.correct,
			Incorrect: entry.incorrect,
			Missed:    entry.missed,
		})
	}
	if _, err := m.store.InsertSession(context.Background(), stats, charStats); err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
	}
}

// View implements tea.Model.
func (m *LiveCopyModel) View() string {
	if m.revealed {
		return m.viewReveal()
	}
	styled := make([]styledRune, 0, len(m.snapshot.Display))
	for _, cd := range m.snapshot.Display {
		switch {
		case cd.Status == livecopy.StatusPending && cd.Typed != "":
			styled = append(styled, newStyledRune([]rune(cd.Typed)[0], typedStyle))
		case cd.Status == livecopy.StatusPending:
			styled = append(styled, newStyledRune('_', pendingStyle))
		default:
			// Terminal before the reveal: show what was typed, not the
			// verdict; corrections are withheld until session end.
			r := '_'
			if cd.Typed != "" {
				r = []rune(cd.Typed)[0]
			} else if cd.Status == livecopy.StatusCorrect {
				r = []rune(cd.Char)[0]
			}
			styled = append(styled, newStyledRune(r, correctStyle))
		}
	}
	content := renderStyledRunes(styled)
	if len(styled) == 0 {
		content = pendingStyle.Render("listen...")
	}
	footer := footerStyle.Render(fmt.Sprintf("%.0f/%.0f WPM  sent %d/%d  esc to abort",
		m.config.WPM, m.config.FarnsworthWPM, m.transmitted, len(m.schedule)))
	return m.place(content, footer)
}

func (m *LiveCopyModel) viewReveal() string {
	styled := make([]styledRune, 0, len(m.snapshot.Display))
	for _, cd := range m.snapshot.Display {
		style := missedStyle
		switch cd.Status {
		case livecopy.StatusCorrect:
			style = correctStyle
		case livecopy.StatusWrong:
			style = incorrectStyle
		}
		styled = append(styled, newStyledRune([]rune(cd.Char)[0], style))
	}
	score := m.snapshot.Score
	lines := []string{
		titleStyle.Render("Copy revealed"),
		"",
		renderStyledRunes(styled),
		"",
		fmt.Sprintf("Correct: %d  Wrong: %d  Missed: %d  Accuracy: %d%%",
			score.Correct, score.Wrong, score.Missed, score.Accuracy),
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

func (m *LiveCopyModel) place(content, footer string) string {
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}
