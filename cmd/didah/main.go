// Package main provides the CLI entrypoint for didah.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/physicsrob/didah-sub001/internal/audio"
	"github.com/physicsrob/didah-sub001/internal/clock"
	"github.com/physicsrob/didah-sub001/internal/config"
	"github.com/physicsrob/didah-sub001/internal/emission"
	"github.com/physicsrob/didah-sub001/internal/generator"
	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/morse"
	"github.com/physicsrob/didah-sub001/internal/stats"
	"github.com/physicsrob/didah-sub001/internal/statsui"
	"github.com/physicsrob/didah-sub001/internal/store"
	"github.com/physicsrob/didah-sub001/internal/tui"
)

const (
	defaultWPM        = 20.0
	defaultTier       = "medium"
	defaultCharCount  = 15
	defaultGroups     = 10
	defaultGroupSize  = 5
	defaultOffsetMs   = 100
	defaultUpdateMs   = 50
	defaultWeakTop    = 8
	defaultWeakFactor = 2.0
	defaultWeakWindow = 20
)

var (
	trainWPM        float64
	trainTier       string
	trainFarnsworth float64
	trainChars      string
	trainGroups     int
	trainGroupSize  int
	trainOffsetMs   int64
	trainUpdateMs   int
	trainFreq       float64
	trainVolume     float64
	trainNoAudio    bool
	trainFocusWeak  bool
	trainWeakTop    int
	trainWeakFactor float64
	trainWeakWindow int

	statsMode  string
	statsSince string
	statsLast  int
	statsPlain bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "didah",
		Short:         "TUI Morse code copy trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}
	addTrainerFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "livecopy",
		Short: "Live-copy mode: type along, corrections revealed at the end",
		Args:  cobra.NoArgs,
		RunE:  runLiveCopyCmd,
	}
	addTrainerFlags(liveCmd)

	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func addTrainerFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&trainWPM, "wpm", defaultWPM, "character speed in WPM")
	cmd.Flags().StringVar(&trainTier, "tier", defaultTier, "recognition speed tier (slow|medium|fast|lightning)")
	cmd.Flags().Float64Var(&trainFarnsworth, "farnsworth", 0, "effective WPM for spacing (0 = same as --wpm)")
	cmd.Flags().StringVar(&trainChars, "chars", defaultCharset(), "practice character set")
	cmd.Flags().IntVar(&trainGroups, "groups", defaultGroups, "groups per session")
	cmd.Flags().IntVar(&trainGroupSize, "group-size", defaultGroupSize, "characters per group")
	cmd.Flags().Int64Var(&trainOffsetMs, "offset-ms", defaultOffsetMs, "live-copy input window offset in ms")
	cmd.Flags().IntVar(&trainUpdateMs, "update-ms", defaultUpdateMs, "live view refresh interval in ms")
	cmd.Flags().Float64Var(&trainFreq, "freq", audio.DefaultFreqHz, "tone frequency in Hz")
	cmd.Flags().Float64Var(&trainVolume, "volume", audio.DefaultVolume, "tone volume (0-1)")
	cmd.Flags().BoolVar(&trainNoAudio, "no-audio", false, "run without an audio device")
	cmd.Flags().BoolVar(&trainFocusWeak, "focus-weak", false, "bias practice toward weak characters")
	cmd.Flags().IntVar(&trainWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	cmd.Flags().Float64Var(&trainWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	cmd.Flags().IntVar(&trainWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chars")
}

func defaultCharset() string {
	return generator.KochOrder[:defaultCharCount]
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTrainerConfig(cmd)
	if err != nil {
		return err
	}
	return runTrainer(cfg, func(st *store.Store, player emission.Player, weakSet map[rune]struct{}) (tea.Model, error) {
		return tui.NewPractice(cfg, st, player, weakSet)
	})
}

func runLiveCopyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTrainerConfig(cmd)
	if err != nil {
		return err
	}
	return runTrainer(cfg, func(st *store.Store, player emission.Player, weakSet map[rune]struct{}) (tea.Model, error) {
		return tui.NewLiveCopy(cfg, st, player, weakSet)
	})
}

func runTrainer(cfg model.Config, build func(*store.Store, emission.Player, map[rune]struct{}) (tea.Model, error)) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weakSet := map[rune]struct{}{}
	if cfg.FocusWeak {
		aggs, err := st.GetWeakChars(context.Background(), cfg.WeakWindow, "")
		if err != nil {
			logErrf("failed to load weak chars: %v\n", err)
		} else {
			weakSet = stats.SelectWeakChars(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-char focus yet; using normal generator")
			}
		}
	}

	player, closePlayer := openPlayer(cfg)
	defer closePlayer()

	m, err := build(st, player, weakSet)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openPlayer returns the tone keyer, or the silent player when audio is
// disabled or the device cannot be opened. A missing device must never
// block training.
func openPlayer(cfg model.Config) (emission.Player, func()) {
	if !cfg.NoAudio {
		tone, err := audio.NewTone(cfg.FreqHz, cfg.Volume)
		if err == nil {
			return tone, func() {
				if cerr := tone.Close(); cerr != nil {
					logErrf("failed to close audio: %v\n", cerr)
				}
			}
		}
		logErrf("audio unavailable, continuing silently: %v\n", err)
	}
	return audio.NewSilent(clock.Real()), func() {}
}

func loadTrainerConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "wpm", &trainWPM, fileCfg.Practice.WPM)
	applyStringConfig(cmd, "tier", &trainTier, fileCfg.Practice.Tier)
	applyFloatConfig(cmd, "farnsworth", &trainFarnsworth, fileCfg.Practice.Farnsworth)
	applyStringConfig(cmd, "chars", &trainChars, fileCfg.Practice.Chars)
	applyIntConfig(cmd, "groups", &trainGroups, fileCfg.Practice.Groups)
	applyIntConfig(cmd, "group-size", &trainGroupSize, fileCfg.Practice.GroupSize)
	applyInt64Config(cmd, "offset-ms", &trainOffsetMs, fileCfg.Practice.OffsetMs)
	applyIntConfig(cmd, "update-ms", &trainUpdateMs, fileCfg.Practice.UpdateMs)
	applyBoolConfig(cmd, "focus-weak", &trainFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &trainWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &trainWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &trainWeakWindow, fileCfg.Practice.WeakWindow)
	applyFloatConfig(cmd, "freq", &trainFreq, fileCfg.Audio.FreqHz)
	applyFloatConfig(cmd, "volume", &trainVolume, fileCfg.Audio.Volume)
	applyBoolConfig(cmd, "no-audio", &trainNoAudio, fileCfg.Audio.NoAudio)

	if trainFarnsworth == 0 {
		trainFarnsworth = trainWPM
	}
	cfg := model.Config{
		WPM:           trainWPM,
		Tier:          trainTier,
		FarnsworthWPM: trainFarnsworth,
		Chars:         trainChars,
		Groups:        trainGroups,
		GroupSize:     trainGroupSize,
		OffsetMs:      trainOffsetMs,
		UpdateMs:      trainUpdateMs,
		FreqHz:        trainFreq,
		Volume:        trainVolume,
		NoAudio:       trainNoAudio,
		FocusWeak:     trainFocusWeak,
		WeakTop:       trainWeakTop,
		WeakFactor:    trainWeakFactor,
		WeakWindow:    trainWeakWindow,
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg model.Config) error {
	if cfg.WPM <= 0 {
		return fmt.Errorf("--wpm must be > 0")
	}
	if _, err := morse.ParseTier(cfg.Tier); err != nil {
		return fmt.Errorf("--tier must be one of slow, medium, fast, lightning")
	}
	if cfg.FarnsworthWPM <= 0 || cfg.FarnsworthWPM > cfg.WPM {
		return fmt.Errorf("--farnsworth must be > 0 and <= --wpm")
	}
	if strings.TrimSpace(cfg.Chars) == "" {
		return fmt.Errorf("--chars must not be empty")
	}
	for _, ch := range cfg.Chars {
		if !morse.Known(ch) {
			return fmt.Errorf("--chars contains %q, which has no Morse encoding", ch)
		}
	}
	if cfg.Groups <= 0 {
		return fmt.Errorf("--groups must be > 0")
	}
	if cfg.GroupSize <= 0 {
		return fmt.Errorf("--group-size must be > 0")
	}
	if cfg.OffsetMs < 0 {
		return fmt.Errorf("--offset-ms must be >= 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "session mode filter (practice|livecopy)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain-text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Mode:  statsMode,
		Since: sinceTime,
		Last:  statsLast,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	// Piped output gets the plain report even without --plain.
	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return renderPlainStats(cmd, st, cfg)
	}
	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := stats.RenderCharTable(out, report.CharAggs); err != nil {
		return fmt.Errorf("failed to render char table: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# didah configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# wpm = %.0f             # Character speed in WPM
# tier = %q        # Recognition tier (slow|medium|fast|lightning)
# farnsworth = 10        # Effective WPM for spacing (<= wpm)
# chars = %q
# groups = %d            # Groups per session
# group-size = %d        # Characters per group
# offset-ms = %d        # Live-copy input window offset
# update-ms = %d         # Live view refresh interval
# focus-weak = false     # Bias practice toward weak characters
# weak-top = %d           # Number of weak characters to focus on
# weak-factor = %.1f     # Weight factor for weak characters
# weak-window = %d       # Number of recent sessions to compute weak chars

[audio]
# freq = %.0f            # Tone frequency in Hz
# volume = %.1f          # Tone volume (0-1)
# no-audio = false       # Run without an audio device
`,
		defaultWPM,
		defaultTier,
		defaultCharset(),
		defaultGroups,
		defaultGroupSize,
		defaultOffsetMs,
		defaultUpdateMs,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		audio.DefaultFreqHz,
		audio.DefaultVolume,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
