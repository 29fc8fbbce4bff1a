package morse

import "errors"

// Morse timing ratios (ITU standard).
const (
	// DitsPerDah is the ratio of dah duration to dit duration.
	DitsPerDah = 3.0
	// IntraSymbolDits is the gap between elements within a character, in dits.
	IntraSymbolDits = 1.0
	// InterCharDits is the standard gap between characters, in dits.
	InterCharDits = 3.0
	// WordGapDits is the silence slot occupied by a space character, in dits.
	WordGapDits = 4.0

	// minWindowMs is the safety floor for recognition windows.
	minWindowMs = 60.0
)

var (
	// ErrInvalidWPM indicates a non-positive words-per-minute value.
	ErrInvalidWPM = errors.New("wpm must be positive")
	// ErrFarnsworthExceedsWPM indicates the effective (Farnsworth) speed is
	// faster than the character speed, which the spacing formula cannot produce.
	ErrFarnsworthExceedsWPM = errors.New("farnsworth wpm must not exceed character wpm")
	// ErrUnknownTier indicates an unrecognized speed tier name.
	ErrUnknownTier = errors.New("unknown speed tier")
)

// Tier selects the fixed recognition window applied after each character.
type Tier string

// Recognition speed tiers, slowest to fastest.
const (
	TierSlow      Tier = "slow"
	TierMedium    Tier = "medium"
	TierFast      Tier = "fast"
	TierLightning Tier = "lightning"
)

var tierWindowMs = map[Tier]float64{
	TierSlow:      2000,
	TierMedium:    1000,
	TierFast:      500,
	TierLightning: 300,
}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierWindowMs[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

// DitMs returns the dit duration in milliseconds for a character speed.
// The standard word PARIS is 50 dit units, so one dit is 1200/wpm ms.
func DitMs(wpm float64) (float64, error) {
	if wpm <= 0 {
		return 0, ErrInvalidWPM
	}
	return 1200 / wpm, nil
}

// CharDurationMs returns the audio duration of one character in milliseconds:
// the sum of its element durations plus one dit between elements, plus
// extraSpacingDits additional dits. A space occupies a fixed silence slot.
// Characters with no Morse encoding have duration 0.
func CharDurationMs(char rune, wpm float64, extraSpacingDits float64) (float64, error) {
	dit, err := DitMs(wpm)
	if err != nil {
		return 0, err
	}
	if char == ' ' {
		return WordGapDits * dit, nil
	}
	pattern, ok := Pattern(char)
	if !ok {
		return 0, nil
	}
	dits := 0.0
	for i, symbol := range pattern {
		if i > 0 {
			dits += IntraSymbolDits
		}
		if symbol == '-' {
			dits += DitsPerDah
		} else {
			dits++
		}
	}
	return (dits + extraSpacingDits) * dit, nil
}

// RecognitionWindowMs returns the keystroke acceptance window for a tier.
// The window is fixed per tier, independent of wpm, floored at
// max(60ms, one dit).
func RecognitionWindowMs(tier Tier, wpm float64) (float64, error) {
	window, ok := tierWindowMs[tier]
	if !ok {
		return 0, ErrUnknownTier
	}
	dit, err := DitMs(wpm)
	if err != nil {
		return 0, err
	}
	floor := minWindowMs
	if dit > floor {
		floor = dit
	}
	if window < floor {
		return floor, nil
	}
	return window, nil
}

// FarnsworthSpacingMs returns the inter-character spacing in milliseconds
// for Farnsworth timing: characters keyed at characterWpm with spacing
// stretched so the overall copy speed is effectiveWpm. When the two speeds
// are equal this is the standard 3-dit gap.
func FarnsworthSpacingMs(characterWpm, effectiveWpm float64) (float64, error) {
	if characterWpm <= 0 || effectiveWpm <= 0 {
		return 0, ErrInvalidWPM
	}
	if effectiveWpm > characterWpm {
		return 0, ErrFarnsworthExceedsWPM
	}
	if effectiveWpm == characterWpm {
		dit, err := DitMs(characterWpm)
		if err != nil {
			return 0, err
		}
		return InterCharDits * dit, nil
	}
	// ARRL Farnsworth derivation: the per-character spacing absorbs the time
	// a 50-unit word at effectiveWpm has left over after its characters are
	// keyed at characterWpm.
	spacing := ((60*characterWpm - 37.2*effectiveWpm) / (characterWpm * effectiveWpm)) * 1000
	if spacing < 0 {
		spacing = 0
	}
	return spacing, nil
}
