// Package morse implements Morse code timing arithmetic and the ITU code table.
package morse

import "unicode"

// Code maps characters to their dit/dah patterns ('.' = dit, '-' = dah).
// Covers the ITU subset used for copy training: letters, digits, and the
// punctuation and prosigns commonly sent on the air.
var Code = map[rune]string{
	'A': ".-",
	'B': "-...",
	'C': "-.-.",
	'D': "-..",
	'E': ".",
	'F': "..-.",
	'G': "--.",
	'H': "....",
	'I': "..",
	'J': ".---",
	'K': "-.-",
	'L': ".-..",
	'M': "--",
	'N': "-.",
	'O': "---",
	'P': ".--.",
	'Q': "--.-",
	'R': ".-.",
	'S': "...",
	'T': "-",
	'U': "..-",
	'V': "...-",
	'W': ".--",
	'X': "-..-",
	'Y': "-.--",
	'Z': "--..",
	'0': "-----",
	'1': ".----",
	'2': "..---",
	'3': "...--",
	'4': "....-",
	'5': ".....",
	'6': "-....",
	'7': "--...",
	'8': "---..",
	'9': "----.",
	'.': ".-.-.-",
	',': "--..--",
	'?': "..--..",
	'/': "-..-.",
	'=': "-...-",
	'+': ".-.-.",
}

// Pattern returns the dit/dah pattern for a character, case-insensitively.
// The second return is false for characters with no Morse encoding.
func Pattern(char rune) (string, bool) {
	pattern, ok := Code[unicode.ToUpper(char)]
	return pattern, ok
}

// Known reports whether a character has a Morse encoding. The space
// character is not a code point; it is a timing gap.
func Known(char rune) bool {
	_, ok := Pattern(char)
	return ok
}
