// Package terminal renders battle events and snapshots as ANSI-coloured
// text for the interactive driver.
package terminal

import (
	"fmt"
	"strings"
)

// ANSI escape codes used by the renderer.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			if end := strings.IndexByte(s[i+2:], 'm'); end >= 0 {
				i += end + 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// HPBar draws a width-cell health bar coloured by the remaining fraction:
// green above half, yellow above a fifth, red below.
//
// Precondition: width > 0.
func HPBar(hp, maxHP, width int) string {
	if maxHP <= 0 {
		maxHP = 1
	}
	hp = max(0, min(hp, maxHP))
	filled := hp * width / maxHP
	if hp > 0 && filled == 0 {
		filled = 1
	}
	color := Green
	switch {
	case hp*5 <= maxHP:
		color = Red
	case hp*2 <= maxHP:
		color = Yellow
	}
	return "[" + Colorize(color, strings.Repeat("#", filled)) + strings.Repeat(".", width-filled) + "]"
}
