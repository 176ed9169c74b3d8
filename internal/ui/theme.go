package ui

import "strings"

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                   string
	Title, Muted, Accent, Success, Error   string
	Pending                                string
	BoxToBuy, BoxBought                    string
	CornerTL, CornerTR, CornerBL, CornerBR string
	H, V                                   string
	SymBought, SymPending                  string
}

var current Theme

func init() { SetTheme("classic") }

// SetTheme switches the palette. Unknown names fall back to classic.
func SetTheme(name string) {
	disableColor = false
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			BoxToBuy: "◻", BoxBought: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymBought: "✔", SymPending: "•",
		}
	case "mono":
		disableColor = true
		current = Theme{
			Name:     "mono",
			BoxToBuy: "[ ]", BoxBought: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymBought: "x", SymPending: "-",
		}
	default: // classic
		current = Theme{
			Name:  "classic",
			Title: bold, Muted: fgGray, Accent: fgBlue,
			Success: fgGreen, Error: fgRed, Pending: fgYellow,
			BoxToBuy: "☐", BoxBought: "☑",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			SymBought: "✔", SymPending: "•",
		}
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }
