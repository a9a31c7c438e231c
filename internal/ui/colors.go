package ui

import "github.com/mysticatea/npm-run-all-sub000/internal/model"

// ANSI color codes
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[94m" // Bright blue - more readable on dark backgrounds
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
)

// Colors holds all color functions
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

// Enabled reports whether escape codes are emitted
func (c *Colors) Enabled() bool {
	return c.enabled
}

func (c *Colors) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + ColorReset
}

// Red returns red colored text
func (c *Colors) Red(s string) string { return c.wrap(ColorRed, s) }

// Green returns green colored text
func (c *Colors) Green(s string) string { return c.wrap(ColorGreen, s) }

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string { return c.wrap(ColorYellow, s) }

// Blue returns blue colored text
func (c *Colors) Blue(s string) string { return c.wrap(ColorBlue, s) }

// Magenta returns magenta colored text
func (c *Colors) Magenta(s string) string { return c.wrap(ColorMagenta, s) }

// Cyan returns cyan colored text
func (c *Colors) Cyan(s string) string { return c.wrap(ColorCyan, s) }

// Gray returns gray colored text
func (c *Colors) Gray(s string) string { return c.wrap(ColorGray, s) }

// Bold returns bold text
func (c *Colors) Bold(s string) string { return c.wrap(ColorBold, s) }

// LabelColors returns the rotation used to tell task labels apart
func (c *Colors) LabelColors() []func(string) string {
	return []func(string) string{c.Cyan, c.Green, c.Magenta, c.Yellow, c.Red}
}

// StatusColor returns colored text based on status
func (c *Colors) StatusColor(status model.TaskStatus, text string) string {
	switch status {
	case model.StatusPass:
		return c.Green(text)
	case model.StatusFail:
		return c.Red(text)
	case model.StatusAborted:
		return c.Yellow(text)
	case model.StatusPending:
		return c.Gray(text)
	default:
		return text
	}
}

// StatusSymbol returns a colored symbol for the status
func (c *Colors) StatusSymbol(status model.TaskStatus) string {
	switch status {
	case model.StatusPass:
		return c.Green("✓")
	case model.StatusFail:
		return c.Red("✗")
	case model.StatusAborted:
		return c.Yellow("⊘")
	case model.StatusPending:
		return c.Gray("⋯")
	default:
		return " "
	}
}
