// SPDX-License-Identifier: AGPL-3.0-or-later

// Package presenter turns a probe report into a human transcript, a
// Markdown table or a structured summary.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/muesli/termenv"
)

// ColorMode selects when the transcript is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value. The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return ColorMode(s), nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Styled reports whether output to w should carry ANSI styling. In auto mode
// only terminals are styled, and NO_COLOR disables styling.
func (m ColorMode) Styled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// Options control text rendering.
type Options struct {
	Color ColorMode
}

type styles struct {
	on bool

	banner  lipgloss.Style
	section lipgloss.Style
	key     lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer, mode ColorMode) *styles {
	if !mode.Styled(w) {
		return &styles{}
	}

	r := lipgloss.NewRenderer(w)
	// A forced mode may be writing to a pipe, where detection would strip
	// every color.
	r.SetColorProfile(termenv.ANSI256)

	return &styles{
		on:      true,
		banner:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		section: r.NewStyle().Bold(true),
		key:     r.NewStyle().Foreground(lipgloss.Color("245")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

func (s *styles) paint(st lipgloss.Style, text string) string {
	if !s.on {
		return text
	}
	return st.Render(text)
}
