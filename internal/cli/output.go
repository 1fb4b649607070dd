package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jdelaire/autoreply/core/replies"
)

// Banner prints the startup header.
func Banner(w io.Writer, replyFile string, keywords int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("  autoreply v"+Version))
	fmt.Fprintf(w, "  %-10s %s\n", "Replies", DimStyle.Render(replyFile))
	fmt.Fprintf(w, "  %-10s %d\n", "Keywords", keywords)
	fmt.Fprintln(w)
	fmt.Fprintln(w, DimStyle.Render("  Bot is running. Press Ctrl+C to stop."))
	fmt.Fprintln(w)
}

// Fatal prints a startup failure with an optional hint.
func Fatal(w io.Writer, err error, hint string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ErrStyle.Render("  FATAL ERROR: ")+err.Error())
	if hint != "" {
		fmt.Fprintln(w, DimStyle.Render("  "+hint))
	}
	fmt.Fprintln(w)
}

// KeywordTable prints the keywords of m in match order with their replies.
func KeywordTable(w io.Writer, path string, outcome replies.Outcome, m *replies.Map) {
	fmt.Fprintf(w, "\n  %s  %s %s\n\n", StatusBadge(outcome != replies.OutcomeFallback), path, DimStyle.Render("("+outcome.String()+")"))
	if m.Len() == 0 {
		fmt.Fprintln(w, DimStyle.Render("  no keywords configured"))
		fmt.Fprintln(w)
		return
	}

	kws := m.Keywords()
	labels := make([]string, 0, len(kws))
	width := 0
	for _, kw := range kws {
		label := kw
		if label == "" {
			label = `""`
		}
		labels = append(labels, label)
		width = max(width, lipgloss.Width(label))
	}
	for i, kw := range kws {
		reply, _ := m.Reply(kw)
		pad := strings.Repeat(" ", width-lipgloss.Width(labels[i]))
		fmt.Fprintf(w, "  %s  %s\n", BoldStyle.Render(labels[i]+pad), oneLine(reply))
	}
	fmt.Fprintln(w)
}

// MatchResult prints the outcome of a dry-run match.
func MatchResult(w io.Writer, text, keyword, reply string, ok bool) {
	if !ok {
		fmt.Fprintf(w, "  %s  no keyword in %q\n", StatusBadge(false), text)
		return
	}
	fmt.Fprintf(w, "  %s  %s → %s\n", StatusBadge(true), BoldStyle.Render(keyword), reply)
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ⏎ ")
	if len([]rune(s)) > 60 {
		s = string([]rune(s)[:57]) + "..."
	}
	return s
}
