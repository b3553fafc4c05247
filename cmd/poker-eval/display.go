package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func displayEquity(out io.Writer, snap *results.Snapshot, labels []string, board []poker.Card) {
	if len(board) > 0 {
		fmt.Fprintf(out, "%s\n", headerStyle.Render("board"))
		fmt.Fprintf(out, "%s\n\n", poker.FormatCards(board))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("player"),
		headerStyle.Render("flop"),
		headerStyle.Render("turn"),
		headerStyle.Render("river"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("95% ci"))

	row := func(label string, p results.PlayerResult) {
		river := p.Streets[engine.River]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			handStyle.Render(label),
			pct(p.Streets[engine.Flop].Equity),
			pct(p.Streets[engine.Turn].Equity),
			winStyle.Render(pct(river.Equity)),
			winStyle.Render(pct(river.WinRate)),
			tieStyle.Render(pct(river.TieRate)),
			dimStyle.Render(pct(river.ConfidenceLow)+" - "+pct(river.ConfidenceHigh)))
	}
	for i, p := range snap.Players {
		row(labels[i], p)
	}
	if snap.Villain != nil && len(snap.Players) > 2 {
		row("villain", *snap.Villain)
	}
	_ = w.Flush()
}

// displayHistograms shows the hand families a player wins and loses with
// on the river, strongest first.
func displayHistograms(out io.Writer, p results.PlayerResult, label string) {
	river := p.Streets[engine.River]

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		handStyle.Render(label),
		headerStyle.Render("win"),
		headerStyle.Render("win+"),
		headerStyle.Render("lose"),
		headerStyle.Render("lose+"))

	for f := poker.NumHandTypes - 1; f >= 0; f-- {
		win, lose := river.WinRankHistogram[f], river.LoseRankHistogram[f]
		if win.Perc == 0 && lose.Perc == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			categoryStyle.Render(poker.HandType(f).String()),
			percentStyle.Render(pct(win.Perc)),
			dimStyle.Render(pct(win.Better)),
			percentStyle.Render(pct(lose.Perc)),
			dimStyle.Render(pct(lose.Better)))
	}
	_ = w.Flush()
}

// displayDraws shows how often a player holds each draw on the flop and turn.
func displayDraws(out io.Writer, p results.PlayerResult, label string) {
	flop, turn := p.Streets[engine.Flop].Draws, p.Streets[engine.Turn].Draws

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		handStyle.Render(label),
		headerStyle.Render("flop"),
		headerStyle.Render("turn"))
	for i := range poker.NumDrawKinds {
		name := poker.DrawName(i)
		if flop[name] == 0 && turn[name] == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			categoryStyle.Render(name),
			percentStyle.Render(pct(flop[name])),
			percentStyle.Render(pct(turn[name])))
	}
	_ = w.Flush()
}

// displayGrid prints the 13x13 starting hand grid with the weight of every
// cell. Empty cells print as a dot.
func displayGrid(out io.Writer, grid ranges.Grid) {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)
	for row := range poker.NumRanks {
		cells := make([]string, poker.NumRanks)
		for col := range poker.NumRanks {
			b := poker.BucketAt(row, col)
			switch v := grid[b]; {
			case v == 0:
				cells[col] = dimStyle.Render(".")
			case v == 100:
				cells[col] = handStyle.Render(b.String())
			default:
				cells[col] = percentStyle.Render(fmt.Sprintf("%s:%.0f", b, v))
			}
		}
		fmt.Fprintf(w, "%s\t\n", strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

func displayRange(out io.Writer, r ranges.Range) {
	fmt.Fprintf(out, "%s %s\n", headerStyle.Render("range"), r.String())
	fmt.Fprintf(out, "%s %d (%s)\n\n", headerStyle.Render("combos"), r.ComboCount(), pct(r.Percent()))
	displayGrid(out, r.Grid())
}
