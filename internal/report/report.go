// Package report renders optimization results and correlation trees for
// the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"portopt/internal/graph"
	"portopt/internal/optimize"
	"portopt/internal/stats"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4db6ac"))
)

// weightBarWidth is the width of the allocation bar next to each weight.
const weightBarWidth = 24

// Allocation renders the optimum as a per-asset weight table with bars,
// sorted by descending weight.
func Allocation(symbols []string, res *optimize.Result, objective string) string {
	type row struct {
		symbol string
		weight float64
	}
	rows := make([]row, len(symbols))
	for i, s := range symbols {
		rows[i] = row{symbol: s, weight: res.Weights[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].weight > rows[j].weight })

	var b strings.Builder
	b.WriteString(titleStyle.Render("Optimal allocation") + "\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %8s  %s", "ASSET", "WEIGHT", "")) + "\n")
	for _, r := range rows {
		bar := strings.Repeat("█", int(r.weight*weightBarWidth+0.5))
		b.WriteString(fmt.Sprintf("%-8s %7.2f%%  %s\n", r.symbol, r.weight*100, barStyle.Render(bar)))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf(
		"objective=%s score=%.6f candidates=%d elapsed=%s",
		objective, res.Score, res.Evaluated, res.Elapsed.Round(time.Millisecond))) + "\n")
	if len(res.Ties) > 1 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d allocations tie at the optimum; showing the first", len(res.Ties))) + "\n")
	}
	return b.String()
}

// Performance renders the annualized moments of an allocation given its
// daily mean return and daily volatility.
func Performance(dailyReturn, dailyVol float64) string {
	return mutedStyle.Render(fmt.Sprintf(
		"annualized return %.2f%%, volatility %.2f%%",
		stats.AnnualizeReturn(dailyReturn)*100,
		stats.AnnualizeVolatility(dailyVol)*100)) + "\n"
}

// Annealed renders an annealing result with its acceptance statistics.
func Annealed(symbols []string, res *optimize.AnnealResult, objective string) string {
	var b strings.Builder
	b.WriteString(Allocation(symbols, &res.Result, objective))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(
		"annealing: accepted %d of %d proposals", res.Accepted, res.Steps)) + "\n")
	return b.String()
}

// Comparison summarizes an annealed result against the exhaustive optimum.
func Comparison(annealed *optimize.AnnealResult, exact *optimize.Result) string {
	gap := exact.Score - annealed.Score
	verdict := "annealing found the global optimum"
	if gap > 0 {
		verdict = fmt.Sprintf("annealing fell short of the optimum by %.6f", gap)
	}
	return mutedStyle.Render(fmt.Sprintf(
		"exhaustive optimum %.6f over %d candidates; %s",
		exact.Score, exact.Evaluated, verdict)) + "\n"
}

// Tree renders MST edges in ascending weight order.
func Tree(edges []graph.Edge, algo string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Minimum spanning tree") + mutedStyle.Render(" ("+algo+")") + "\n")
	for _, e := range edges {
		b.WriteString(fmt.Sprintf("%-6s - %-6s %8.4f\n", e.U, e.V, e.Weight))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("total weight %.4f over %d edges", graph.TotalWeight(edges), len(edges))) + "\n")
	return b.String()
}
