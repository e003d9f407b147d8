// Command analyze prints quick, human-readable heuristics about the board
// layouts in the project's layouts directory. It summarizes square kinds,
// group sizes and prices, lists areas no group holds, and estimates which
// squares are landed on most when every turn rolls two six-sided dice.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/validate"
)

// SquareOdds is the chance of finishing a turn on a square
type SquareOdds struct {
	Index int
	ID    string
	Odds  float64
}

// GroupStats summarizes one group of a board
type GroupStats struct {
	Name       string
	Areas      int
	TotalPrice int
	TotalRent  int
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Print heuristics about board layouts",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "layout-dir", Value: "layouts", Usage: "Directory containing board layouts", Sources: cli.EnvVars("LAYOUT_DIR")},
			&cli.IntFlag{Name: "turns", Value: 40, Usage: "Turns to simulate when estimating landing odds"},
			&cli.IntFlag{Name: "top", Value: 5, Usage: "Number of most landed squares to show"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				for _, pattern := range []string{"*.json", "*.hcl"} {
					matches, err := filepath.Glob(filepath.Join(cmd.String("layout-dir"), pattern))
					if err != nil {
						return err
					}
					files = append(files, matches...)
				}
				sort.Strings(files)
			}

			for _, file := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
				analyzeFile(os.Stdout, file, int(cmd.Int("turns")), int(cmd.Int("top")))
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeFile(w io.Writer, path string, turns, top int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error reading file: %v\n", err)
		return
	}

	l, err := layout.Parse(data, path)
	if err != nil {
		fmt.Fprintf(w, "Error parsing layout: %v\n", err)
		return
	}

	b, err := l.Build()
	if err != nil {
		fmt.Fprintf(w, "Error building board: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", l.Name)
	fmt.Fprintf(w, "Squares: %d (clamp: %s)\n", b.Size(), b.ClampMode())

	kinds := countKinds(b)
	fmt.Fprintf(w, "Kinds: %d start, %d area, %d special\n",
		kinds[board.KindStart], kinds[board.KindArea], kinds[board.KindSpecial])

	for _, g := range groupStats(b) {
		fmt.Fprintf(w, "Group %-12s %d areas, price %d, rent %d\n", g.Name, g.Areas, g.TotalPrice, g.TotalRent)
	}

	if ungrouped := validate.UngroupedAreas(b); len(ungrouped) > 0 {
		fmt.Fprintf(w, "⚠️  Ungrouped areas: %s\n", strings.Join(ungrouped, ", "))
	} else {
		fmt.Fprintf(w, "✅ Every area belongs to a group\n")
	}

	odds, err := landingOdds(b, turns)
	if err != nil {
		fmt.Fprintf(w, "Error estimating landing odds: %v\n", err)
		return
	}
	sort.SliceStable(odds, func(i, j int) bool { return odds[i].Odds > odds[j].Odds })
	if top > len(odds) {
		top = len(odds)
	}
	fmt.Fprintf(w, "Most landed squares after %d turns:\n", turns)
	for _, o := range odds[:top] {
		fmt.Fprintf(w, "   %2d %-16s %5.2f%%\n", o.Index, o.ID, o.Odds*100)
	}
}

func countKinds(b *board.Board) map[board.Kind]int {
	kinds := make(map[board.Kind]int)
	for _, sq := range b.Squares() {
		kinds[sq.Kind()]++
	}
	return kinds
}

func groupStats(b *board.Board) []GroupStats {
	var stats []GroupStats
	for _, g := range b.Groups() {
		s := GroupStats{Name: g.Name(), Areas: g.Len()}
		for _, a := range g.Areas() {
			s.TotalPrice += a.Area().Price
			s.TotalRent += a.Area().Rent
		}
		stats = append(stats, s)
	}
	return stats
}

// diceOdds is the distribution of the sum of two six-sided dice, indexed by roll
func diceOdds() []float64 {
	odds := make([]float64, 13)
	for a := 1; a <= 6; a++ {
		for b := 1; b <= 6; b++ {
			odds[a+b] += 1.0 / 36
		}
	}
	return odds
}

// landingOdds averages, over the given number of turns starting from GO, the
// chance of ending each turn on each square
func landingOdds(b *board.Board, turns int) ([]SquareOdds, error) {
	size := b.Size()
	if size == 0 {
		return nil, board.ErrEmptyBoard
	}

	// next[i][roll] is where a roll from square i lands
	dice := diceOdds()
	next := make([][]int, size)
	for i := range next {
		next[i] = make([]int, len(dice))
		for roll := 2; roll < len(dice); roll++ {
			pos, err := b.ResolvePosition(i, roll)
			if err != nil {
				return nil, err
			}
			next[i][roll] = pos.Index
		}
	}

	current := make([]float64, size)
	current[0] = 1
	total := make([]float64, size)
	for t := 0; t < turns; t++ {
		step := make([]float64, size)
		for i, p := range current {
			if p == 0 {
				continue
			}
			for roll := 2; roll < len(dice); roll++ {
				step[next[i][roll]] += p * dice[roll]
			}
		}
		for i := range step {
			total[i] += step[i]
		}
		current = step
	}

	odds := make([]SquareOdds, size)
	for i, sq := range b.Squares() {
		odds[i] = SquareOdds{Index: i, ID: sq.ID()}
		if turns > 0 {
			odds[i].Odds = total[i] / float64(turns)
		}
	}
	return odds, nil
}
