// Package validate checks board layout files and reports on them. It checks:
//   - the file decodes as a JSON or HCL layout
//   - every square spec converts to a board square
//   - square and group counts fit the board bounds
//   - group references name area squares on the board
//   - the layout builds into a board
//
// Valid layouts also get informational lines (counts, clamp mode and any
// areas no group holds).
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
)

// Result captures the outcome of validating a single file. Errors holds the
// problems found; Info holds the summary lines of a valid layout.
type Result struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single layout file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	l, err := layout.Parse(data, path)
	if err != nil {
		result.fail("Invalid layout document: %v", err)
		return result
	}

	return Layout(result.File, l)
}

// Layout validates a decoded layout, reporting every square problem rather
// than stopping at the first
func Layout(name string, l *layout.Layout) Result {
	result := Result{File: name, Valid: true}

	for i, spec := range l.Squares {
		if _, err := spec.ToSquare(); err != nil {
			result.fail("Square %d: %v", i, err)
		}
	}
	if !result.Valid {
		return result
	}

	if err := layout.ValidateLayout(l); err != nil {
		result.fail("%v", err)
		return result
	}

	b, err := l.Build()
	if err != nil {
		result.fail("Failed to build board: %v", err)
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", l.Name),
		fmt.Sprintf("✓ Squares: %d", b.Size()),
		fmt.Sprintf("✓ Groups: %d", b.GroupCount()),
		fmt.Sprintf("✓ Clamp: %s", b.ClampMode()),
	)
	if ungrouped := UngroupedAreas(b); len(ungrouped) > 0 {
		result.Info = append(result.Info, fmt.Sprintf("! Ungrouped areas: %s", strings.Join(ungrouped, ", ")))
	}

	return result
}

// Dir validates every layout file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.hcl"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find layout files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// UngroupedAreas returns the IDs of areas that belong to no group
func UngroupedAreas(b *board.Board) []string {
	var ids []string
	for _, sq := range b.Squares() {
		area, ok := board.AsArea(sq)
		if !ok {
			continue
		}
		if g, err := b.GroupOf(area); err == nil && g == nil {
			ids = append(ids, sq.ID())
		}
	}
	return ids
}

// Report prints results to w and reports whether every layout was valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No layout files found")
	case allValid:
		fmt.Fprintln(w, "✅ All layouts are valid!")
	default:
		fmt.Fprintln(w, "❌ Some layouts have errors")
	}
	return allValid
}
