// Package layout provides board layout management for the Solaropoly game.
//
// The layout package handles:
//   - Loading board layouts from JSON and HCL files
//   - Layout validation against the board rules
//   - Default layout selection
//   - Layout discovery and listing
//
// Layout Format:
//
// Layouts are stored in the layouts directory, one file per layout. The file
// name without extension is the layout ID. A layout lists its squares in
// board order (the first one is the start square) and its groups by the IDs
// of their areas.
//
// JSON:
//
//	{
//	  "name": "Solar System",
//	  "description": "Eight planets around the sun",
//	  "squares": [{"id": "go", "name": "GO", "kind": "start"}, ...],
//	  "groups": [{"name": "inner", "areas": ["mercury", "venus"]}, ...]
//	}
//
// HCL files use square and group blocks. The variables kind.start, kind.area
// and kind.special, the bounds object and the upper, lower and format
// functions are available in expressions.
//
// Usage:
//
//	manager, err := layout.NewManager("layouts", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	l, err := manager.LoadLayout("solar")
//	b, err := l.Build(board.WithLogger(logger))
package layout
