package layout

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
)

// hclRoot mirrors the top level of an .hcl layout file:
//
//	name        = "Solar System"
//	description = "..."
//
//	square "go" {
//	  name = "GO"
//	  kind = kind.start
//	}
//
//	group "inner" {
//	  areas = ["mercury", "venus"]
//	}
type hclRoot struct {
	Name        string      `hcl:"name"`
	Description string      `hcl:"description"`
	Clamp       *string     `hcl:"clamp"`
	Squares     []hclSquare `hcl:"square,block"`
	Groups      []hclGroup  `hcl:"group,block"`
}

type hclSquare struct {
	ID    string  `hcl:"id,label"`
	Name  *string `hcl:"name"`
	Kind  *string `hcl:"kind"`
	Price *int    `hcl:"price"`
	Rent  *int    `hcl:"rent"`
}

type hclGroup struct {
	Name  string   `hcl:"name,label"`
	Areas []string `hcl:"areas"`
}

// evalContext exposes the square kinds and board bounds to layout files
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"kind": cty.ObjectVal(map[string]cty.Value{
				"start":   cty.StringVal(string(board.KindStart)),
				"area":    cty.StringVal(string(board.KindArea)),
				"special": cty.StringVal(string(board.KindSpecial)),
			}),
			"bounds": cty.ObjectVal(map[string]cty.Value{
				"min_squares": cty.NumberIntVal(board.MinSquares),
				"max_squares": cty.NumberIntVal(board.MaxSquares),
				"min_groups":  cty.NumberIntVal(board.MinGroups),
				"max_groups":  cty.NumberIntVal(board.MaxGroups),
			}),
		},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
		},
	}
}

// parseHCL decodes an HCL layout document
func parseHCL(data []byte, filename string) (*Layout, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL layout %s: %w", filename, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL layout %s: %w", filename, diags)
	}

	l := &Layout{
		Name:        root.Name,
		Description: root.Description,
	}
	if root.Clamp != nil {
		l.Clamp = *root.Clamp
	}
	for _, sq := range root.Squares {
		spec := SquareSpec{ID: sq.ID}
		if sq.Name != nil {
			spec.Name = *sq.Name
		}
		if sq.Kind != nil {
			spec.Kind = *sq.Kind
		}
		if sq.Price != nil {
			spec.Price = *sq.Price
		}
		if sq.Rent != nil {
			spec.Rent = *sq.Rent
		}
		l.Squares = append(l.Squares, spec)
	}
	for _, g := range root.Groups {
		l.Groups = append(l.Groups, GroupSpec{Name: g.Name, Areas: g.Areas})
	}

	return l, nil
}
