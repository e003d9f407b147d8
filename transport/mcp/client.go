package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Solaropoly Board",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Solaropoly Board - MCP Interface

This is a thin client that proxies all requests to the REST API server.

BOARD MODEL:
A board is a loop of 6 to 20 squares. Square 0 is GO. Areas can be bundled
into 2 to 4 groups. Moving past the last square wraps to GO and counts a lap.

AVAILABLE TOOLS:
- list_layouts: List board layouts that boards can be created from
- create_board: Create a board from a layout
- get_board: Show every square and group of a board
- list_boards: List all live boards
- append_squares: Add squares to the end of a board
- append_groups: Add groups of existing areas to a board
- resolve_position: Walk a number of steps from a start index
- position_of: Find the index of a square
- group_of: Find the group holding a square`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	boardID := map[string]interface{}{
		"type":        "string",
		"description": "Board ID",
	}
	squareID := map[string]interface{}{
		"type":        "string",
		"description": "Square ID (for example \"venus\")",
	}

	// Layouts
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layouts",
		Description: "List available board layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLayouts)

	// Board management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_board",
		Description: "Create a new board from a layout (the default layout when none is given)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the layout to use (optional)",
				},
			},
		},
	}, c.handleCreateBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_board",
		Description: "Get the squares and groups of a board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"board_id": boardID},
			Required:   []string{"board_id"},
		},
	}, c.handleGetBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List all live boards",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)

	// Board mutation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "append_squares",
		Description: "Append squares to the end of a board. Boards hold at most 20 squares; extra squares are dropped.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_id": boardID,
				"squares": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"id":    map[string]interface{}{"type": "string"},
							"name":  map[string]interface{}{"type": "string"},
							"kind":  map[string]interface{}{"type": "string", "enum": []string{"start", "area", "special"}},
							"price": map[string]interface{}{"type": "integer"},
							"rent":  map[string]interface{}{"type": "integer"},
						},
						"required": []string{"id"},
					},
					"description": "Squares to append, in board order",
				},
			},
			Required: []string{"board_id", "squares"},
		},
	}, c.handleAppendSquares)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "append_groups",
		Description: "Append groups to a board. Every member must be an area already on the board; boards hold 2 to 4 groups.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_id": boardID,
				"groups": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name":  map[string]interface{}{"type": "string"},
							"areas": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						},
						"required": []string{"name", "areas"},
					},
					"description": "Groups to append",
				},
			},
			Required: []string{"board_id", "groups"},
		},
	}, c.handleAppendGroups)

	// Board queries
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resolve_position",
		Description: "Walk a number of steps from a start index and report the square landed on and the laps completed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_id": boardID,
				"start": map[string]interface{}{
					"type":        "integer",
					"description": "Start index (default 0)",
				},
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "Number of squares to move",
				},
			},
			Required: []string{"board_id", "steps"},
		},
	}, c.handleResolvePosition)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "position_of",
		Description: "Find the index of a square on a board (-1 when absent)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"board_id": boardID, "square_id": squareID},
			Required:   []string{"board_id", "square_id"},
		},
	}, c.handlePositionOf)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "group_of",
		Description: "Find the group holding a square",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"board_id": boardID, "square_id": squareID},
			Required:   []string{"board_id", "square_id"},
		},
	}, c.handleGroupOf)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool Handlers

func (c *Client) handleListLayouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layouts []*service.LayoutInfo
	if err := c.apiCall(ctx, "GET", "/api/layouts", nil, &layouts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(layouts) == 0 {
		return mcp.NewToolResultText("No layouts available"), nil
	}

	var sb strings.Builder
	sb.WriteString("Available layouts:\n")
	for _, l := range layouts {
		sb.WriteString(fmt.Sprintf("- %s: %s (%d squares, %d groups, %s)\n",
			l.LayoutID, l.Name, l.Squares, l.Groups, l.Format))
		if l.Description != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", l.Description))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleCreateBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	layoutID, _ := args["layout_id"].(string)

	body := map[string]string{}
	if layoutID != "" {
		body["layout_id"] = layoutID
	}

	var info service.BoardInfo
	if err := c.apiCall(ctx, "POST", "/api/boards", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created board: %s\n%s", info.ID, formatBoardInfo(&info))), nil
}

func (c *Client) handleGetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}

	var info service.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/boards/"+url.PathEscape(boardID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardInfo(&info)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Count  int                  `json:"count"`
		Boards []*service.BoardInfo `json:"boards"`
	}
	if err := c.apiCall(ctx, "GET", "/api/boards", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Boards) == 0 {
		return mcp.NewToolResultText("No active boards"), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Active boards (%d):\n", len(resp.Boards)))
	for _, b := range resp.Boards {
		sb.WriteString(fmt.Sprintf("- %s: layout=%s %s\n", b.ID, b.LayoutID, b.Summary))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleAppendSquares(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}

	var squares []layout.SquareSpec
	if err := decodeArgument(arguments(request)["squares"], &squares); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid squares: %v", err)), nil
	}

	var info service.BoardInfo
	body := map[string]interface{}{"squares": squares}
	if err := c.apiCall(ctx, "POST", "/api/boards/"+url.PathEscape(boardID)+"/squares", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardInfo(&info)), nil
}

func (c *Client) handleAppendGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}

	var groups []layout.GroupSpec
	if err := decodeArgument(arguments(request)["groups"], &groups); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid groups: %v", err)), nil
	}

	var info service.BoardInfo
	body := map[string]interface{}{"groups": groups}
	if err := c.apiCall(ctx, "POST", "/api/boards/"+url.PathEscape(boardID)+"/groups", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardInfo(&info)), nil
}

func (c *Client) handleResolvePosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}

	args := arguments(request)
	steps, ok := intArgument(args["steps"])
	if !ok {
		return mcp.NewToolResultError("steps must be an integer"), nil
	}
	start := 0
	if raw, present := args["start"]; present {
		if start, ok = intArgument(raw); !ok {
			return mcp.NewToolResultError("start must be an integer"), nil
		}
	}

	var result service.PositionResult
	body := map[string]int{"start": start, "steps": steps}
	if err := c.apiCall(ctx, "POST", "/api/boards/"+url.PathEscape(boardID)+"/resolve", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPosition(&result)), nil
}

func (c *Client) handlePositionOf(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}
	squareID, errResult := requireString(request, "square_id")
	if errResult != nil {
		return errResult, nil
	}

	var result service.PositionOfResult
	path := fmt.Sprintf("/api/boards/%s/squares/%s/position", url.PathEscape(boardID), url.PathEscape(squareID))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Found {
		return mcp.NewToolResultText(fmt.Sprintf("Square %s is not on board %s (index -1)", squareID, boardID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Square %s is at index %d", squareID, result.Index)), nil
}

func (c *Client) handleGroupOf(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, errResult := requireString(request, "board_id")
	if errResult != nil {
		return errResult, nil
	}
	squareID, errResult := requireString(request, "square_id")
	if errResult != nil {
		return errResult, nil
	}

	var result service.GroupOfResult
	path := fmt.Sprintf("/api/boards/%s/squares/%s/group", url.PathEscape(boardID), url.PathEscape(squareID))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Found || result.Group == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Square %s is not in any group", squareID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Square %s is in group %s (%s)",
		squareID, result.Group.Name, strings.Join(result.Group.Areas, ", "))), nil
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requireString(request mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	value, _ := arguments(request)[key].(string)
	if value == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s is required", key))
	}
	return value, nil
}

// intArgument accepts the number shapes JSON decoding produces
func intArgument(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

// decodeArgument converts a loosely typed argument into target by a JSON round trip
func decodeArgument(v interface{}, target interface{}) error {
	if v == nil {
		return fmt.Errorf("missing value")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Formatters

func formatBoardInfo(info *service.BoardInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Board %s (layout: %s, clamp: %s)\n", info.ID, info.LayoutID, info.Clamp))
	sb.WriteString(info.Summary + "\n")

	sb.WriteString("Squares:\n")
	for _, sq := range info.Squares {
		sb.WriteString(fmt.Sprintf("  %2d %s", sq.Index, formatSquare(sq)))
		sb.WriteString("\n")
	}

	sb.WriteString("Groups:\n")
	for _, g := range info.Groups {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", g.Name, strings.Join(g.Areas, ", ")))
	}
	return sb.String()
}

func formatSquare(sq service.SquareView) string {
	line := fmt.Sprintf("%s [%s] %s", sq.ID, sq.Kind, sq.Name)
	if sq.Kind == "area" {
		line += fmt.Sprintf(" price=%d rent=%d", sq.Price, sq.Rent)
	}
	if sq.Group != "" {
		line += " group=" + sq.Group
	}
	return line
}

func formatPosition(result *service.PositionResult) string {
	laps := "laps"
	if result.LapsCompleted == 1 {
		laps = "lap"
	}
	return fmt.Sprintf("From %d moving %d: landed on index %d, %s\nCompleted %d %s",
		result.Start, result.Steps, result.Square.Index, formatSquare(result.Square), result.LapsCompleted, laps)
}
