package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/knightstour/game/board"
	"github.com/wricardo/mcp-training/knightstour/game/engine"
	"github.com/wricardo/mcp-training/knightstour/game/service"
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
		baseURL: strings.TrimSuffix(baseURL, "/"),
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
		"Knight's Tour",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Knight's Tour - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Move a chess knight so that it lands on every square of the board exactly once.

AVAILABLE TOOLS:
- create_session: Create a new game (optional config_id and board size 5-13)
- list_sessions / get_session: Inspect sessions
- game_state: Current board, knight position, legal moves and clock
- select_square: Place the knight (first move) or jump to a square - requires intent
- bulk_select: Several squares in order, stops at the first rejected or run-ending square
- reset_game: Start a new run, optionally on a different board size
- move_history: Selections of the current run
- records: Completed tours and best times
- list_configs: Available presets
- game_instructions: Full rules and strategy hints
- describe_square: Visited state, legality and onward move count for one square

Coordinates are zero-based (row, col) with (0,0) in the top-left corner.

NOTE: The 'intent' parameter on select_square/bulk_select serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperty(axis string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": fmt.Sprintf("Zero-based %s", axis),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config and board size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, see list_configs (optional)",
				},
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "Board size between 5 and 13, overrides the preset (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_square",
		Description: "Select a square: places the knight on the first move, jumps there afterwards",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordinateProperty("row"),
				"col":        coordinateProperty("column"),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this square (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before selecting",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleSelectSquare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_select",
		Description: "Select several squares in order. Stops at the first rejected or run-ending square.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"squares": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row": map[string]interface{}{"type": "integer"},
							"col": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"row", "col"},
					},
					"description": "Squares as {row, col} objects",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the plan behind this sequence (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before selecting",
				},
			},
			Required: []string{"session_id", "squares"},
		},
	}, c.handleBulkSelect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new run, keeping or changing the board size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "New board size between 5 and 13; omit to keep the current size",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the selections made in the current run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "records",
		Description: "List completed tours from every session with the best time per board size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRecords)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_square",
		Description: "Describe one square: visited or not, whether the knight can jump there now, and how many onward moves it would leave. Useful for applying Warnsdorff's rule.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordinateProperty("row"),
				"col":        coordinateProperty("column"),
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeSquare)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

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

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Argument helpers. JSON numbers arrive as float64.

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

func requireSquare(args map[string]interface{}) (board.Coordinate, *mcp.CallToolResult) {
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return board.Coordinate{}, mcp.NewToolResultError("row and col are required integers")
	}
	return board.Coordinate{Row: row, Col: col}, nil
}

// parseSquares accepts {row, col} objects or [row, col] pairs
func parseSquares(raw []interface{}) ([]board.Coordinate, error) {
	squares := make([]board.Coordinate, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case map[string]interface{}:
			sq, errResult := requireSquare(v)
			if errResult != nil {
				return nil, fmt.Errorf("square %d: row and col are required", i+1)
			}
			squares = append(squares, sq)
		case []interface{}:
			if len(v) != 2 {
				return nil, fmt.Errorf("square %d: expected [row, col]", i+1)
			}
			row, okRow := intArg(map[string]interface{}{"v": v[0]}, "v")
			col, okCol := intArg(map[string]interface{}{"v": v[1]}, "v")
			if !okRow || !okCol {
				return nil, fmt.Errorf("square %d: row and col must be integers", i+1)
			}
			squares = append(squares, board.Coordinate{Row: row, Col: col})
		default:
			return nil, fmt.Errorf("square %d: unsupported format", i+1)
		}
	}
	return squares, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if size, ok := intArg(args, "size"); ok && size != 0 {
		body["size"] = size
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatSessionInfo(&session))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		size, phase, progress := 0, engine.Phase("unknown"), ""
		if s.GameState != nil {
			size = s.GameState.Size
			phase = s.GameState.Phase
			progress = fmt.Sprintf(", %d/%d visited", s.GameState.VisitedCount, s.GameState.TotalSquares)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, %dx%d, %s%s, Created: %s)\n",
			s.ID, s.ConfigName, size, size, phase, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSelectSquare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	square, errResult := requireSquare(args)
	if errResult != nil {
		return errResult, nil
	}
	reset, _ := args["reset"].(bool)

	// intent is for the caller's benefit only

	body := map[string]interface{}{
		"row":   square.Row,
		"col":   square.Col,
		"reset": reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	raw, _ := args["squares"].([]interface{})
	squares, err := parseSquares(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"squares": squares,
		"reset":   reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-select"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	var body interface{}
	if size, ok := intArg(args, "size"); ok && size != 0 {
		body = map[string]int{"size": size}
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var records service.RecordsResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/records"), nil, &records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRecords(&records)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		reset := "off"
		if config.AutoResetMs > 0 {
			reset = fmt.Sprintf("%dms", config.AutoResetMs)
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Auto-reset: %s\n\n",
			config.Name, config.ConfigID, config.Description, config.BoardSize, config.BoardSize, reset)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `♞ Knight's Tour - Complete Instructions

GAME OBJECTIVE:
Land the knight on every square of the board exactly once. The board is n×n
with n between 5 and 13 (default 5). Row and column indices start at 0 in the
top-left corner.

GAME MECHANICS:
• First move: select any square. The knight is placed there and the clock starts.
• Later moves: select a square one knight jump away, (±1,±2) or (±2,±1).
• Visited squares stay visited for the rest of the run.
• The clock shows whole seconds since the first move.

OUTCOMES OF A SELECTION:
• started / moved      - accepted, the knight is on the new square
• illegal_move         - not a knight jump from the current square; nothing changes, try again
• invalid_intent       - coordinates off the board; nothing changes
• already_visited      - the square was visited earlier; the run FAILS
• dead_end             - the knight landed but has no unvisited square to jump to; the run FAILS
• completed            - every square visited; the run SUCCEEDS and the time is recorded
• ignored              - the run is already over; reset to play again

GRID LEGEND (game_state and describe output):
  N  knight
  x  visited
  *  legal destination from the knight
  .  unvisited, not reachable this move

AFTER A RUN ENDS:
A failed run resets itself after the preset's auto-reset delay (usually 1 second).
Use reset_game (optionally with a new size) or pass reset=true to select_square.

STRATEGY (Warnsdorff's rule):
• Always jump to the legal square with the FEWEST onward moves.
• describe_square reports the onward move count for any square.
• Corners and edges have few onward moves; visit them early, before they get cut off.
• Break ties by preferring squares closer to the edge.

MOVEMENT COMMANDS:
• select_square {session_id, row, col, intent}
• bulk_select {session_id, squares: [{row, col}, ...], intent}
  bulk_select stops at the first rejected or run-ending square and reports where.

VICTORY CONDITIONS:
All n×n squares visited. The run is added to records with its elapsed time.
5×5 tours must start on a square whose (row + col) is even.

Good luck on your tour! ♞`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeSquare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	square, errResult := requireSquare(args)
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeSquare(&state, square)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// describeSquare explains one square relative to the given state
func describeSquare(state *engine.GameState, square board.Coordinate) (string, error) {
	b, err := board.FromGrid(state.Visited)
	if err != nil {
		return "", fmt.Errorf("cannot read board: %w", err)
	}
	if !b.InBounds(square) {
		return "", fmt.Errorf("square %s is out of bounds. Board is %dx%d (0-%d for row and col)",
			square, b.Size(), b.Size(), b.Size()-1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Square %s on %dx%d board\n", square, b.Size(), b.Size())

	isKnight := state.Knight != nil && *state.Knight == square
	switch {
	case isKnight:
		sb.WriteString("Status: knight is here\n")
	case b.IsVisited(square):
		sb.WriteString("Status: visited (selecting it ends the run)\n")
	default:
		sb.WriteString("Status: unvisited\n")
	}

	switch {
	case state.Phase.Terminal():
		fmt.Fprintf(&sb, "Selectable: no, run is over (%s)\n", state.Phase)
	case state.Knight == nil:
		sb.WriteString("Selectable: yes, any square can start the tour\n")
	case board.IsLegalMove(state.Knight, square, b):
		sb.WriteString("Selectable: yes, one knight jump away\n")
	case isKnight:
		sb.WriteString("Selectable: no\n")
	default:
		sb.WriteString("Selectable: no, not a knight jump from the current square\n")
	}

	// Onward moves as if the knight stood on the square
	onward := board.LegalMoves(&square, b)
	fmt.Fprintf(&sb, "Onward moves from here: %d", len(onward))
	if len(onward) > 0 {
		names := make([]string, len(onward))
		for i, c := range onward {
			names[i] = c.String()
		}
		fmt.Fprintf(&sb, " %s", strings.Join(names, " "))
	}
	sb.WriteString("\n")

	if len(onward) == 0 && b.VisitedCount() < b.Squares()-1 && !b.IsVisited(square) {
		sb.WriteString("Warning: landing here would be a dead end\n")
	}

	return sb.String(), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	knight := "not placed"
	if state.Knight != nil {
		knight = state.Knight.String()
	}
	fmt.Fprintf(&result, "Board: %dx%d | Knight: %s | Visited: %d/%d | Time: %s | Phase: %s\n\n",
		state.Size, state.Size, knight, state.VisitedCount, state.TotalSquares, state.Elapsed, state.Phase)

	for _, row := range engine.RenderBoard(state) {
		result.WriteString(row)
		result.WriteString("\n")
	}

	if len(state.LegalMoves) > 0 {
		moves := make([]string, len(state.LegalMoves))
		for i, c := range state.LegalMoves {
			moves[i] = c.String()
		}
		fmt.Fprintf(&result, "\nLegal moves: %s\n", strings.Join(moves, " "))
	}

	switch state.Phase {
	case engine.PhaseSucceeded:
		fmt.Fprintf(&result, "\n🎉 TOUR COMPLETE in %s!", state.Elapsed)
	case engine.PhaseFailed:
		fmt.Fprintf(&result, "\n💀 RUN FAILED (%s)", state.FailureReason)
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move accepted\n")
	} else {
		b.WriteString("✗ Move rejected\n")
	}

	if sel := result.Selection; sel != nil {
		from := "-"
		if sel.From != nil {
			from = sel.From.String()
		}
		fmt.Fprintf(&b, "Step: %s→%s outcome=%s phase=%s\n", from, sel.Square, sel.Outcome, sel.Phase)
		if sel.Record != nil {
			fmt.Fprintf(&b, "Recorded run %s: %dx%d in %s\n",
				sel.Record.RunID, sel.Record.Size, sel.Record.Size, engine.FormatElapsed(sel.Record.ElapsedSeconds))
		}
	}

	if result.AutoResetIn > 0 {
		fmt.Fprintf(&b, "Auto-reset in %dms\n", result.AutoResetIn)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	size := 0
	configName := ""
	if result.GameState != nil {
		size = result.GameState.Size
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Board: %dx%d\n", sessionID, configName, size, size)

	fmt.Fprintf(&b, "Executed %d/%d selections (%d accepted)\n",
		result.MovesExecuted, result.RequestedMoves, result.MovesAccepted)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d squares\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on #%d (%s): %s\n", result.StoppedOnMove, result.StopReasonCode, result.StoppedReason)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i, s := range result.Steps {
			mark := "✓"
			if !s.Accepted {
				mark = "✗"
			}
			fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, s.Square, s.Outcome, mark)
		}
	}

	if result.AutoResetIn > 0 {
		fmt.Fprintf(&b, "\nAuto-reset in %dms\n", result.AutoResetIn)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), current run: %d selections\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no selections in the current run)\n")
		return b.String()
	}

	for _, move := range history.Moves {
		status := "✓"
		if !move.Accepted {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s %s [%s]\n",
			move.MoveNumber, move.Square, move.Outcome, status, engine.FormatElapsed(move.ElapsedSeconds))
	}

	return b.String()
}

func formatRecords(records *service.RecordsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Completed tours: %d\n", records.Total)
	if records.Total == 0 {
		return b.String()
	}

	b.WriteString("\nBest by size:\n")
	for size := engine.MinBoardSize; size <= engine.MaxBoardSize; size++ {
		if best, ok := records.Best[size]; ok {
			fmt.Fprintf(&b, "- %dx%d: %s\n", size, size, engine.FormatElapsed(best.ElapsedSeconds))
		}
	}

	b.WriteString("\nAll runs:\n")
	for i, r := range records.Records {
		fmt.Fprintf(&b, "%d. %dx%d in %s (%s", i+1, r.Size, r.Size,
			engine.FormatElapsed(r.ElapsedSeconds), r.CompletedAt.Format("2006-01-02 15:04:05"))
		if r.SessionID != "" {
			fmt.Fprintf(&b, ", session %s", r.SessionID)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
