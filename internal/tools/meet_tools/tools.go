package meet_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/server"
	"github.com/teemow/meetlink/internal/tools/common"
)

// CreateSpaceTool is the name of the space creation tool.
const CreateSpaceTool = "meet_create_space"

type createSpaceResult struct {
	MeetURL     string `json:"meetUrl"`
	Name        string `json:"name,omitempty"`
	MeetingCode string `json:"meetingCode,omitempty"`
}

// RegisterMeetTools registers all Meet-related tools with the MCP server
func RegisterMeetTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createSpaceTool := mcp.NewTool(CreateSpaceTool,
		mcp.WithDescription("Create a new Google Meet space and return its join URL. Every call creates a distinct space."),
	)

	s.AddTool(createSpaceTool, common.InstrumentedToolHandler(CreateSpaceTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateSpace(ctx, request, sc)
		}))
}

func handleCreateSpace(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	space, err := sc.CreateMeeting(ctx)
	if err != nil {
		sc.Logger().Error("Error creating Meet URL",
			logging.Tool(CreateSpaceTool),
			logging.Strategy(string(sc.Resolver().Strategy())),
			logging.Err(err),
		)
		return mcp.NewToolResultError(server.CreateMeetFailure), nil
	}

	data, err := json.MarshalIndent(createSpaceResult{
		MeetURL:     space.MeetingURI,
		Name:        space.Name,
		MeetingCode: space.MeetingCode,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
