package mcp_server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	file_contracts "github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"go.uber.org/zap"
)

const (
	ToolSmartChat        = "smart_chat"
	ToolReadProjectFile  = "read_project_file"
	ToolListProjectFiles = "list_project_files"

	defaultListDepth = 2
	maxListDepth     = 32
)

// Server exposes project file access and smart chat as MCP tools.
type Server struct {
	mcpServer  *server.MCPServer
	chat       contracts.ISmartChat
	fileAccess file_contracts.IFileAccess
	logger     *zap.Logger
}

func NewServer(version string, chat contracts.ISmartChat, fileAccess file_contracts.IFileAccess, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcpServer:  server.NewMCPServer("gitai", version, server.WithToolCapabilities(false)),
		chat:       chat,
		fileAccess: fileAccess,
		logger:     logger.Named("mcp"),
	}

	s.mcpServer.AddTool(mcp.NewTool(ToolSmartChat,
		mcp.WithDescription("Answer a question about a local project. Relevant files are selected and read automatically."),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path of the project directory"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Question about the project"),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Conversation to continue; a new one is started when empty"),
		),
	), s.HandleSmartChat)

	s.mcpServer.AddTool(mcp.NewTool(ToolReadProjectFile,
		mcp.WithDescription("Read a text file inside a project directory."),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path of the project directory"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("File path relative to the project directory"),
		),
	), s.HandleReadProjectFile)

	s.mcpServer.AddTool(mcp.NewTool(ToolListProjectFiles,
		mcp.WithDescription("List the supported files of a project as a tree."),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path of the project directory"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description(fmt.Sprintf("Maximum directory depth (default: %d)", defaultListDepth)),
		),
	), s.HandleListProjectFiles)

	return s
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving mcp over stdio")
	return server.ServeStdio(s.mcpServer)
}

func requiredString(args map[string]any, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s parameter is required", name)
	}
	return value, nil
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) HandleSmartChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	projectPath, err := requiredString(args, "project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := requiredString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conversationID, _ := args["conversation_id"].(string)

	result := s.chat.ProcessSmartChat(ctx, conversationID, projectPath, query)
	if result.Error != "" {
		return mcp.NewToolResultError(result.Response), nil
	}
	return jsonResult(result)
}

func (s *Server) HandleReadProjectFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	projectPath, err := requiredString(args, "project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filePath, err := requiredString(args, "file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := s.fileAccess.ReadProjectFile(ctx, projectPath, filePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

// listDepth reads max_depth, clamped to maxListDepth. Missing, negative or non-numeric values
// give the default.
func listDepth(args map[string]any) int {
	depth, ok := args["max_depth"].(float64)
	if !ok || math.IsNaN(depth) || depth < 0 {
		return defaultListDepth
	}
	if depth > maxListDepth {
		return maxListDepth
	}
	return int(depth)
}

func (s *Server) HandleListProjectFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	projectPath, err := requiredString(args, "project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree, err := s.fileAccess.ListProjectFiles(ctx, projectPath, listDepth(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tree)
}
