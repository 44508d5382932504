package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// errorKindKey is the structured-content key carrying tool.Result.ErrorKind.
const errorKindKey = "error_kind"

// registerTools registers one MCP tool per catalog entry.
func (s *Server) registerTools() {
	specs := tool.Catalog()
	tools := make([]mcpserver.ServerTool, 0, len(specs))
	for i := range specs {
		tools = append(tools, mcpserver.ServerTool{
			Tool:    toolDefinition(&specs[i]),
			Handler: s.handler(specs[i]),
		})
	}
	s.mcpServer.AddTools(tools...)
}

// toolDefinition derives the MCP input schema from a catalog spec.
func toolDefinition(spec *tool.Spec) mcplib.Tool {
	opts := []mcplib.ToolOption{mcplib.WithDescription(spec.Description)}
	for _, a := range spec.Args {
		props := []mcplib.PropertyOption{mcplib.Required(), mcplib.Description(a.Description)}
		switch a.Type {
		case tool.ArgNumber:
			opts = append(opts, mcplib.WithNumber(a.Name, props...))
		case tool.ArgEnum:
			props = append(props, mcplib.Enum(a.Enum...))
			opts = append(opts, mcplib.WithString(a.Name, props...))
		default:
			if a.Format == tool.FormatStateCode {
				props = append(props, mcplib.Pattern("^[A-Za-z]{2}$"))
			}
			opts = append(opts, mcplib.WithString(a.Name, props...))
		}
	}
	if spec.Sensitivity == tool.Dangerous {
		opts = append(opts, mcplib.WithDestructiveHintAnnotation(true))
	} else {
		opts = append(opts, mcplib.WithReadOnlyHintAnnotation(true))
	}
	return mcplib.NewTool(spec.Name, opts...)
}

// handler validates arguments against the tool schema before running it.
// Tool-level failures travel as error results, never as protocol errors.
func (s *Server) handler(spec tool.Spec) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		ctx, span := cfotel.StartToolServeSpan(ctx, spec.Name)
		defer span.End()

		args := req.GetArguments()
		if err := spec.Validate(args); err != nil {
			return errorResult(tool.Failure(tool.ErrorKindTool, err.Error())), nil
		}
		if s.exec == nil {
			return errorResult(tool.Failure(tool.ErrorKindTool, "tool implementations not configured")), nil
		}

		res := s.exec.Execute(ctx, tool.NewCall(spec.Name, args))
		if !res.OK {
			return errorResult(res), nil
		}
		return mcplib.NewToolResultText(res.Payload), nil
	}
}

func errorResult(res tool.Result) *mcplib.CallToolResult {
	out := mcplib.NewToolResultError(res.Error)
	out.StructuredContent = map[string]any{errorKindKey: res.ErrorKind}
	return out
}
