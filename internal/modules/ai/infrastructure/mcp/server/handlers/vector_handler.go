package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/pkg/zlog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// VectorTools 工具调用的服务层
type VectorTools struct {
	Ingest service.IngestService
	Search service.SearchService
}

type VectorToolHandler struct {
	svc        VectorTools
	yearFormat string
}

func NewVectorToolHandler(svc VectorTools, yearFormat string) *VectorToolHandler {
	return &VectorToolHandler{svc: svc, yearFormat: yearFormat}
}

func (h *VectorToolHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search_collection",
		mcp.WithDescription("Semantic search over a document collection. Returns the k most similar documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("collection", mcp.Description("Collection name or a year such as 2023; default collection when omitted")),
		mcp.WithNumber("k", mcp.Description("Number of results (1-50, default 3)")),
	), h.handleSearch)

	s.AddTool(mcp.NewTool("ingest_text",
		mcp.WithDescription("Chunk raw text and store it in a collection. Re-ingesting the same text does not create duplicates."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw text to ingest")),
		mcp.WithString("collection", mcp.Description("Target collection or year")),
		mcp.WithString("source", mcp.Description("Provenance tag stored with each chunk")),
	), h.handleIngestText)

	s.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the collections opened by this server."),
	), h.handleList)
}

func (h *VectorToolHandler) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	query, _ := args["query"].(string)
	collection := service.ScopeToCollection(cast.ToString(args["collection"]), h.yearFormat)
	k := service.DefaultTopK
	if v, ok := args["k"]; ok && v != nil {
		n, err := cast.ToIntE(v)
		if err != nil {
			return mcp.NewToolResultError("k must be a number"), nil
		}
		k = n
	}

	results, err := h.svc.Search.Search(ctx, collection, query, k)
	if err != nil {
		zlog.Warn("mcp search failed", zap.String("collection", collection), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching documents."), nil
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, r.Text)
		if len(r.Metadata) > 0 {
			sb.WriteString("\nmetadata: ")
			sb.Write(mustJSON(r.Metadata))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *VectorToolHandler) handleIngestText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text cannot be empty"), nil
	}
	collection := service.ScopeToCollection(cast.ToString(args["collection"]), h.yearFormat)
	source := cast.ToString(args["source"])

	res, err := h.svc.Ingest.IngestText(ctx, collection, text, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Ingested %d chunks into %s", res.Ingested, res.Collection)), nil
}

func (h *VectorToolHandler) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := h.svc.Search.Collections()
	if len(names) == 0 {
		return mcp.NewToolResultText("No collections opened yet."), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("%v", v))
	}
	return b
}
