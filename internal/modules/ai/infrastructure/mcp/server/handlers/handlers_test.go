package handlers

import (
	"context"
	"testing"

	"VectorOps/pkg/ws"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolRequest(name string, args any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func TestNotifyRequiresArguments(t *testing.T) {
	h := NewNotificationToolHandler(ws.NewHub())

	res, err := h.handleNotify(context.Background(), toolRequest("notify_subscribers", "oops"))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.handleNotify(context.Background(), toolRequest("notify_subscribers", map[string]interface{}{"collection": "reports"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	h := NewNotificationToolHandler(ws.NewHub())
	res, err := h.handleNotify(context.Background(), toolRequest("notify_subscribers", map[string]interface{}{
		"collection": "reports",
		"content":    "rebuild finished",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "No subscribers for reports", resultText(t, res))
}

func TestSearchRejectsBadK(t *testing.T) {
	h := NewVectorToolHandler(VectorTools{}, "macro_report_%s")
	res, err := h.handleSearch(context.Background(), toolRequest("search_collection", map[string]interface{}{
		"query": "x",
		"k":     "many",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "k must be a number", resultText(t, res))
}

func TestIngestTextRejectsBlank(t *testing.T) {
	h := NewVectorToolHandler(VectorTools{}, "macro_report_%s")
	res, err := h.handleIngestText(context.Background(), toolRequest("ingest_text", map[string]interface{}{"text": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
