package request

import "VectorOps/internal/modules/ai/domain/entity"

// IngestTextRequest 也接受 text/plain 原始 body
type IngestTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // 来源标记，默认 ingest-text
}

type IngestDocumentRequest struct {
	Text     string         `json:"text"`
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type IngestItemsRequest struct {
	Items []entity.IngestItem `json:"items" binding:"required"`
}

// SearchRequest POST 检索；GET 走 query 参数 q / k
type SearchRequest struct {
	Query string `json:"query" form:"q"`
	K     int    `json:"k" form:"k"`
}

type CompareRequest struct {
	Query string `form:"q"`
	K     int    `form:"k"`
}
