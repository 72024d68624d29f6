package respond

import "VectorOps/internal/modules/ai/domain/entity"

type IngestRespond struct {
	Ingested int      `json:"ingested"`
	IDs      []string `json:"ids"`
	Dropped  int      `json:"dropped,omitempty"`
}

// AsyncIngestRespond 请求已投递到队列
type AsyncIngestRespond struct {
	RequestID  string `json:"request_id"`
	Collection string `json:"collection"`
}

type DocumentRespond struct {
	ID string `json:"id"`
}

// AnswerRespond llm_answer 为 null 时 llm_error 给出原因
type AnswerRespond struct {
	SearchResults []entity.SearchResult `json:"search_results"`
	LLMAnswer     *string               `json:"llm_answer"`
	LLMError      string                `json:"llm_error,omitempty"`
}

type CompareRespond struct {
	CollectionA string                `json:"collection_a"`
	CollectionB string                `json:"collection_b"`
	Query       string                `json:"query"`
	Comparison  string                `json:"comparison"`
	ASources    []entity.SearchResult `json:"a_sources"`
	BSources    []entity.SearchResult `json:"b_sources"`
}

type CollectionsRespond struct {
	Engine      string   `json:"engine"`
	Default     string   `json:"default"`
	Collections []string `json:"collections"`
	// Subscribers 当前连接的写入事件订阅者数量
	Subscribers int `json:"subscribers"`
}
