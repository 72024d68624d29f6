package entity

import (
	"fmt"
	"time"

	"VectorOps/pkg/util"
)

// Metadata 只允许 string / 数值 / bool / nil 作为值，写入前经过 metadata.Sanitize
type Metadata map[string]any

// Document 向量库中的一条记录
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// SearchResult 归一化后的检索结果；Score 由引擎决定含义，只能用于排序
type SearchResult struct {
	ID       string   `json:"id,omitempty"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    *float32 `json:"score,omitempty"`
}

// IngestItem 调用方提交的结构化条目，Metadata 可以是任意值
type IngestItem struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Metadata any    `json:"metadata,omitempty"`
}

// IngestResult 一次写入的结果
type IngestResult struct {
	Collection string   `json:"collection"`
	IDs        []string `json:"ids"`
	Ingested   int      `json:"ingested"`
	Dropped    int      `json:"dropped"`
}

const (
	MetaChunkIndex = "chunk_index"
	MetaSource     = "source"

	DefaultSourceTag = "ingest-text"
)

// DedupeByID 批内重复 id 只保留最后一条，位置取第一次出现处
func DedupeByID(docs []Document) []Document {
	if len(docs) < 2 {
		return docs
	}
	pos := make(map[string]int, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if at, ok := pos[d.ID]; ok {
			out[at] = d
			continue
		}
		pos[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

// ChunkID 由片段序号与内容哈希前 8 位组成，相同内容同一位置得到相同 id
func ChunkID(index int, content string) string {
	return fmt.Sprintf("chunk_%d_%s", index, util.ContentHash(content)[:8])
}

// IngestMode 写入方式，用于事件与日志
type IngestMode string

const (
	IngestModeItems    IngestMode = "items"
	IngestModeText     IngestMode = "text"
	IngestModeDocument IngestMode = "document"
)

// IngestEvent 写入成功后对外发布的事件
type IngestEvent struct {
	Collection string     `json:"collection"`
	Mode       IngestMode `json:"mode"`
	IDs        []string   `json:"ids"`
	Count      int        `json:"count"`
	At         time.Time  `json:"at"`
}

// IngestRequest 异步写入请求，经消息队列投递给 worker
type IngestRequest struct {
	RequestID  string       `json:"request_id"`
	Collection string       `json:"collection"`
	Mode       IngestMode   `json:"mode"`
	Items      []IngestItem `json:"items,omitempty"`
	Text       string       `json:"text,omitempty"`
	Source     string       `json:"source,omitempty"`
	At         time.Time    `json:"at"`
}
