package chunking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 100
)

// 切分边界的优先级：段落 → 行 → 词 → 字符
var boundaries = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(" ")}

// TextChunker 将文本切分为固定大小、带重叠的多个片段（按 rune 计数）
type TextChunker struct {
	ChunkSize    int
	ChunkOverlap int
	useRecursive bool

	initOnce      sync.Once
	initErr       error
	recursiveImpl document.Transformer
}

// NewTextChunker 创建一个切片器，并设置切片大小与重叠长度
func NewTextChunker(size, overlap int) *TextChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &TextChunker{ChunkSize: size, ChunkOverlap: overlap}
}

// NewRecursiveChunker 使用 eino-ext 的递归切分器
func NewRecursiveChunker(size, overlap int) *TextChunker {
	c := NewTextChunker(size, overlap)
	c.useRecursive = true
	return c
}

// NewFromMode mode 为 recursive 时使用 eino 递归切分，其余为边界切分
func NewFromMode(mode string, size, overlap int) *TextChunker {
	if strings.EqualFold(strings.TrimSpace(mode), "recursive") {
		return NewRecursiveChunker(size, overlap)
	}
	return NewTextChunker(size, overlap)
}

// Split 贪心地生成不超过 ChunkSize 的窗口。
// 窗口优先在最后一个段落/换行/空格之后结束，且结束位置必须超过 start+overlap，
// 下一个窗口从 end-overlap 开始。空白文本返回 nil。
func (c *TextChunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	if total <= c.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < total {
		end := start + c.ChunkSize
		if end >= total {
			end = total
		} else {
			end = c.breakPoint(runes, start, end)
		}

		piece := string(runes[start:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
		if end == total {
			break
		}

		next := end - c.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func (c *TextChunker) breakPoint(runes []rune, start, limit int) int {
	floor := start + c.ChunkOverlap
	for _, sep := range boundaries {
		if p := lastBreak(runes, start, limit, sep, floor); p > 0 {
			return p
		}
	}
	return limit
}

// lastBreak 返回 [from, to) 内最后一个 sep 之后的位置，要求位置大于 floor；找不到返回 -1
func lastBreak(runes []rune, from, to int, sep []rune, floor int) int {
	for i := to - len(sep); i >= from; i-- {
		p := i + len(sep)
		if p <= floor {
			return -1
		}
		if matchAt(runes, i, sep) {
			return p
		}
	}
	return -1
}

func matchAt(runes []rune, i int, sep []rune) bool {
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// SplitContext 按配置的模式切分；递归模式需要 ctx 初始化 eino splitter
func (c *TextChunker) SplitContext(ctx context.Context, text string) ([]string, error) {
	if !c.useRecursive {
		return c.Split(text), nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	docs, err := c.ChunkDocuments(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		out = append(out, d.Content)
	}
	return out, nil
}

// ChunkDocuments 切分 eino 文档，保留原 metadata 并写入 chunk_index
func (c *TextChunker) ChunkDocuments(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	if len(docs) == 0 {
		return []*schema.Document{}, nil
	}

	if !c.useRecursive {
		out := make([]*schema.Document, 0, len(docs))
		for _, d := range docs {
			if d == nil {
				continue
			}
			for i, p := range c.Split(d.Content) {
				out = append(out, derive(d, p, i))
			}
		}
		return out, nil
	}

	c.initOnce.Do(func() {
		impl, err := recursive.NewSplitter(ctx, &recursive.Config{
			ChunkSize:   c.ChunkSize,
			OverlapSize: c.ChunkOverlap,
			Separators:  []string{"\n\n", "\n", ". ", " "},
			LenFunc: func(s string) int {
				return len([]rune(s))
			},
			KeepType: recursive.KeepTypeEnd,
		})
		if err != nil {
			c.initErr = err
			return
		}
		c.recursiveImpl = impl
	})
	if c.initErr != nil {
		return nil, c.initErr
	}
	if c.recursiveImpl == nil {
		return nil, fmt.Errorf("recursive splitter not initialized")
	}

	out := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		frags, err := c.recursiveImpl.Transform(ctx, []*schema.Document{{Content: d.Content}})
		if err != nil {
			return nil, err
		}
		for i, f := range frags {
			if f == nil {
				continue
			}
			out = append(out, derive(d, f.Content, i))
		}
	}
	return out, nil
}

func derive(parent *schema.Document, content string, index int) *schema.Document {
	n := &schema.Document{Content: content, MetaData: map[string]any{}}
	for k, v := range parent.MetaData {
		n.MetaData[k] = v
	}
	n.MetaData["chunk_index"] = index
	return n
}
