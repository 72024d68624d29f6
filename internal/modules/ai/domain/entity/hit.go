package entity

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cast"
)

// RawHit 引擎返回的原始命中，只有下面三种形态
type RawHit interface {
	isRawHit()
}

// DocumentHit eino 文档，分数（若有）放在 MetaData["_score"]
type DocumentHit struct {
	Doc *schema.Document
}

// MappingHit REST 引擎返回的字段表：id / document / metadata / distance|score
type MappingHit struct {
	Fields map[string]any
}

// ScoredHit 文档与分数的二元组
type ScoredHit struct {
	Doc   Document
	Score float32
}

func (DocumentHit) isRawHit() {}
func (MappingHit) isRawHit()  {}
func (ScoredHit) isRawHit()   {}

const scoreKey = "_score"

// Normalize 把任意形态的命中转换成 SearchResult
func Normalize(hit RawHit) (SearchResult, error) {
	switch h := hit.(type) {
	case DocumentHit:
		return fromDocument(h), nil
	case *DocumentHit:
		return fromDocument(*h), nil
	case MappingHit:
		return fromMapping(h), nil
	case *MappingHit:
		return fromMapping(*h), nil
	case ScoredHit:
		return fromScored(h), nil
	case *ScoredHit:
		return fromScored(*h), nil
	default:
		return SearchResult{}, fmt.Errorf("unsupported hit type %T", hit)
	}
}

// NormalizeAll 保持引擎返回的顺序
func NormalizeAll(hits []RawHit) ([]SearchResult, error) {
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		r, err := Normalize(h)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func fromDocument(h DocumentHit) SearchResult {
	if h.Doc == nil {
		return SearchResult{Metadata: Metadata{}}
	}
	res := SearchResult{ID: h.Doc.ID, Text: h.Doc.Content, Metadata: Metadata{}}
	for k, v := range h.Doc.MetaData {
		if k == scoreKey {
			if f, err := cast.ToFloat32E(v); err == nil {
				res.Score = &f
			}
			continue
		}
		res.Metadata[k] = v
	}
	return res
}

func fromMapping(h MappingHit) SearchResult {
	res := SearchResult{Metadata: Metadata{}}
	if h.Fields == nil {
		return res
	}
	res.ID = cast.ToString(h.Fields["id"])
	if doc, ok := h.Fields["document"]; ok {
		res.Text = cast.ToString(doc)
	} else {
		res.Text = cast.ToString(h.Fields["text"])
	}
	if meta, ok := h.Fields["metadata"].(map[string]any); ok {
		for k, v := range meta {
			res.Metadata[k] = v
		}
	}
	for _, key := range []string{"score", "distance"} {
		if v, ok := h.Fields[key]; ok && v != nil {
			if f, err := cast.ToFloat32E(v); err == nil {
				res.Score = &f
				break
			}
		}
	}
	return res
}

func fromScored(h ScoredHit) SearchResult {
	score := h.Score
	meta := Metadata{}
	for k, v := range h.Doc.Metadata {
		meta[k] = v
	}
	return SearchResult{ID: h.Doc.ID, Text: h.Doc.Text, Metadata: meta, Score: &score}
}

// WithScore 给 eino 文档附加分数，供 DocumentHit 使用
func WithScore(doc *schema.Document, score float32) *schema.Document {
	if doc.MetaData == nil {
		doc.MetaData = map[string]any{}
	}
	doc.MetaData[scoreKey] = score
	return doc
}
