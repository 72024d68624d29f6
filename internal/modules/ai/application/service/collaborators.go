package service

import (
	"context"
	"fmt"
	"strings"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/infrastructure/registry"
)

// CollectionStore 集合注册表对服务层暴露的能力
type CollectionStore interface {
	Resolve(name string) (string, error)
	GetOrCreate(ctx context.Context, name string) (*registry.Collection, error)
	Names() []string
}

type Splitter interface {
	SplitContext(ctx context.Context, text string) ([]string, error)
}

// EventSink 接收写入成功事件
type EventSink interface {
	IngestCompleted(ctx context.Context, ev entity.IngestEvent)
}

type nopSink struct{}

func (nopSink) IngestCompleted(context.Context, entity.IngestEvent) {}

// ScopeToCollection 纯数字的路径段视为年份，按 yearFormat 映射成集合名
func ScopeToCollection(scope, yearFormat string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" || !isDigits(scope) {
		return scope
	}
	if !strings.Contains(yearFormat, "%s") {
		yearFormat = "macro_report_%s"
	}
	return fmt.Sprintf(yearFormat, scope)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
