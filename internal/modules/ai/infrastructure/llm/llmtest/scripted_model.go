// Package llmtest 提供测试用的可编排聊天模型
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ScriptedModel 按顺序返回预设回复；回复用完后重复最后一条。
// Reply 为空且 Err 为空时回显最后一条用户消息。
type ScriptedModel struct {
	mu      sync.Mutex
	Replies []*schema.Message
	Err     error
	Calls   [][]*schema.Message
	Tools   []*schema.ToolInfo
	next    int
}

var _ model.ToolCallingChatModel = (*ScriptedModel)(nil)

func NewScriptedModel(replies ...string) *ScriptedModel {
	m := &ScriptedModel{}
	for _, r := range replies {
		m.Replies = append(m.Replies, schema.AssistantMessage(r, nil))
	}
	return m
}

// Failing 每次调用都返回 err
func Failing(err error) *ScriptedModel {
	if err == nil {
		err = errors.New("model unavailable")
	}
	return &ScriptedModel{Err: err}
}

func (m *ScriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, input)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Replies) == 0 {
		return schema.AssistantMessage(lastUser(input), nil), nil
	}
	i := m.next
	if i >= len(m.Replies) {
		i = len(m.Replies) - 1
	} else {
		m.next++
	}
	return m.Replies[i], nil
}

// Stream 把回复按空格切成多个增量
func (m *ScriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitAfter(msg.Content, " ")
	chunks := make([]*schema.Message, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		chunks = append(chunks, schema.AssistantMessage(p, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *ScriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tools = tools
	return m, nil
}

// CallCount 已发生的调用次数
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastPrompt 最后一次调用中最后一条用户消息
func (m *ScriptedModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return ""
	}
	return lastUser(m.Calls[len(m.Calls)-1])
}

func lastUser(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}

// ToolCallReply 构造一条调用指定工具的回复
func ToolCallReply(tool, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Type:     "function",
		Function: schema.FunctionCall{Name: tool, Arguments: args},
	}})
}
