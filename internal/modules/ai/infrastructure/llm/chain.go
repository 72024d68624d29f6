package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const (
	varInput   = "input"
	varHistory = "history"
)

// GeneralChain 系统人设 + 历史 + {input} → 聊天模型
type GeneralChain struct {
	run compose.Runnable[map[string]any, *schema.Message]
}

func NewGeneralChain(ctx context.Context, cm model.BaseChatModel, systemPrompt string) (*GeneralChain, error) {
	if cm == nil {
		return nil, ErrNotConfigured
	}
	tpl := prompt.FromMessages(schema.FString,
		schema.SystemMessage(escapeBraces(systemPrompt)),
		schema.MessagesPlaceholder(varHistory, true),
		schema.UserMessage("{"+varInput+"}"),
	)
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl).AppendChatModel(cm)

	run, err := chain.Compile(ctx, compose.WithGraphName("GeneralChain"))
	if err != nil {
		return nil, fmt.Errorf("compile general chain: %w", err)
	}
	return &GeneralChain{run: run}, nil
}

func (g *GeneralChain) vars(input string, history []*schema.Message) map[string]any {
	if history == nil {
		history = []*schema.Message{}
	}
	return map[string]any{varInput: input, varHistory: history}
}

func (g *GeneralChain) Invoke(ctx context.Context, input string, history []*schema.Message) (string, error) {
	msg, err := g.run.Invoke(ctx, g.vars(input, history))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(msg.Content), nil
}

// Stream 返回模型增量输出，调用方负责 Close
func (g *GeneralChain) Stream(ctx context.Context, input string, history []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	return g.run.Stream(ctx, g.vars(input, history))
}

// Complete 单轮调用：可选系统提示 + 用户内容
func Complete(ctx context.Context, cm model.BaseChatModel, system, user string) (string, error) {
	if cm == nil {
		return "", ErrNotConfigured
	}
	msgs := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, schema.SystemMessage(system))
	}
	msgs = append(msgs, schema.UserMessage(user))

	out, err := cm.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", errors.New("chat model returned no message")
	}
	return strings.TrimSpace(out.Content), nil
}

// FString 模板中花括号需要转义
func escapeBraces(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}
