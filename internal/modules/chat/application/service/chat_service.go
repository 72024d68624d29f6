package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"VectorOps/internal/modules/ai/infrastructure/pipeline"
	"VectorOps/internal/modules/chat/application/dto/respond"
	"VectorOps/internal/modules/chat/domain/entity"
	"VectorOps/internal/modules/chat/domain/repository"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Chain 通用对话链
type Chain interface {
	Invoke(ctx context.Context, input string, history []*schema.Message) (string, error)
	Stream(ctx context.Context, input string, history []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

// Router 检索路由图
type Router interface {
	Route(ctx context.Context, input string) (*pipeline.RouteResult, error)
}

type Options struct {
	MemoryWindow   int
	DefaultSession string
	FilesDir       string
	PhilosophyFile string
	DataFile       string
}

var errChatUnavailable = xerr.New(xerr.ServiceUnavailable, "chat model unavailable")

type ChatService interface {
	Chat(ctx context.Context, input string) (*respond.ChatRespond, error)
	ChatWithMemory(ctx context.Context, sessionID, input string) (*respond.ChatWithMemoryRespond, error)
	Stream(ctx context.Context, input string) (*schema.StreamReader[*schema.Message], error)
	SummarizeFile(ctx context.Context) (*respond.SummaryRespond, error)
	Recommend(ctx context.Context) (*respond.RecommendationRespond, error)
	AnalyzeData(ctx context.Context, question string) (*respond.AnalysisRespond, error)
	Route(ctx context.Context, input string) (*pipeline.RouteResult, error)
	// ClearSession 删除会话的全部记忆，空 id 对应默认会话
	ClearSession(ctx context.Context, sessionID string) (*respond.ClearSessionRespond, error)
}

type chatServiceImpl struct {
	chain  Chain
	router Router
	repo   repository.ChatMessageRepository
	opts   Options
}

// NewChatService chain / router 可以为 nil，对应接口返回 503
func NewChatService(chain Chain, router Router, repo repository.ChatMessageRepository, opts Options) ChatService {
	if opts.MemoryWindow <= 0 {
		opts.MemoryWindow = 20
	}
	if strings.TrimSpace(opts.DefaultSession) == "" {
		opts.DefaultSession = "demo_thread"
	}
	return &chatServiceImpl{chain: chain, router: router, repo: repo, opts: opts}
}

func (s *chatServiceImpl) invoke(ctx context.Context, input string, history []*schema.Message) (string, error) {
	if s.chain == nil {
		return "", errChatUnavailable
	}
	reply, err := s.chain.Invoke(ctx, input, history)
	if err != nil {
		zlog.Error("chat model call failed", zap.Error(err))
		return "", xerr.Wrap(xerr.ServiceUnavailable, "chat model unavailable: "+err.Error(), err)
	}
	return reply, nil
}

func (s *chatServiceImpl) Chat(ctx context.Context, input string) (*respond.ChatRespond, error) {
	if strings.TrimSpace(input) == "" {
		return nil, xerr.New(xerr.BadRequest, "input cannot be empty")
	}
	reply, err := s.invoke(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	return &respond.ChatRespond{Reply: reply}, nil
}

// ChatWithMemory 使用最近 MemoryWindow 轮对话作为上下文，并持久化本轮
func (s *chatServiceImpl) ChatWithMemory(ctx context.Context, sessionID, input string) (*respond.ChatWithMemoryRespond, error) {
	if strings.TrimSpace(input) == "" {
		return nil, xerr.New(xerr.BadRequest, "input cannot be empty")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = s.opts.DefaultSession
	}
	limit := s.opts.MemoryWindow * 2

	past, err := s.repo.ListRecent(ctx, sessionID, limit)
	if err != nil {
		zlog.Error("load chat memory failed", zap.String("session", sessionID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	history := make([]*schema.Message, 0, len(past))
	for _, m := range past {
		if m.Role == entity.RoleAI {
			history = append(history, schema.AssistantMessage(m.Content, nil))
		} else {
			history = append(history, schema.UserMessage(m.Content))
		}
	}

	reply, err := s.invoke(ctx, input, history)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Append(ctx,
		&entity.ChatMessage{SessionId: sessionID, Role: entity.RoleHuman, Content: input},
		&entity.ChatMessage{SessionId: sessionID, Role: entity.RoleAI, Content: reply},
	); err != nil {
		zlog.Error("save chat memory failed", zap.String("session", sessionID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	stored, err := s.repo.ListRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, xerr.ErrServerError
	}
	memory := make([]string, 0, len(stored))
	for _, m := range stored {
		memory = append(memory, m.Role+": "+m.Content)
	}
	return &respond.ChatWithMemoryRespond{Reply: reply, MessageMemory: memory}, nil
}

func (s *chatServiceImpl) ClearSession(ctx context.Context, sessionID string) (*respond.ClearSessionRespond, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = s.opts.DefaultSession
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		zlog.Error("clear chat memory failed", zap.String("session", sessionID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	zlog.Info("chat memory cleared", zap.String("session", sessionID))
	return &respond.ClearSessionRespond{SessionId: sessionID}, nil
}

func (s *chatServiceImpl) Stream(ctx context.Context, input string) (*schema.StreamReader[*schema.Message], error) {
	if s.chain == nil {
		return nil, errChatUnavailable
	}
	return s.chain.Stream(ctx, input, nil)
}

func (s *chatServiceImpl) SummarizeFile(ctx context.Context) (*respond.SummaryRespond, error) {
	text, err := s.readFile(s.opts.PhilosophyFile)
	if err != nil {
		return nil, err
	}
	reply, err := s.invoke(ctx, "Concisely summarize the following text from Warren Buffet trading philosophy: "+text, nil)
	if err != nil {
		return nil, err
	}
	return &respond.SummaryRespond{Summary: reply}, nil
}

func (s *chatServiceImpl) Recommend(ctx context.Context) (*respond.RecommendationRespond, error) {
	text, err := s.readFile(s.opts.PhilosophyFile)
	if err != nil {
		return nil, err
	}
	prompt := "Using the Warren Buffett philosophy below, give a concise stock recommendation for a retail investor.\n\n" +
		"Context (Warren Buffett philosophy):\n" + text + "\n\n" +
		"Task:\n" +
		"- Based only on the philosophy above, recommend one stock (ticker) and explain why briefly (2-3 sentences).\n" +
		"- Give one suggested action (Buy / Hold / Avoid) and a short rationale.\n" +
		"- Mention one risk to consider and a confidence level (low/medium/high).\n" +
		"Keep the answer short and actionable."
	reply, err := s.invoke(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	return &respond.RecommendationRespond{Recommendation: reply}, nil
}

func (s *chatServiceImpl) AnalyzeData(ctx context.Context, question string) (*respond.AnalysisRespond, error) {
	if strings.TrimSpace(question) == "" {
		return nil, xerr.New(xerr.BadRequest, "input cannot be empty")
	}
	path := filepath.Join(s.opts.FilesDir, s.opts.DataFile)
	f, err := os.Open(path)
	if err != nil {
		zlog.Error("open data file failed", zap.String("path", path), zap.Error(err))
		return nil, xerr.Wrap(xerr.NotFound, "data file not found", err)
	}
	defer f.Close()

	data, err := renderCSV(f)
	if err != nil {
		return nil, xerr.Wrap(xerr.InternalServerError, "data file is not valid csv", err)
	}
	input := "Answer the following question based on the history performance of the magnificent seven stocks: " +
		question + "\nHere's the stock data: " + data
	reply, err := s.invoke(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	return &respond.AnalysisRespond{Answer: reply}, nil
}

func (s *chatServiceImpl) Route(ctx context.Context, input string) (*pipeline.RouteResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, xerr.New(xerr.BadRequest, "input cannot be empty")
	}
	if s.router == nil {
		return nil, errChatUnavailable
	}
	res, err := s.router.Route(ctx, input)
	if err != nil {
		zlog.Error("route failed", zap.Error(err))
		return nil, xerr.Wrap(xerr.ServiceUnavailable, "chat model unavailable: "+err.Error(), err)
	}
	return res, nil
}

func (s *chatServiceImpl) readFile(name string) (string, error) {
	path := filepath.Join(s.opts.FilesDir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		zlog.Error("read file failed", zap.String("path", path), zap.Error(err))
		return "", xerr.Wrap(xerr.NotFound, fmt.Sprintf("file %s not found", name), err)
	}
	return string(b), nil
}

// renderCSV 每行渲染为 "列名: 值" 的多行文本，行之间空行分隔
func renderCSV(r io.Reader) (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}

	var rows []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(header))
		for i, h := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			lines = append(lines, strings.TrimSpace(h)+": "+strings.TrimSpace(v))
		}
		rows = append(rows, strings.Join(lines, "\n"))
	}
	return strings.Join(rows, "\n\n"), nil
}
