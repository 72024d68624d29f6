package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"VectorOps/internal/modules/ai/infrastructure/llm"
	"VectorOps/internal/modules/ai/infrastructure/llm/llmtest"
	"VectorOps/internal/modules/ai/infrastructure/pipeline"
	chatEntity "VectorOps/internal/modules/chat/domain/entity"
	"VectorOps/internal/modules/chat/infrastructure/persistence"
	"VectorOps/pkg/xerr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newService(t *testing.T, cm *llmtest.ScriptedModel, router Router, window int) ChatService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&chatEntity.ChatMessage{}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "philosophy.txt"), []byte("Be fearful when others are greedy."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("ticker,return\nAAPL,12\nNVDA,80\n"), 0o644))

	var chain Chain
	if cm != nil {
		g, err := llm.NewGeneralChain(context.Background(), cm, "You are a blunt investor.")
		require.NoError(t, err)
		chain = g
	}
	return NewChatService(chain, router, persistence.NewChatMessageRepository(db), Options{
		MemoryWindow:   window,
		FilesDir:       dir,
		PhilosophyFile: "philosophy.txt",
		DataFile:       "data.csv",
	})
}

func codeOf(t *testing.T, err error) int {
	t.Helper()
	ce, ok := xerr.As(err)
	require.True(t, ok, "%v", err)
	return ce.Code
}

func TestChat(t *testing.T) {
	svc := newService(t, llmtest.NewScriptedModel("Buy index funds."), nil, 20)
	res, err := svc.Chat(context.Background(), "what should I buy?")
	require.NoError(t, err)
	assert.Equal(t, "Buy index funds.", res.Reply)

	_, err = svc.Chat(context.Background(), " ")
	assert.Equal(t, xerr.BadRequest, codeOf(t, err))
}

func TestChatWithoutModel(t *testing.T) {
	svc := newService(t, nil, nil, 20)
	_, err := svc.Chat(context.Background(), "hi")
	assert.Equal(t, xerr.ServiceUnavailable, codeOf(t, err))
	_, err = svc.Route(context.Background(), "hi")
	assert.Equal(t, xerr.ServiceUnavailable, codeOf(t, err))
	_, err = svc.Stream(context.Background(), "hi")
	assert.Error(t, err)
}

func TestChatModelFailure(t *testing.T) {
	svc := newService(t, llmtest.Failing(errors.New("connection refused")), nil, 20)
	_, err := svc.Chat(context.Background(), "hi")
	assert.Equal(t, xerr.ServiceUnavailable, codeOf(t, err))
}

func TestChatWithMemoryKeepsWindow(t *testing.T) {
	cm := llmtest.NewScriptedModel()
	svc := newService(t, cm, nil, 2)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		_, err := svc.ChatWithMemory(ctx, "", q)
		require.NoError(t, err)
	}
	res, err := svc.ChatWithMemory(ctx, "", "four")
	require.NoError(t, err)
	assert.Equal(t, "four", res.Reply)
	assert.Equal(t, []string{"human: three", "ai: three", "human: four", "ai: four"}, res.MessageMemory)

	// 最后一次调用只带窗口内的历史
	last := cm.Calls[len(cm.Calls)-1]
	var contents []string
	for _, m := range last[1:] {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"two", "two", "three", "three", "four"}, contents)

	other, err := svc.ChatWithMemory(ctx, "another", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"human: hello", "ai: hello"}, other.MessageMemory)
}

func TestClearSession(t *testing.T) {
	svc := newService(t, llmtest.NewScriptedModel(), nil, 20)
	ctx := context.Background()

	_, err := svc.ChatWithMemory(ctx, "", "first")
	require.NoError(t, err)
	_, err = svc.ChatWithMemory(ctx, "keep", "kept")
	require.NoError(t, err)

	cleared, err := svc.ClearSession(ctx, " ")
	require.NoError(t, err)
	assert.Equal(t, "demo_thread", cleared.SessionId)

	res, err := svc.ChatWithMemory(ctx, "", "again")
	require.NoError(t, err)
	assert.Equal(t, []string{"human: again", "ai: again"}, res.MessageMemory)

	kept, err := svc.ChatWithMemory(ctx, "keep", "more")
	require.NoError(t, err)
	assert.Len(t, kept.MessageMemory, 4)
}

func TestSummarizeAndRecommend(t *testing.T) {
	cm := llmtest.NewScriptedModel()
	svc := newService(t, cm, nil, 20)

	sum, err := svc.SummarizeFile(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sum.Summary, "Concisely summarize"))
	assert.Contains(t, sum.Summary, "Be fearful when others are greedy.")

	rec, err := svc.Recommend(context.Background())
	require.NoError(t, err)
	assert.Contains(t, rec.Recommendation, "Buy / Hold / Avoid")
}

func TestMissingFile(t *testing.T) {
	s := newService(t, llmtest.NewScriptedModel("x"), nil, 20).(*chatServiceImpl)
	s.opts.PhilosophyFile = "missing.txt"
	_, err := s.SummarizeFile(context.Background())
	assert.Equal(t, xerr.NotFound, codeOf(t, err))
}

func TestAnalyzeData(t *testing.T) {
	cm := llmtest.NewScriptedModel()
	svc := newService(t, cm, nil, 20)
	res, err := svc.AnalyzeData(context.Background(), "Which stock did best?")
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Which stock did best?")
	assert.Contains(t, res.Answer, "ticker: NVDA\nreturn: 80")
}

func TestRenderCSV(t *testing.T) {
	out, err := renderCSV(strings.NewReader("a,b\n1,2\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb: 2\n\na: 3\nb: ", out)

	out, err = renderCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, out)
}

type fixedRouter struct{ res *pipeline.RouteResult }

func (f fixedRouter) Route(ctx context.Context, input string) (*pipeline.RouteResult, error) {
	return f.res, nil
}

func TestRouteAndStream(t *testing.T) {
	svc := newService(t, llmtest.NewScriptedModel("streamed reply here"), fixedRouter{res: &pipeline.RouteResult{Route: "chat", Answer: "ok"}}, 20)
	res, err := svc.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)

	sr, err := svc.Stream(context.Background(), "hi")
	require.NoError(t, err)
	defer sr.Close()
	var sb strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sb.WriteString(msg.Content)
	}
	assert.Equal(t, "streamed reply here", sb.String())
}
