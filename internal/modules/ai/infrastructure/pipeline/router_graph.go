package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"VectorOps/internal/modules/ai/infrastructure/llm"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// RouteChat 没有命中任何检索工具时的路由名
const RouteChat = "chat"

// Route 一个检索工具：命中后从 Collection 召回再回答
type Route struct {
	Name        string
	Collection  string
	Description string
	Keywords    []string
}

// RetrieverOpener 按集合名打开 retriever
type RetrieverOpener func(ctx context.Context, collection string) (retriever.Retriever, error)

// Chatter 无检索时的通用对话
type Chatter interface {
	Invoke(ctx context.Context, input string, history []*schema.Message) (string, error)
}

type RouterConfig struct {
	Routes  []Route
	TopK    int
	Agentic bool
}

type RouteSource struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type RouteResult struct {
	Route   string        `json:"route"`
	Answer  string        `json:"answer"`
	Sources []RouteSource `json:"sources"`
}

// routerState 节点间传递的中间状态
type routerState struct {
	Input  string
	Query  string
	Route  *Route
	Docs   []*schema.Document
	Answer string
}

// RouterGraph Route → (Retrieve → AnswerWithContext | Chat) → Finish
type RouterGraph struct {
	conf   RouterConfig
	open   RetrieverOpener
	cm     model.BaseChatModel
	chat   Chatter
	picker model.BaseChatModel
	r      compose.Runnable[string, *RouteResult]
}

func NewRouterGraph(ctx context.Context, conf RouterConfig, open RetrieverOpener, cm model.BaseChatModel, chat Chatter) (*RouterGraph, error) {
	if cm == nil || chat == nil {
		return nil, llm.ErrNotConfigured
	}
	if open == nil {
		return nil, errors.New("retriever opener is nil")
	}
	if conf.TopK <= 0 {
		conf.TopK = 5
	}
	p := &RouterGraph{conf: conf, open: open, cm: cm, chat: chat}

	if conf.Agentic && len(conf.Routes) > 0 {
		tcm, ok := cm.(model.ToolCallingChatModel)
		if !ok {
			return nil, fmt.Errorf("agentic routing needs a tool calling chat model")
		}
		bound, err := tcm.WithTools(routeTools(conf.Routes))
		if err != nil {
			return nil, fmt.Errorf("bind route tools: %w", err)
		}
		p.picker = bound
	}

	r, err := p.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

func (p *RouterGraph) Route(ctx context.Context, input string) (*RouteResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("input is empty")
	}
	return p.r.Invoke(ctx, input)
}

func (p *RouterGraph) buildGraph(ctx context.Context) (compose.Runnable[string, *RouteResult], error) {
	const (
		RouteNode         = "Route"
		Retrieve          = "Retrieve"
		AnswerWithContext = "AnswerWithContext"
		Chat              = "Chat"
		Finish            = "Finish"
	)

	g := compose.NewGraph[string, *RouteResult]()

	_ = g.AddLambdaNode(RouteNode, compose.InvokableLambdaWithOption(p.routeNode), compose.WithNodeName(RouteNode))
	_ = g.AddLambdaNode(Retrieve, compose.InvokableLambdaWithOption(p.retrieveNode), compose.WithNodeName(Retrieve))
	_ = g.AddLambdaNode(AnswerWithContext, compose.InvokableLambdaWithOption(p.answerNode), compose.WithNodeName(AnswerWithContext))
	_ = g.AddLambdaNode(Chat, compose.InvokableLambdaWithOption(p.chatNode), compose.WithNodeName(Chat))
	_ = g.AddLambdaNode(Finish, compose.InvokableLambdaWithOption(p.finishNode), compose.WithNodeName(Finish))

	_ = g.AddEdge(compose.START, RouteNode)

	pick := func(ctx context.Context, st *routerState) (string, error) {
		if st.Route != nil {
			return Retrieve, nil
		}
		return Chat, nil
	}
	_ = g.AddBranch(RouteNode, compose.NewGraphBranch(pick, map[string]bool{
		Retrieve: true,
		Chat:     true,
	}))

	_ = g.AddEdge(Retrieve, AnswerWithContext)
	_ = g.AddEdge(AnswerWithContext, Finish)
	_ = g.AddEdge(Chat, Finish)
	_ = g.AddEdge(Finish, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName("RouterGraph"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor))
}

// routeNode 选择检索工具：agentic 模式由模型调用工具决定，否则按关键词匹配
func (p *RouterGraph) routeNode(ctx context.Context, input string, _ ...any) (*routerState, error) {
	st := &routerState{Input: input, Query: input}
	if len(p.conf.Routes) == 0 {
		return st, nil
	}

	if p.picker == nil {
		st.Route = matchKeywords(p.conf.Routes, input)
		return st, nil
	}

	msg, err := p.picker.Generate(ctx, []*schema.Message{
		schema.SystemMessage(pickerPrompt),
		schema.UserMessage(input),
	})
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	if msg == nil || len(msg.ToolCalls) == 0 {
		if msg != nil {
			st.Answer = strings.TrimSpace(msg.Content)
		}
		return st, nil
	}

	call := msg.ToolCalls[0].Function
	for i := range p.conf.Routes {
		if p.conf.Routes[i].Name != call.Name {
			continue
		}
		st.Route = &p.conf.Routes[i]
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err == nil && strings.TrimSpace(args.Query) != "" {
			st.Query = args.Query
		}
		break
	}
	if st.Route == nil {
		zlog.Warn("model picked unknown route", zap.String("tool", call.Name))
	}
	return st, nil
}

func (p *RouterGraph) retrieveNode(ctx context.Context, st *routerState, _ ...any) (*routerState, error) {
	r, err := p.open(ctx, st.Route.Collection)
	if err != nil {
		return nil, err
	}
	docs, err := r.Retrieve(ctx, st.Query, retriever.WithTopK(p.conf.TopK))
	if err != nil {
		return nil, err
	}
	st.Docs = docs
	return st, nil
}

func (p *RouterGraph) answerNode(ctx context.Context, st *routerState, _ ...any) (*routerState, error) {
	var sb strings.Builder
	for i, d := range st.Docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(d.Content)
	}
	docs := sb.String()
	if docs == "" {
		docs = "No documents found."
	}

	user := fmt.Sprintf("Question: %s\n\nRetrieved documents:\n%s", st.Input, docs)
	answer, err := llm.Complete(ctx, p.cm, answerPrompt, user)
	if err != nil {
		return nil, err
	}
	st.Answer = answer
	return st, nil
}

func (p *RouterGraph) chatNode(ctx context.Context, st *routerState, _ ...any) (*routerState, error) {
	if st.Answer != "" {
		return st, nil
	}
	answer, err := p.chat.Invoke(ctx, st.Input, nil)
	if err != nil {
		return nil, err
	}
	st.Answer = answer
	return st, nil
}

func (p *RouterGraph) finishNode(ctx context.Context, st *routerState, _ ...any) (*RouteResult, error) {
	res := &RouteResult{Route: RouteChat, Answer: st.Answer, Sources: []RouteSource{}}
	if st.Route != nil {
		res.Route = st.Route.Name
	}
	for _, d := range st.Docs {
		res.Sources = append(res.Sources, RouteSource{ID: d.ID, Content: d.Content, Metadata: d.MetaData})
	}
	return res, nil
}

const (
	pickerPrompt = "You route questions to document search tools. Call at most one tool when a tool's description matches the question; otherwise answer directly."
	answerPrompt = "Answer the question using only the retrieved documents. If they do not contain the answer, say so."
)

func routeTools(routes []Route) []*schema.ToolInfo {
	tools := make([]*schema.ToolInfo, 0, len(routes))
	for _, r := range routes {
		tools = append(tools, &schema.ToolInfo{
			Name: r.Name,
			Desc: r.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "search query", Required: true},
			}),
		})
	}
	return tools
}

func matchKeywords(routes []Route, input string) *Route {
	lower := strings.ToLower(input)
	for i := range routes {
		for _, kw := range routes[i].Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return &routes[i]
			}
		}
	}
	return nil
}
