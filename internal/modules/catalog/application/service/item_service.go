package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"VectorOps/internal/modules/catalog/application/dto/respond"
	"VectorOps/internal/modules/catalog/domain/entity"
	"VectorOps/internal/modules/catalog/infrastructure/memory"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type Completer interface {
	Invoke(ctx context.Context, input string, history []*schema.Message) (string, error)
}

type ItemService interface {
	List(ctx context.Context) []entity.Item
	Some(ctx context.Context, limit int) []entity.Item
	Decrement(ctx context.Context, id, amount int) (*respond.DecrementRespond, error)
	Recommendations(ctx context.Context, amount int) ([]entity.Item, error)
}

type itemServiceImpl struct {
	store *memory.ItemStore
	chain Completer
}

func NewItemService(store *memory.ItemStore, chain Completer) ItemService {
	return &itemServiceImpl{store: store, chain: chain}
}

func (s *itemServiceImpl) List(ctx context.Context) []entity.Item {
	return s.store.List()
}

func (s *itemServiceImpl) Some(ctx context.Context, limit int) []entity.Item {
	items := s.store.List()
	if limit < 0 {
		limit = 0
	}
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *itemServiceImpl) Decrement(ctx context.Context, id, amount int) (*respond.DecrementRespond, error) {
	it, err := s.store.Decrement(id, amount)
	switch {
	case errors.Is(err, memory.ErrItemNotFound):
		return nil, xerr.New(xerr.NotFound, fmt.Sprintf("Item with ID %d not found.", id))
	case errors.Is(err, memory.ErrInsufficientInventory):
		return nil, xerr.New(xerr.Conflict, fmt.Sprintf("Item with ID %d has insufficient inventory.", id))
	case err != nil:
		return nil, xerr.ErrServerError
	}
	return &respond.DecrementRespond{
		Message:   fmt.Sprintf("Item with ID %s inventory successfully updated!", it.Name),
		Inventory: it.Inventory,
	}, nil
}

type itemList struct {
	Items []entity.Item `json:"items" binding:"required,dive"`
}

func (s *itemServiceImpl) Recommendations(ctx context.Context, amount int) ([]entity.Item, error) {
	if s.chain == nil {
		return nil, xerr.ErrLLM
	}
	reply, err := s.chain.Invoke(ctx, recommendationPrompt(amount), nil)
	if err != nil {
		zlog.Error("recommendations failed", zap.Error(err))
		return nil, xerr.Wrap(xerr.ServiceUnavailable, xerr.ErrLLM.Message, err)
	}
	items, err := parseItems(reply)
	if err != nil {
		zlog.Warn("model returned invalid recommendations", zap.Error(err), zap.String("reply", reply))
		return nil, xerr.Wrap(xerr.ServiceUnavailable, "model returned invalid recommendations", err)
	}
	return items, nil
}

func recommendationPrompt(amount int) string {
	return fmt.Sprintf(`You are an evil sales assistant at the Evil Scientist Corporation.
Share %d of the most popular evil items on the market right now.

Format the response as a single JSON object with the following structure:
{
    "items": [
        {
            "id": int (greater than 0),
            "name": str (3-50 characters),
            "description": str (10-100 characters),
            "inventory": int (0-100),
            "price": float (greater than 0 with no commas in the numbers)
        },
        ...
    ]
}

Return ONLY the JSON, no extra text.`, amount)
}

// parseItems 截取回复中的 JSON 对象并按 binding 规则校验
func parseItems(reply string) ([]entity.Item, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no json object in reply")
	}
	var out itemList
	if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(&out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
