package memory

import (
	"errors"
	"sort"
	"sync"

	"VectorOps/internal/modules/catalog/domain/entity"
)

var (
	ErrItemNotFound          = errors.New("item not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// ItemStore 进程内商品表
type ItemStore struct {
	mu    sync.RWMutex
	items map[int]*entity.Item
}

func NewItemStore(seed ...entity.Item) *ItemStore {
	s := &ItemStore{items: make(map[int]*entity.Item, len(seed))}
	for i := range seed {
		it := seed[i]
		s.items[it.Id] = &it
	}
	return s
}

// DefaultItems 默认种子数据
func DefaultItems() []entity.Item {
	return []entity.Item{
		{Id: 1, Name: "Embarassing Moment Rememberizer", Description: "Reminds victims of the incident from kindergarten", Inventory: 5, Price: 49.99},
		{Id: 2, Name: "Cauliflowerizer", Description: "Turns mash potatoes into mashed cauliflower", Inventory: 25, Price: 19.99},
		{Id: 3, Name: "Moon Vaporizer", Description: "Vaporizes moon", Inventory: 2, Price: 5000.00},
	}
}

// List 按 id 升序
func (s *ItemStore) List() []entity.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Decrement 扣减库存，返回扣减后的商品
func (s *ItemStore) Decrement(id, amount int) (entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return entity.Item{}, ErrItemNotFound
	}
	if it.Inventory < amount {
		return *it, ErrInsufficientInventory
	}
	it.Inventory -= amount
	return *it, nil
}
