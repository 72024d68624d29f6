package repository

import (
	"context"

	"VectorOps/internal/modules/market/domain/entity"
)

// MarketRepository 查不到时返回 gorm.ErrRecordNotFound
type MarketRepository interface {
	CreateStock(ctx context.Context, stock *entity.Stock) error
	GetStock(ctx context.Context, ticker string) (*entity.Stock, error)
	ListStocks(ctx context.Context) ([]entity.Stock, error)
	CreatePrice(ctx context.Context, price *entity.StockPrice) error
	GetPrice(ctx context.Context, ticker string) (*entity.StockPrice, error)
}
