package persistence

import (
	"context"

	"VectorOps/internal/modules/market/domain/entity"
	"VectorOps/internal/modules/market/domain/repository"

	"gorm.io/gorm"
)

type marketRepositoryImpl struct {
	db *gorm.DB
}

func NewMarketRepository(db *gorm.DB) repository.MarketRepository {
	return &marketRepositoryImpl{db: db}
}

func (r *marketRepositoryImpl) CreateStock(ctx context.Context, stock *entity.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *marketRepositoryImpl) GetStock(ctx context.Context, ticker string) (*entity.Stock, error) {
	var s entity.Stock
	if err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *marketRepositoryImpl) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *marketRepositoryImpl) CreatePrice(ctx context.Context, price *entity.StockPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *marketRepositoryImpl) GetPrice(ctx context.Context, ticker string) (*entity.StockPrice, error) {
	var p entity.StockPrice
	if err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
