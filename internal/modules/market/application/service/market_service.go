package service

import (
	"context"
	"errors"
	"strings"

	"VectorOps/internal/modules/market/application/dto/request"
	"VectorOps/internal/modules/market/domain/entity"
	"VectorOps/internal/modules/market/domain/repository"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errTickerExists  = xerr.New(xerr.BadRequest, "Ticker already exists")
	errStockNotFound = xerr.New(xerr.NotFound, "Stock not found")
	errPriceNotFound = xerr.New(xerr.NotFound, "Price not found for the given ticker")
)

type MarketService interface {
	CreateStock(ctx context.Context, req request.CreateStockRequest) (*entity.Stock, error)
	ListStocks(ctx context.Context) ([]entity.Stock, error)
	GetStock(ctx context.Context, ticker string) (*entity.Stock, error)
	CreatePrice(ctx context.Context, req request.CreatePriceRequest) (*entity.StockPrice, error)
	GetPrice(ctx context.Context, ticker string) (*entity.StockPrice, error)
}

type marketServiceImpl struct {
	repo repository.MarketRepository
}

func NewMarketService(repo repository.MarketRepository) MarketService {
	return &marketServiceImpl{repo: repo}
}

func (s *marketServiceImpl) CreateStock(ctx context.Context, req request.CreateStockRequest) (*entity.Stock, error) {
	ticker := strings.TrimSpace(req.Ticker)
	if _, err := s.repo.GetStock(ctx, ticker); err == nil {
		return nil, errTickerExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Error("lookup stock failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	stock := &entity.Stock{
		Ticker:      ticker,
		CompanyName: req.CompanyName,
		Sector:      req.Sector,
		FoundedYear: req.FoundedYear,
	}
	if err := s.repo.CreateStock(ctx, stock); err != nil {
		zlog.Error("create stock failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return stock, nil
}

func (s *marketServiceImpl) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	stocks, err := s.repo.ListStocks(ctx)
	if err != nil {
		zlog.Error("list stocks failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if stocks == nil {
		stocks = []entity.Stock{}
	}
	return stocks, nil
}

func (s *marketServiceImpl) GetStock(ctx context.Context, ticker string) (*entity.Stock, error) {
	stock, err := s.repo.GetStock(ctx, ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errStockNotFound
		}
		return nil, xerr.ErrServerError
	}
	return stock, nil
}

func (s *marketServiceImpl) CreatePrice(ctx context.Context, req request.CreatePriceRequest) (*entity.StockPrice, error) {
	ticker := strings.TrimSpace(req.Ticker)
	if _, err := s.repo.GetPrice(ctx, ticker); err == nil {
		return nil, errTickerExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Error("lookup price failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	price := &entity.StockPrice{Ticker: ticker, High: req.High, Low: req.Low}
	if err := s.repo.CreatePrice(ctx, price); err != nil {
		zlog.Error("create price failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return price, nil
}

// GetPrice 先确认股票存在，再查价格
func (s *marketServiceImpl) GetPrice(ctx context.Context, ticker string) (*entity.StockPrice, error) {
	if _, err := s.GetStock(ctx, ticker); err != nil {
		return nil, err
	}
	price, err := s.repo.GetPrice(ctx, ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPriceNotFound
		}
		return nil, xerr.ErrServerError
	}
	return price, nil
}
