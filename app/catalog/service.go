package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dam/supermarket/models"
)

// ProductStore is the data access the service forwards to.
// *models.ProductsRepository satisfies it.
type ProductStore interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	Save(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p models.Product) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	FindByCategory(ctx context.Context, category string) ([]models.Product, error)
	FindByNameContaining(ctx context.Context, fragment string) ([]models.Product, error)
	FindByPriceLessThanOrEqual(ctx context.Context, maxPrice decimal.Decimal) ([]models.Product, error)
	FindByStockPositive(ctx context.Context) ([]models.Product, error)
	FindAllCategories(ctx context.Context) ([]string, error)
	FindAllOrderedByPrice(ctx context.Context) ([]models.Product, error)
}

// ErrNilProduct is returned by Create when it is given no product.
var ErrNilProduct = errors.New("product is nil")

// Observer receives the outcome of every service call.
// *metrics.Recorder satisfies it.
type Observer interface {
	Observe(operation string, start time.Time, err error)
}

type Option func(*ProductService)

func WithLogger(log *zap.Logger) Option {
	return func(s *ProductService) { s.log = log }
}

func WithObserver(o Observer) Option {
	return func(s *ProductService) { s.observer = o }
}

// ProductService is the call surface consumers use. It adds no rules of
// its own: every call goes straight to the store, and update/delete row
// counts are reported as success flags.
type ProductService struct {
	store    ProductStore
	log      *zap.Logger
	observer Observer
}

func NewProductService(store ProductStore, opts ...Option) *ProductService {
	s := &ProductService{
		store: store,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindAll(ctx)
	s.done("list_all", start, err, zap.Int("found", len(products)))
	return products, err
}

// GetByID returns models.ErrProductNotFound when the id does not exist.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	start := time.Now()
	product, err := s.store.FindByID(ctx, id)
	s.done("get_by_id", start, err, zap.Int64("id", id))
	return product, err
}

func (s *ProductService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	start := time.Now()
	if p == nil {
		s.done("create", start, ErrNilProduct)
		return nil, ErrNilProduct
	}
	saved, err := s.store.Save(ctx, p)
	fields := []zap.Field{zap.String("name", p.Name)}
	if saved != nil {
		fields = append(fields, zap.Int64("id", saved.ID))
	}
	s.done("create", start, err, fields...)
	return saved, err
}

// Update reports whether a row with p.ID existed.
func (s *ProductService) Update(ctx context.Context, p models.Product) (bool, error) {
	start := time.Now()
	n, err := s.store.Update(ctx, p)
	s.done("update", start, err, zap.Int64("id", p.ID), zap.Int64("affected", n))
	return n > 0, err
}

// DeleteByID reports whether a row was removed.
func (s *ProductService) DeleteByID(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	n, err := s.store.DeleteByID(ctx, id)
	s.done("delete_by_id", start, err, zap.Int64("id", id), zap.Int64("affected", n))
	return n > 0, err
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.store.Count(ctx)
	s.done("count", start, err, zap.Int64("total", n))
	return n, err
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindByCategory(ctx, category)
	s.done("list_by_category", start, err, zap.String("category", category), zap.Int("found", len(products)))
	return products, err
}

func (s *ProductService) SearchByName(ctx context.Context, fragment string) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindByNameContaining(ctx, fragment)
	s.done("search_by_name", start, err, zap.String("fragment", fragment), zap.Int("found", len(products)))
	return products, err
}

func (s *ProductService) ListByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindByPriceLessThanOrEqual(ctx, maxPrice)
	s.done("list_by_max_price", start, err, zap.Stringer("max_price", maxPrice), zap.Int("found", len(products)))
	return products, err
}

// ListAvailable returns products with stock left.
func (s *ProductService) ListAvailable(ctx context.Context) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindByStockPositive(ctx)
	s.done("list_available", start, err, zap.Int("found", len(products)))
	return products, err
}

func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	categories, err := s.store.FindAllCategories(ctx)
	s.done("list_categories", start, err, zap.Int("found", len(categories)))
	return categories, err
}

func (s *ProductService) ListAllByPrice(ctx context.Context) ([]models.Product, error) {
	start := time.Now()
	products, err := s.store.FindAllOrderedByPrice(ctx)
	s.done("list_all_by_price", start, err, zap.Int("found", len(products)))
	return products, err
}

// done is the single narration point; the data calls above stay free of it.
func (s *ProductService) done(operation string, start time.Time, err error, fields ...zap.Field) {
	if s.observer != nil {
		s.observer.Observe(operation, start, err)
	}

	fields = append(fields, zap.String("operation", operation), zap.Duration("elapsed", time.Since(start)))
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		s.log.Info("product not found", fields...)
	case err != nil:
		s.log.Warn("catalog operation failed", append(fields, zap.Error(err))...)
	default:
		s.log.Debug("catalog operation", fields...)
	}
}
