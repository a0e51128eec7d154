package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository interface {
	Search(ctx context.Context, term string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (domain.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (domain.Product, error)
}

// Listing is the result of a browse request.
type Listing struct {
	Products     []domain.Product `json:"products"`
	SearchActive bool             `json:"search_active"`
	Query        string           `json:"query"`
}

type Service struct {
	repo   Repository
	group  singleflight.Group
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// searchTimeout bounds a shared search, which does not end with the request
// that started it.
const searchTimeout = 5 * time.Second

// List returns every product, or only those matching query when it has
// non-space content. Identical concurrent searches share one query.
func (s *Service) List(ctx context.Context, query string) (*Listing, error) {
	term := strings.TrimSpace(query)

	leader := false
	ch := s.group.DoChan("search:"+strings.ToLower(term), func() (any, error) {
		leader = true
		searchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchTimeout)
		defer cancel()
		return s.repo.Search(searchCtx, term)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared && !leader {
		s.logger.Debug("joined product search", "query", term)
	}

	products := res.Val.([]domain.Product)
	if res.Shared {
		products = append([]domain.Product(nil), products...)
	}

	return &Listing{
		Products:     products,
		SearchActive: term != "",
		Query:        query,
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return s.repo.GetMany(ctx, ids)
}

func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info("product created", "product_id", p.ID, "price", p.Price.StringFixed(2))
	return nil
}

func (s *Service) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (domain.Product, error) {
	p, err := s.repo.UpdatePrice(ctx, id, price)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product price updated", "product_id", id, "price", price.StringFixed(2))
	return p, nil
}
