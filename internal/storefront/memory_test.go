package storefront

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/account"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/orders"
)

type memCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

func newMemCatalog(products ...domain.Product) *memCatalog {
	m := &memCatalog{products: map[int64]domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *memCatalog) Search(_ context.Context, term string) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(term)
	out := []domain.Product{}
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) GetByID(_ context.Context, id int64) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *memCatalog) GetMany(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[int64]domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memCatalog) Create(_ context.Context, p *domain.Product) error {
	if p.Price.IsNegative() {
		return catalog.ErrInvalidPrice
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().UTC()
	m.products[p.ID] = *p
	return nil
}

func (m *memCatalog) UpdatePrice(_ context.Context, id int64, price decimal.Decimal) (domain.Product, error) {
	if price.IsNegative() {
		return domain.Product{}, catalog.ErrInvalidPrice
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, catalog.ErrProductNotFound
	}
	p.Price = price
	m.products[id] = p
	return p, nil
}

type memUsers struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, ok := m.users[key]; ok {
		return account.ErrUsernameTaken
	}
	u.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	u.CreatedAt = time.Now().UTC()
	m.users[key] = *u
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(username)]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &u, nil
}

// memOrders mirrors the transactional contract of the Postgres repository:
// nothing is kept unless finalize succeeds.
type memOrders struct {
	mu     sync.Mutex
	orders []domain.Order
	clock  time.Time
}

func (m *memOrders) Create(ctx context.Context, order *domain.Order, finalize func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := *order
	staged.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", len(m.orders)+1)
	m.clock = m.clock.Add(time.Second)
	staged.CreatedAt = m.clock
	staged.Items = append([]domain.OrderItem(nil), order.Items...)
	for i := range staged.Items {
		staged.Items[i].ID = fmt.Sprintf("%s-item-%d", staged.ID, i)
		staged.Items[i].OrderID = staged.ID
	}

	if finalize != nil {
		if err := finalize(ctx); err != nil {
			return err
		}
	}

	m.orders = append(m.orders, staged)
	*order = staged
	return nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) GetForUser(_ context.Context, userID, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}
