// Package pricing turns a cart snapshot into priced lines and a total.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product in cart not found")

// Lookup resolves products by id. Missing ids are left out of the result.
type Lookup interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// Price prices every entry of snapshot at the catalog's current price.
// If any product no longer exists the whole call fails and no quote is
// returned.
func Price(ctx context.Context, snapshot domain.Cart, lookup Lookup) (*domain.Quote, error) {
	entries := snapshot.Entries()
	quote := &domain.Quote{Lines: make([]domain.CartLine, 0, len(entries)), Total: decimal.Zero}
	if len(entries) == 0 {
		return quote, nil
	}

	products, err := lookup.GetMany(ctx, snapshot.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	for _, e := range entries {
		p, ok := products[e.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", e.ProductID, ErrProductNotFound)
		}
		line := domain.CartLine{
			Product:   p,
			Quantity:  e.Quantity,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(e.Quantity))),
		}
		quote.Lines = append(quote.Lines, line)
		quote.Total = quote.Total.Add(line.LineTotal)
	}

	return quote, nil
}
