package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddTwiceAccumulates(t *testing.T) {
	c := NewCart().Add(5).Add(5)

	assert.Equal(t, 2, c.Quantity(5))
	assert.Equal(t, 1, c.Len())
}

func TestCart_MutationsDoNotChangeReceiver(t *testing.T) {
	base := NewCart().Add(1)

	_ = base.Add(1)
	_ = base.SetQuantity(2, 4)
	_ = base.Remove(1)
	_ = base.Clear()

	assert.Equal(t, 1, base.Quantity(1))
	assert.Equal(t, 1, base.Len())
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     int
		wantLen  int
	}{
		{name: "positive sets", quantity: 7, want: 7, wantLen: 2},
		{name: "zero removes", quantity: 0, want: 0, wantLen: 1},
		{name: "negative removes", quantity: -3, want: 0, wantLen: 1},
		{name: "at the cap", quantity: MaxQuantity, want: MaxQuantity, wantLen: 2},
		{name: "above the cap is clamped", quantity: 1 << 30, want: MaxQuantity, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCart().Add(1).Add(2).SetQuantity(2, tt.quantity)

			assert.Equal(t, tt.want, c.Quantity(2))
			assert.Equal(t, tt.wantLen, c.Len())
		})
	}
}

func TestCart_QuantityNeverExceedsCap(t *testing.T) {
	c := NewCart().SetQuantity(1, MaxQuantity).Add(1)
	assert.Equal(t, MaxQuantity, c.Quantity(1))

	c = CartFrom(CartEntry{ProductID: 2, Quantity: MaxQuantity}, CartEntry{ProductID: 2, Quantity: MaxQuantity})
	assert.Equal(t, MaxQuantity, c.Quantity(2))

	var decoded Cart
	require.NoError(t, json.Unmarshal([]byte(`[{"product_id":3,"quantity":3000000000}]`), &decoded))
	assert.Equal(t, MaxQuantity, decoded.Quantity(3))
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	c := NewCart().Add(1).Remove(99)

	assert.Equal(t, []CartEntry{{ProductID: 1, Quantity: 1}}, c.Entries())
}

func TestCart_NeverHoldsNonPositiveQuantity(t *testing.T) {
	c := NewCart()
	ops := []func(Cart) Cart{
		func(c Cart) Cart { return c.Add(1) },
		func(c Cart) Cart { return c.SetQuantity(1, -1) },
		func(c Cart) Cart { return c.SetQuantity(2, 0) },
		func(c Cart) Cart { return c.Add(3) },
		func(c Cart) Cart { return c.SetQuantity(3, 10) },
		func(c Cart) Cart { return c.Remove(3) },
		func(c Cart) Cart { return c.Add(4) },
	}
	for _, op := range ops {
		c = op(c)
		for _, e := range c.Entries() {
			require.Positive(t, e.Quantity, "product %d", e.ProductID)
		}
	}

	assert.Equal(t, []CartEntry{{ProductID: 4, Quantity: 1}}, c.Entries())
}

func TestCart_EntriesSortedByProductID(t *testing.T) {
	c := NewCart().Add(30).Add(10).Add(20)

	assert.Equal(t, []int64{10, 20, 30}, c.ProductIDs())
}

func TestCart_SnapshotIsIndependent(t *testing.T) {
	c := NewCart().Add(1)
	snap := c.Snapshot()
	c = c.Add(1).Add(2)

	assert.Equal(t, 1, snap.Quantity(1))
	assert.Equal(t, 0, snap.Quantity(2))
}

func TestCartFrom_DropsNonPositive(t *testing.T) {
	c := CartFrom(
		CartEntry{ProductID: 1, Quantity: 2},
		CartEntry{ProductID: 2, Quantity: 0},
		CartEntry{ProductID: 3, Quantity: -1},
		CartEntry{ProductID: 1, Quantity: 1},
	)

	assert.Equal(t, []CartEntry{{ProductID: 1, Quantity: 3}}, c.Entries())
}

func TestCart_JSONRoundTripDropsBadEntries(t *testing.T) {
	var c Cart
	err := json.Unmarshal([]byte(`[{"product_id":2,"quantity":3},{"product_id":4,"quantity":0}]`), &c)
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":2,"quantity":3}]`, string(data))
}

func TestCart_ZeroValueIsEmpty(t *testing.T) {
	var c Cart

	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1, c.Add(7).Quantity(7))
}
