package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	polo     = Item{ID: "1", Name: "Polo Algodón Pima", Price: 89.90, Category: "Ropa"}
	zapatos  = Item{ID: "2", Name: "Zapatillas Urbanas", Price: 249.50, Category: "Calzado"}
	mochila  = Item{ID: "3", Name: "Mochila Andina", Price: 120.00, Category: "Accesorios"}
	taxRate  = 0.18
	epsilon  = 1e-9
	tenFive  = Cart{{Item: Item{ID: "a", Price: 10}, Quantity: 2}, {Item: Item{ID: "b", Price: 5}, Quantity: 3}}
)

func TestAddNewItem(t *testing.T) {
	c := Add(nil, polo)
	require.Len(t, c, 1)
	assert.Equal(t, polo, c[0].Item)
	assert.Equal(t, 1, c[0].Quantity)

	c = Add(c, zapatos)
	require.Len(t, c, 2)
	assert.Equal(t, "1", c[0].Item.ID, "insertion order preserved")
	assert.Equal(t, "2", c[1].Item.ID)
	assert.Equal(t, 1, c[1].Quantity)
}

func TestAddExistingItemIncrementsQuantity(t *testing.T) {
	c := Add(Add(nil, polo), zapatos)
	next := Add(c, polo)

	require.Len(t, next, 2, "line count unchanged")
	assert.Equal(t, 2, next[0].Quantity)
	assert.Equal(t, 1, next[1].Quantity, "other lines unchanged")
	assert.Equal(t, 1, c[0].Quantity, "input cart untouched")
}

func TestRemoveDropsWholeLine(t *testing.T) {
	c := Add(Add(Add(nil, polo), polo), zapatos) // polo at quantity 2
	next := Remove(c, "1")

	require.Len(t, next, 1)
	assert.Equal(t, "2", next[0].Item.ID, "removal deletes the line regardless of quantity")
}

func TestRemoveAbsentIDIsNoOp(t *testing.T) {
	c := Add(Add(nil, polo), mochila)
	next := Remove(c, "missing")
	assert.Equal(t, c, next)
}

func TestComputeTotalsDecomposition(t *testing.T) {
	tot := ComputeTotals(tenFive, taxRate)

	assert.InDelta(t, 35.0, tot.Total, epsilon)
	assert.InDelta(t, 35.0/1.18, tot.Base, epsilon)
	assert.InDelta(t, tot.Total, tot.Base+tot.Tax, epsilon, "base + tax == total")
	assert.InDelta(t, 29.66, tot.Base, 0.01)
	assert.InDelta(t, 5.34, tot.Tax, 0.01)
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	tot := ComputeTotals(nil, taxRate)
	assert.Zero(t, tot.Total)
	assert.Zero(t, tot.Base)
	assert.Zero(t, tot.Tax)
}

func TestComputeTotalsRateInjectable(t *testing.T) {
	tot := ComputeTotals(tenFive, 0)
	assert.InDelta(t, 35.0, tot.Base, epsilon)
	assert.Zero(t, tot.Tax)
}

func TestCountUnits(t *testing.T) {
	assert.Equal(t, 5, CountUnits(tenFive))
	assert.Equal(t, 0, CountUnits(nil))
}

func TestContractViolationsPanic(t *testing.T) {
	assert.Panics(t, func() { Add(nil, Item{ID: "x", Price: -1}) })
	assert.Panics(t, func() { ComputeTotals(Cart{{Item: polo, Quantity: 0}}, taxRate) })
	assert.Panics(t, func() { ComputeTotals(tenFive, -0.18) })
}

func TestStoreIsolatesOwners(t *testing.T) {
	s := NewStore()
	s.Add("ana", polo)
	s.Add("ana", polo)
	s.Add("luis", zapatos)

	assert.Equal(t, 2, CountUnits(s.Get("ana")))
	assert.Equal(t, 1, CountUnits(s.Get("luis")))

	s.Remove("ana", polo.ID)
	assert.Empty(t, s.Get("ana"))
	assert.Equal(t, 1, CountUnits(s.Get("luis")))

	s.Clear("luis")
	assert.Empty(t, s.Get("luis"))
}
