package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_MergesExistingLine(t *testing.T) {
	c := New("sess-1")

	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 1}))
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 2}))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 3, c.Count())
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	c := New("sess-1")

	assert.ErrorIs(t, c.Add(Item{ProductID: 1, Quantity: 0}), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(Item{ProductID: 0, Quantity: 1}), ErrInvalidProduct)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity_ClampsToOne(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 7, Name: "shirt", UnitPrice: 1500, Quantity: 4}))

	c.SetQuantity(7, 0)

	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestSetQuantity_UnknownProductIsNoop(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 7, Name: "shirt", UnitPrice: 1500, Quantity: 4}))

	c.SetQuantity(99, 2)

	assert.Equal(t, 4, c.Items[0].Quantity)
}

func TestRemove(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 1}))
	require.NoError(t, c.Add(Item{ProductID: 2, Name: "shirt", UnitPrice: 1500, Quantity: 2}))

	c.Remove(1)

	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].ProductID)
}

func TestTotal(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 3}))
	require.NoError(t, c.Add(Item{ProductID: 2, Name: "shirt", UnitPrice: 1500, Quantity: 2}))

	assert.Equal(t, int64(4500), c.Total())
}

func TestClear(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 1}))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
}

func TestClone_IsIndependent(t *testing.T) {
	c := New("sess-1")
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 1}))

	clone := c.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, c.Items[0].Quantity)
}
