package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupLine(batchID, membershipID uint, qty, limit int) GroupBuyLine {
	return GroupBuyLine{
		BatchID:        batchID,
		BatchProductID: membershipID,
		ProductID:      membershipID + 100,
		ProductName:    "BPC-157",
		PricePerVial:   models.NewMoney(200),
		Qty:            qty,
		Max:            limit,
	}
}

func TestAddClampsToRemainingCapacity(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 8, 6)))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 6, lines[0].Quantity())
	assert.Equal(t, constants.PurchaseModeGroupBuy, c.Mode())
	assert.Equal(t, uint(1), c.BatchID())
	assert.Equal(t, "1200.00", c.Subtotal().String())
}

func TestAddMergesSameMembership(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 2, 5)))
	require.NoError(t, c.Add(groupLine(1, 10, 2, 5)))
	require.NoError(t, c.Add(groupLine(1, 10, 4, 5)))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.Lines()[0].Quantity())
}

func TestAddRejectsFullMembership(t *testing.T) {
	c := New("c1")
	assert.ErrorIs(t, c.Add(groupLine(1, 10, 1, 0)), ErrNoCapacity)
	assert.ErrorIs(t, c.Add(groupLine(1, 10, 0, 5)), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestModeSwitchClearsPreviousLines(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 2, 5)))
	require.NoError(t, c.Add(IndividualLine{ProductID: 3, Unit: constants.UnitBox, UnitPrice: models.NewMoney(1800), VialsPerBox: 10, Qty: 1}))

	assert.Equal(t, constants.PurchaseModeIndividual, c.Mode())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, uint(0), c.BatchID())
	assert.Equal(t, 10, c.TotalVials())

	require.NoError(t, c.Add(groupLine(2, 20, 1, 5)))
	require.NoError(t, c.Add(groupLine(3, 30, 1, 5)))
	assert.Equal(t, uint(3), c.BatchID())
	assert.Equal(t, 1, c.Len())
}

func TestSetQuantityAndRemove(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 2, 6)))
	key := c.Lines()[0].Key()

	got, err := c.SetQuantity(key, 9)
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	got, err = c.SetQuantity(key, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.Mode())

	_, err = c.SetQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.False(t, c.Remove("missing"))
}

func TestReconcileShrinksAndDropsLines(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 4, 6)))
	require.NoError(t, c.Add(groupLine(1, 11, 3, 5)))
	require.NoError(t, c.Add(groupLine(1, 12, 2, 5)))

	changed := c.Reconcile(map[uint]int{10: 2, 11: 5})

	assert.ElementsMatch(t, []string{"m10", "m12"}, changed)
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity())
	assert.Equal(t, 2, lines[0].MaxQuantity())
	assert.Equal(t, 3, lines[1].Quantity())

	assert.Empty(t, c.Reconcile(map[uint]int{10: 2, 11: 5}))
	c.Reconcile(map[uint]int{})
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.Mode())
}

func TestJSONKeepsVariants(t *testing.T) {
	c := New("c1")
	require.NoError(t, c.Add(SubGroupLine{RegionID: 4, BatchID: 9, BatchProductID: 90, ProductID: 5, PricePerVial: models.NewMoney(150), Qty: 3, Max: 10}))

	payload, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"key":"m90"`)
	assert.Contains(t, string(payload), `"subtotal":"450.00"`)

	var restored Cart
	require.NoError(t, json.Unmarshal(payload, &restored))
	require.Equal(t, 1, restored.Len())
	line, ok := restored.Lines()[0].(SubGroupLine)
	require.True(t, ok)
	assert.Equal(t, uint(4), line.RegionID)
	assert.Equal(t, 3, line.Qty)
	assert.Equal(t, uint(9), restored.BatchID())
}

func TestDecodeLineUnknownMode(t *testing.T) {
	_, err := DecodeLine("bulk", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	c := New("c1")
	require.NoError(t, c.Add(groupLine(1, 10, 2, 5)))
	require.NoError(t, store.Save(context.Background(), c))

	loaded, err := store.Load(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Lines()[0].Quantity())

	now = now.Add(2 * time.Minute)
	loaded, err = store.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
