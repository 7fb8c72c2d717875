package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(counterparty, memo string) LineItem {
	return LineItem{
		Date:         "2024-01-01",
		Counterparty: counterparty,
		Memo:         memo,
		Amount:       decimal.Zero,
		Origin:       OriginExtracted,
	}
}

func TestAppendAll_PreservesCallOrder(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", ""), item("b", "")})
	l.AppendAll([]LineItem{item("c", "")})
	l.AppendAll(nil)
	l.AppendAll([]LineItem{item("d", ""), item("e", "")})

	items := l.Items()
	require.Len(t, items, 5)
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, want, items[i].Counterparty)
	}
}

func TestReplaceAll_DiscardsPrevious(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("old", "")})
	l.ReplaceAll([]LineItem{item("new1", ""), item("new2", "")})

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "new1", items[0].Counterparty)
	assert.Equal(t, "new2", items[1].Counterparty)
}

func TestDeleteAt_ShiftsLeft(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", ""), item("b", ""), item("c", "")})

	l.DeleteAt(1)

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Counterparty)
	assert.Equal(t, "c", items[1].Counterparty)
}

func TestDeleteAt_OutOfRange(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", "")})
	v := l.Version()

	l.DeleteAt(-1)
	l.DeleteAt(5)

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, v, l.Version(), "no-op delete must not bump the structural version")
}

func TestInsertManual(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", "")})

	idx := l.InsertManual("2024-02-29")

	assert.Equal(t, 1, idx)
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, OriginManual, items[1].Origin)
	assert.Equal(t, "2024-02-29", items[1].Date)
	assert.True(t, items[1].Amount.IsZero())
	assert.Empty(t, items[1].DebitAccount)
	assert.Empty(t, items[1].CreditAccount)
}

func TestUpdateField(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", "")})

	l.UpdateField(0, FieldDebitAccount, "Travel")
	l.UpdateField(0, FieldAmount, "1234.56")

	got := l.Items()[0]
	assert.Equal(t, "Travel", got.DebitAccount)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1234.56")))
}

func TestUpdateField_OutOfRangeIsNoOp(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", "keep")})
	before := l.Items()

	l.UpdateField(3, FieldMemo, "changed")
	l.UpdateField(-1, FieldMemo, "changed")

	assert.Equal(t, before, l.Items())
	assert.Equal(t, 1, l.Len())
}

func TestUpdateField_UnknownFieldIsNoOp(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{item("a", "keep")})
	before := l.Items()

	l.UpdateField(0, "color", "red")
	l.UpdateField(0, FieldAmount, "not a number")

	assert.Equal(t, before, l.Items())
}

func TestVersion_StructuralOnly(t *testing.T) {
	l := New()
	v0 := l.Version()

	l.AppendAll([]LineItem{item("a", "")})
	v1 := l.Version()
	assert.Greater(t, v1, v0)

	l.UpdateField(0, FieldMemo, "edited")
	assert.Equal(t, v1, l.Version(), "field edits are not structural")

	l.InsertManual("2024-01-02")
	v2 := l.Version()
	assert.Greater(t, v2, v1)

	l.DeleteAt(0)
	assert.Greater(t, l.Version(), v2)
}

func TestSubscribe_NotifiedOnMutation(t *testing.T) {
	l := New()
	var calls int
	l.Subscribe(func() { calls++ })

	l.AppendAll([]LineItem{item("a", "")})
	l.UpdateField(0, FieldMemo, "m")
	l.DeleteAt(0)

	assert.Equal(t, 3, calls)
}
