package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestSelectTargets_Predicate(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{
		{Counterparty: "Acme", Memo: ""},                    // eligible
		{DebitAccount: "X", Counterparty: "Acme", Memo: ""}, // debit set
		{CreditAccount: "Y", Counterparty: "Acme"},          // credit set
		{Counterparty: "", Memo: ""},                        // nothing to classify from
		{Counterparty: "", Memo: "taxi fare"},               // memo alone is enough
	})

	snap := SelectTargets(l)

	require.Len(t, snap.Targets, 2)
	assert.Equal(t, 0, snap.Targets[0].Index)
	assert.Equal(t, "Acme", snap.Targets[0].Counterparty)
	assert.Equal(t, 4, snap.Targets[1].Index)
	assert.Equal(t, "taxi fare", snap.Targets[1].Memo)
	assert.Equal(t, l.Version(), snap.Version)
}

func TestSelectTargets_RecomputedFresh(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{{Counterparty: "Acme"}})
	require.Len(t, SelectTargets(l).Targets, 1)

	l.UpdateField(0, FieldDebitAccount, "Travel")
	assert.Empty(t, SelectTargets(l).Targets, "classified rows leave the target set")
}

func TestApplyPatches(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{
		{Counterparty: "Acme"},
		{Counterparty: "Globex"},
	})

	applied := ApplyPatches(l, []Patch{
		{Index: 0, Debit: strptr("Travel")},
		{Index: 1, Debit: strptr("Meals"), Credit: strptr("Cash")},
	})

	assert.Equal(t, 2, applied)
	items := l.Items()
	assert.Equal(t, "Travel", items[0].DebitAccount)
	assert.Empty(t, items[0].CreditAccount, "absent patch field stays untouched")
	assert.Equal(t, "Meals", items[1].DebitAccount)
	assert.Equal(t, "Cash", items[1].CreditAccount)
}

func TestApplyPatches_OutOfRangeSkipped(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{{Counterparty: "Acme"}})

	applied := ApplyPatches(l, []Patch{
		{Index: 0, Debit: strptr("Travel")},
		{Index: 7, Debit: strptr("Lost")},
		{Index: -1, Credit: strptr("Lost")},
	})

	assert.Equal(t, 1, applied)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "Travel", l.Items()[0].DebitAccount)
}

func TestApplyPatches_AfterDeletion(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{{Counterparty: "Acme"}, {Counterparty: "Globex"}})

	snap := SelectTargets(l)
	require.Len(t, snap.Targets, 2)

	// A row vanishes while the prediction round-trip is in flight.
	l.DeleteAt(1)
	assert.NotEqual(t, snap.Version, l.Version())

	applied := ApplyPatches(l, []Patch{
		{Index: 0, Debit: strptr("Travel")},
		{Index: 1, Debit: strptr("Meals")},
	})

	assert.Equal(t, 1, applied, "the shifted-off patch is dropped, not misapplied past the end")
}

// The end-to-end reconciliation scenario: extract, select, patch.
func TestAppendSelectPatchScenario(t *testing.T) {
	l := New()
	l.AppendAll([]LineItem{{
		Date:         "2024-01-01",
		Amount:       decimal.NewFromInt(1000),
		Counterparty: "Acme",
		Origin:       OriginExtracted,
	}})

	snap := SelectTargets(l)
	require.Len(t, snap.Targets, 1)
	assert.Equal(t, 0, snap.Targets[0].Index)

	applied := ApplyPatches(l, []Patch{{Index: 0, Debit: strptr("Travel")}})

	assert.Equal(t, 1, applied)
	got := l.Items()[0]
	assert.Equal(t, "Travel", got.DebitAccount)
	assert.Empty(t, got.CreditAccount)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))
}
