package ledger

import (
	"github.com/shopspring/decimal"
)

// Ledger is an ordered, 0-indexed collection of LineItems. It is the single
// source of truth for what a commit will write. Order is append/insertion
// order except where ReplaceAll installs server order; nothing here ever
// sorts.
//
// A Ledger is not safe for concurrent use. The owning session serializes
// every mutation (one command at a time), which is the synchronization
// model the positional-identity contract depends on.
type Ledger struct {
	items     []LineItem
	version   uint64
	observers []func()
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Subscribe registers fn to run after every mutation, structural or not.
// Observers re-render from current state, so they receive no arguments.
func (l *Ledger) Subscribe(fn func()) {
	l.observers = append(l.observers, fn)
}

func (l *Ledger) notify() {
	for _, fn := range l.observers {
		fn()
	}
}

// Version is the structural version of the ledger. It is bumped by every
// operation that changes item count or order, and left alone by in-place
// field updates. Snapshots record it so stale index-addressed patches can
// be detected.
func (l *Ledger) Version() uint64 { return l.version }

// Len reports the number of items.
func (l *Ledger) Len() int { return len(l.items) }

// Items returns a copy of the current contents in order. Mutating the
// returned slice does not affect the ledger.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// ReplaceAll discards the current contents and installs items verbatim,
// preserving the given order. Used after a fresh extraction.
func (l *Ledger) ReplaceAll(items []LineItem) {
	l.items = make([]LineItem, len(items))
	copy(l.items, items)
	l.version++
	l.notify()
}

// AppendAll appends items to the end, preserving the relative order of both
// the existing and the new items. Used for "add more" extractions.
func (l *Ledger) AppendAll(items []LineItem) {
	l.items = append(l.items, items...)
	l.version++
	l.notify()
}

// InsertManual appends a new empty manual item carrying the given date and
// returns its index.
func (l *Ledger) InsertManual(date string) int {
	l.items = append(l.items, LineItem{
		Date:   date,
		Amount: decimal.Zero,
		Origin: OriginManual,
	})
	l.version++
	l.notify()
	return len(l.items) - 1
}

// UpdateField mutates exactly one field of exactly one item. An
// out-of-range index or an unknown field name is a silent no-op: the
// rendering layer redraws from current state, so divergence self-heals on
// the next render. An unparseable amount leaves the amount unchanged.
func (l *Ledger) UpdateField(index int, field, value string) {
	if index < 0 || index >= len(l.items) {
		return
	}
	item := &l.items[index]
	switch field {
	case FieldDate:
		item.Date = value
	case FieldDebitAccount:
		item.DebitAccount = value
	case FieldCreditAccount:
		item.CreditAccount = value
	case FieldCounterparty:
		item.Counterparty = value
	case FieldMemo:
		item.Memo = value
	case FieldAmount:
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return
		}
		item.Amount = amount
	default:
		return
	}
	l.notify()
}

// DeleteAt removes the item at index and shifts all subsequent items left
// by one. This is the operation that invalidates outstanding
// index-addressed patches. Out of range is a no-op.
func (l *Ledger) DeleteAt(index int) {
	if index < 0 || index >= len(l.items) {
		return
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	l.version++
	l.notify()
}

// Clear empties the ledger. Called by the session after a successful save
// or a full reset, never by the gateway.
func (l *Ledger) Clear() {
	l.items = nil
	l.version++
	l.notify()
}
