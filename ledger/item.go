// Package ledger holds the in-memory line-item collection that a workboard
// session reviews and eventually commits. Items are addressed by position:
// within one session the index is an item's only identity, so every
// structural change (insert, delete, replace, append) re-packs the indices.
package ledger

import "github.com/shopspring/decimal"

// Origin records how a line-item entered the ledger.
type Origin string

const (
	// OriginExtracted marks items produced by the remote analyze service.
	OriginExtracted Origin = "extracted"
	// OriginManual marks items the user added by hand.
	OriginManual Origin = "manual"
)

// LineItem is one editable accounting entry. Account fields may stay empty
// until classification (remote prediction or user edit) fills them in.
type LineItem struct {
	Date          string          `json:"date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Counterparty  string          `json:"counterparty"`
	Memo          string          `json:"memo"`
	Origin        Origin          `json:"origin"`
	Duplicate     bool            `json:"is_duplicate"`
}

// Editable field names accepted by Ledger.UpdateField.
const (
	FieldDate          = "date"
	FieldDebitAccount  = "debit_account"
	FieldCreditAccount = "credit_account"
	FieldAmount        = "amount"
	FieldCounterparty  = "counterparty"
	FieldMemo          = "memo"
)
