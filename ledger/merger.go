package ledger

import "github.com/rs/zerolog/log"

// Target is one prediction candidate: the row index plus the free-text
// fields the classifier works from.
type Target struct {
	Index        int    `json:"index"`
	Counterparty string `json:"counterparty"`
	Memo         string `json:"memo"`
}

// Snapshot is the target list for one prediction request, stamped with the
// ledger's structural version at selection time. The indices are only
// meaningful against that version; the ledger may move on while the request
// is in flight.
type Snapshot struct {
	Targets []Target
	Version uint64
}

// Patch is a sparse, index-targeted update to one item's account fields.
// Nil fields are absent: a patch may carry either account or both.
type Patch struct {
	Index  int     `json:"index"`
	Debit  *string `json:"debit,omitempty"`
	Credit *string `json:"credit,omitempty"`
}

// SelectTargets picks every item whose debit and credit accounts are both
// empty and that has a counterparty or a memo to classify from. The
// predicate runs fresh against current ledger state on every call; nothing
// is cached.
func SelectTargets(l *Ledger) Snapshot {
	snap := Snapshot{Version: l.Version()}
	for i, item := range l.items {
		if item.DebitAccount != "" || item.CreditAccount != "" {
			continue
		}
		if item.Counterparty == "" && item.Memo == "" {
			continue
		}
		snap.Targets = append(snap.Targets, Target{
			Index:        i,
			Counterparty: item.Counterparty,
			Memo:         item.Memo,
		})
	}
	return snap
}

// ApplyPatches folds prediction patches back into the ledger and returns
// how many applied. Patches are positional: the only safety check is a
// bounds check, so a patch whose index fell off the end (a row was deleted
// mid-flight) is silently skipped and not counted. A patch that is still
// in range after a structural change lands on whatever row holds that index
// now; SelectTargets stamps the snapshot version so callers can at least
// log that hazard.
func ApplyPatches(l *Ledger, patches []Patch) int {
	applied := 0
	for _, p := range patches {
		if p.Index < 0 || p.Index >= len(l.items) {
			log.Debug().Int("index", p.Index).Int("len", len(l.items)).
				Msg("Skipping out-of-range prediction patch")
			continue
		}
		if p.Debit != nil {
			l.items[p.Index].DebitAccount = *p.Debit
		}
		if p.Credit != nil {
			l.items[p.Index].CreditAccount = *p.Credit
		}
		applied++
	}
	if applied > 0 {
		l.notify()
	}
	return applied
}
