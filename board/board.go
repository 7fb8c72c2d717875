// Package board is the per-session workboard core: one Board owns the
// ledger, the credential lifecycle, and the sync gateway for a single user
// session, and exposes the commands a front end invokes. Commands are
// serialized by one mutex, the Go analog of the single-threaded event loop
// the positional-identity contract assumes. Network calls run outside the
// lock, so several requests can be outstanding while the user keeps
// editing; their results are folded back in under the lock.
package board

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/openclerk/sheetboard/config"
	"github.com/openclerk/sheetboard/gateway"
	"github.com/openclerk/sheetboard/history"
	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/prom"
	"github.com/openclerk/sheetboard/session"
)

// Board is one user session's workboard.
type Board struct {
	mu     sync.Mutex
	cfg    *config.Store
	sess   *session.Manager
	gw     *gateway.Gateway
	ledger *ledger.Ledger

	journal *history.Journal // shared, may be nil
}

// Deps are the session-independent collaborators a Board is built over.
type Deps struct {
	Config     *config.Store
	Authorizer session.Authorizer
	Revoker    session.Revoker
	Journal    *history.Journal
	HTTPClient *http.Client
	GatewayOpt []gateway.Option
}

// New builds a Board with its own ledger, credential store, and gateway.
// Instantiate one per user session.
func New(deps Deps) *Board {
	b := &Board{
		cfg:     deps.Config,
		ledger:  ledger.New(),
		journal: deps.Journal,
	}
	b.sess = session.NewManager(
		session.NewMemoryStore(),
		deps.Authorizer,
		deps.Revoker,
		session.WithResetSignal(b.Reset),
	)
	b.gw = gateway.New(deps.HTTPClient, deps.Config, b.sess, deps.GatewayOpt...)
	return b
}

// Session exposes the credential lifecycle manager.
func (b *Board) Session() *session.Manager { return b.sess }

// Subscribe registers an observer on the underlying ledger.
func (b *Board) Subscribe(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.Subscribe(fn)
}

// Reset is the cold-reload equivalent: ledger emptied, session caches
// dropped. Wired to the session manager's reset signal so revocation
// always lands here.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.Clear()
	b.gw.ResetCache()
	log.Info().Msg("Workboard reset")
}

// Login runs the interactive authorization flow.
func (b *Board) Login(ctx context.Context) (session.Credential, error) {
	return b.sess.BeginAuthorization(ctx)
}

// LoginWithToken caches a token granted by a consent flow that completed in
// the front end, with the server-declared lifetime.
func (b *Board) LoginWithToken(token string, lifetime time.Duration) session.Credential {
	return b.sess.Install(token, lifetime)
}

// Logout revokes the session. Local state is cleared even when the remote
// revocation fails.
func (b *Board) Logout(ctx context.Context) error {
	return b.sess.Revoke(ctx)
}

// Items returns the current ledger contents.
func (b *Board) Items() []ledger.LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Items()
}

// InsertRow appends an empty manual row with the given date and returns
// its index.
func (b *Board) InsertRow(date string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.InsertManual(date)
}

// UpdateField edits one field of one row. Out-of-range edits are no-ops.
func (b *Board) UpdateField(index int, field, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.UpdateField(index, field, value)
}

// DeleteRow removes one row, shifting later rows down.
func (b *Board) DeleteRow(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.DeleteAt(index)
}

// Analyze sends the files to the extraction service and installs the
// result: a full replace normally, an append when appendMode is set. On
// failure the ledger is untouched.
func (b *Board) Analyze(ctx context.Context, files []gateway.File, appendMode bool) ([]ledger.LineItem, error) {
	items, err := b.gw.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if appendMode {
		b.ledger.AppendAll(items)
	} else {
		b.ledger.ReplaceAll(items)
	}
	return items, nil
}

// Predict selects the unclassified rows, requests account predictions for
// them, and folds the resulting patches back in, reporting how many
// applied. The ledger is free to change while the request is in flight:
// indices that fell off the end are skipped, and a structural version
// mismatch is logged because surviving in-range patches may land on
// shifted rows.
func (b *Board) Predict(ctx context.Context) (int, error) {
	b.mu.Lock()
	snap := ledger.SelectTargets(b.ledger)
	b.mu.Unlock()

	patches, err := b.gw.Predict(ctx, snap)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if snap.Version != b.ledger.Version() {
		log.Warn().Uint64("snapshot", snap.Version).Uint64("ledger", b.ledger.Version()).
			Msg("Ledger changed while prediction was in flight; in-range patches may land on shifted rows")
	}
	applied := ledger.ApplyPatches(b.ledger, patches)
	prom.AppliedPatches.Add(float64(applied))
	log.Info().Int("applied", applied).Int("patches", len(patches)).
		Msgf("🤖 Applied %d of %d account predictions", applied, len(patches))
	return applied, nil
}

// Save commits the current ledger as one write to the spreadsheet store,
// records the commit in the local history journal, and clears the board.
// On failure the ledger stays intact for retry.
func (b *Board) Save(ctx context.Context) error {
	b.mu.Lock()
	items := b.ledger.Items()
	b.mu.Unlock()

	if err := b.gw.Save(ctx, items); err != nil {
		return err
	}

	if b.journal != nil {
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Amount)
		}
		if err := b.journal.Record(b.cfg.Load().SpreadsheetID, len(items), total); err != nil {
			// The commit itself succeeded; a history miss is not worth
			// failing the command over.
			prom.ProgramErrors.Inc()
			log.Error().Err(err).Msg("Could not record commit in history journal")
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.Clear()
	return nil
}

// Accounts returns the cached account-name hints.
func (b *Board) Accounts(ctx context.Context) ([]string, error) {
	return b.gw.Accounts(ctx)
}
