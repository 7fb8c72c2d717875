package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/openclerk/sheetboard/prom"
)

// The account list changes rarely and is only used to populate selection
// hints, so it is fetched at most once per session and kept until a full
// reset.

type accountCache struct {
	mu     sync.Mutex
	names  []string
	filled bool
}

// Accounts returns the account-name list from the remote lookup service,
// cached after the first successful fetch. Failures surface to the caller
// but are advisory: the board treats an empty hint list as acceptable.
func (g *Gateway) Accounts(ctx context.Context) ([]string, error) {
	rec, cred, err := g.precheck()
	if err != nil {
		return nil, err
	}

	g.accounts.mu.Lock()
	defer g.accounts.mu.Unlock()
	if g.accounts.filled {
		return g.accounts.names, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.Endpoints.Accounts, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	prom.APICalls.WithLabelValues("accounts").Inc()
	resp, err := g.client.Do(req)
	if err != nil {
		prom.APIErrors.WithLabelValues("accounts").Inc()
		return nil, fmt.Errorf("account list request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readReply(resp)
	if err != nil {
		prom.APIErrors.WithLabelValues("accounts").Inc()
		return nil, err
	}

	var payload struct {
		Accounts []string `json:"accounts"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		prom.APIErrors.WithLabelValues("accounts").Inc()
		return nil, fmt.Errorf("could not parse account list: %w", err)
	}

	g.accounts.names = payload.Accounts
	g.accounts.filled = true
	log.Debug().Int("accounts", len(payload.Accounts)).Msg("Cache: account list loaded")
	return g.accounts.names, nil
}

// ResetCache drops the session caches. Called on full reset.
func (g *Gateway) ResetCache() {
	g.accounts.mu.Lock()
	defer g.accounts.mu.Unlock()
	g.accounts.names = nil
	g.accounts.filled = false
}
