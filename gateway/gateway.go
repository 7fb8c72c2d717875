// Package gateway translates ledger state and configuration into requests
// against the remote extraction, prediction, persistence, and account-list
// services. Verbs return data; the owning board folds results into the
// ledger under its own lock. Every verb is gated twice before the wire:
// the configuration record must be complete and a live credential must be
// cached.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/openclerk/sheetboard/config"
	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/session"
)

// Gateway issues the four outbound verbs for one workboard session.
type Gateway struct {
	client *http.Client
	cfg    *config.Store
	sess   *session.Manager

	oai      *openai.Client
	oaiModel string

	accounts accountCache
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClassifier enables the local OpenAI classifier, used for Predict when
// no remote predict endpoint is configured.
func WithClassifier(client *openai.Client, model string) Option {
	return func(g *Gateway) {
		g.oai = client
		g.oaiModel = model
	}
}

// New builds a Gateway. A nil http.Client gets a 30 second timeout default.
func New(client *http.Client, cfg *config.Store, sess *session.Manager, opts ...Option) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	g := &Gateway{client: client, cfg: cfg, sess: sess}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// precheck enforces the two preconditions shared by every verb. It never
// issues a network call.
func (g *Gateway) precheck() (config.Record, session.Credential, error) {
	rec := g.cfg.Load()
	if !rec.Complete() {
		return config.Record{}, session.Credential{}, ErrConfigurationMissing
	}
	cred, ok := g.sess.Current()
	if !ok {
		return config.Record{}, session.Credential{}, ErrNotAuthenticated
	}
	return rec, cred, nil
}

// wireItem is the LineItem shape on the wire. Origin is a local concern and
// never crosses it.
type wireItem struct {
	Date          string          `json:"date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Counterparty  string          `json:"counterparty"`
	Memo          string          `json:"memo"`
	Duplicate     bool            `json:"is_duplicate"`
}

func toWire(items []ledger.LineItem) []wireItem {
	out := make([]wireItem, len(items))
	for i, it := range items {
		out[i] = wireItem{
			Date:          it.Date,
			DebitAccount:  it.DebitAccount,
			CreditAccount: it.CreditAccount,
			Amount:        it.Amount,
			Counterparty:  it.Counterparty,
			Memo:          it.Memo,
			Duplicate:     it.Duplicate,
		}
	}
	return out
}

func fromWire(items []wireItem, origin ledger.Origin) []ledger.LineItem {
	out := make([]ledger.LineItem, len(items))
	for i, it := range items {
		out[i] = ledger.LineItem{
			Date:          it.Date,
			DebitAccount:  it.DebitAccount,
			CreditAccount: it.CreditAccount,
			Amount:        it.Amount,
			Counterparty:  it.Counterparty,
			Memo:          it.Memo,
			Origin:        origin,
			Duplicate:     it.Duplicate,
		}
	}
	return out
}

// postJSON sends doc to url and returns the response body. Non-2xx
// responses and {"error": ...} payloads become typed errors.
func (g *Gateway) postJSON(ctx context.Context, url string, doc any) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return readReply(resp)
}

// readReply drains the response and converts failure shapes into errors:
// a server-reported {"error": ...} wins over the bare status code.
func readReply(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if remote := remoteErrorFrom(raw); remote != nil {
		return nil, remote
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("got status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return raw, nil
}
