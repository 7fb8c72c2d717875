package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/prom"
)

type predictRequest struct {
	Data          []ledger.Target `json:"data"`
	APIKey        string          `json:"api_key"`
	SpreadsheetID string          `json:"spreadsheet_id"`
	Token         string          `json:"token"`
}

// Predict submits the target snapshot for account classification and
// returns the resulting patches. The remote predict endpoint is used when
// configured; otherwise the local OpenAI classifier takes over. The board
// folds the patches back into the ledger, so a failure here leaves the
// ledger untouched by construction.
func (g *Gateway) Predict(ctx context.Context, snap ledger.Snapshot) ([]ledger.Patch, error) {
	rec, cred, err := g.precheck()
	if err != nil {
		return nil, err
	}
	if len(snap.Targets) == 0 {
		return nil, nil
	}

	if rec.Endpoints.Predict == "" {
		if g.oai == nil {
			// A missing backend is a configuration problem; wrap the
			// sentinel so the HTTP layer routes the user there.
			return nil, fmt.Errorf("no predict endpoint configured and local classification is disabled: %w", ErrConfigurationMissing)
		}
		return g.classify(ctx, snap.Targets), nil
	}

	prom.APICalls.WithLabelValues("predict").Inc()
	raw, err := g.postJSON(ctx, rec.Endpoints.Predict, predictRequest{
		Data:          snap.Targets,
		APIKey:        rec.APIKey,
		SpreadsheetID: rec.SpreadsheetID,
		Token:         cred.Token,
	})
	if err != nil {
		prom.APIErrors.WithLabelValues("predict").Inc()
		return nil, err
	}

	var patches []ledger.Patch
	if err := json.Unmarshal(raw, &patches); err != nil {
		prom.APIErrors.WithLabelValues("predict").Inc()
		return nil, fmt.Errorf("could not parse prediction result: %w", err)
	}
	return patches, nil
}
