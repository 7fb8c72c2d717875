package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/prom"
)

type saveRequest struct {
	Data          []wireItem `json:"data"`
	APIKey        string     `json:"api_key"`
	SpreadsheetID string     `json:"spreadsheet_id"`
	Token         string     `json:"token"`
}

// Save commits the full ledger snapshot to the spreadsheet store as one
// atomic write. The gateway never clears the ledger: on success the caller
// resets its own state, on failure the ledger stays intact for retry.
func (g *Gateway) Save(ctx context.Context, items []ledger.LineItem) error {
	rec, cred, err := g.precheck()
	if err != nil {
		return err
	}

	prom.APICalls.WithLabelValues("save").Inc()
	_, err = g.postJSON(ctx, rec.Endpoints.Save, saveRequest{
		Data:          toWire(items),
		APIKey:        rec.APIKey,
		SpreadsheetID: rec.SpreadsheetID,
		Token:         cred.Token,
	})
	if err != nil {
		prom.APIErrors.WithLabelValues("save").Inc()
		return err
	}

	log.Info().Int("items", len(items)).Str("spreadsheet", rec.SpreadsheetID).
		Msgf("➕ Committed %d line-items to spreadsheet", len(items))
	return nil
}
