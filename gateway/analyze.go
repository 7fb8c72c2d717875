package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/prom"
)

// File is one uploaded document image.
type File struct {
	Name    string
	Content []byte
}

// Analyze uploads the document images to the extraction service and returns
// the extracted line-items, stamped OriginExtracted. The board folds them
// into the ledger (replace or append); on failure nothing reaches the
// ledger at all.
func (g *Gateway) Analyze(ctx context.Context, files []File) ([]ledger.LineItem, error) {
	rec, cred, err := g.precheck()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to analyze")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, err
		}
	}
	_ = w.WriteField("api_key", rec.APIKey)
	_ = w.WriteField("spreadsheet_id", rec.SpreadsheetID)
	_ = w.WriteField("token", cred.Token)
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rec.Endpoints.Analyze, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	prom.APICalls.WithLabelValues("analyze").Inc()
	resp, err := g.client.Do(req)
	if err != nil {
		prom.APIErrors.WithLabelValues("analyze").Inc()
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readReply(resp)
	if err != nil {
		prom.APIErrors.WithLabelValues("analyze").Inc()
		return nil, err
	}

	var extracted []wireItem
	if err := json.Unmarshal(raw, &extracted); err != nil {
		prom.APIErrors.WithLabelValues("analyze").Inc()
		return nil, fmt.Errorf("could not parse extraction result: %w", err)
	}

	items := fromWire(extracted, ledger.OriginExtracted)
	log.Info().Int("items", len(items)).Int("files", len(files)).
		Msgf("📜 Extracted %d line-items from %d file(s)", len(items), len(files))
	return items, nil
}
