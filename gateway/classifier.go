package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slices"

	"github.com/openclerk/sheetboard/ledger"
	"github.com/openclerk/sheetboard/prom"
)

// classifierResponse is the JSON shape the model is asked to produce for
// one target.
type classifierResponse struct {
	Debit  string `json:"Debit"`
	Credit string `json:"Credit"`
}

// classify produces prediction patches locally through OpenAI, one
// completion per target. Targets the model cannot classify are simply
// omitted; callers apply whatever came back.
func (g *Gateway) classify(ctx context.Context, targets []ledger.Target) []ledger.Patch {
	// Account hints constrain the prompt when available. A failed lookup
	// just means an unconstrained prompt.
	accounts, err := g.Accounts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("No account hints available for local classification")
	}

	var patches []ledger.Patch
	for _, target := range targets {
		var prompt strings.Builder
		prompt.WriteString("I want to assign double-entry accounts to a financial line-item. Counterparty: ")
		prompt.WriteString(target.Counterparty)
		prompt.WriteString("\nMemo: ")
		prompt.WriteString(target.Memo)
		if len(accounts) > 0 {
			prompt.WriteString("\nChoose the debit and credit accounts from the following list: ")
			prompt.WriteString(strings.Join(accounts, ", "))
		}
		prompt.WriteString("\nRespond only in JSON with the keys \"Debit\" and \"Credit\". Leave a key empty if you cannot decide. Do not respond in anything other than JSON.")

		resp, err := g.oai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.oaiModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
			},
		})
		prom.APICalls.WithLabelValues("openai").Inc()
		if err != nil {
			prom.APIErrors.WithLabelValues("openai").Inc()
			log.Error().Err(err).Int("index", target.Index).Msg("Error with ChatGPT/OpenAI classification request")
			continue
		}
		if len(resp.Choices) != 1 {
			prom.APIErrors.WithLabelValues("openai").Inc()
			log.Error().Msgf("Unexpected number of choices %v", resp.Choices)
			continue
		}

		answer := resp.Choices[0].Message.Content

		// Some ChatGPT models send us ```JSON {}``` instead of just JSON, so we have to parse it.
		if strings.Contains(answer, "```") {
			answer = strings.TrimPrefix(answer, "```json")
			answer = strings.TrimPrefix(answer, "```")
			answer = strings.TrimSuffix(answer, "```")
			answer = strings.TrimSpace(answer)
		}

		var rsp classifierResponse
		if err := json.Unmarshal([]byte(answer), &rsp); err != nil {
			log.Warn().Err(err).Int("index", target.Index).Msg("ChatGPT responded with invalid JSON response.")
			continue
		}

		patch := ledger.Patch{Index: target.Index}
		if rsp.Debit != "" {
			name := matchAccount(rsp.Debit, accounts)
			patch.Debit = &name
		}
		if rsp.Credit != "" {
			name := matchAccount(rsp.Credit, accounts)
			patch.Credit = &name
		}
		if patch.Debit == nil && patch.Credit == nil {
			continue
		}
		log.Info().Int("index", target.Index).Msgf("🤖 [ChatGPT] Classified %q as debit=%q credit=%q", target.Counterparty, rsp.Debit, rsp.Credit)
		patches = append(patches, patch)
	}
	return patches
}

// matchAccount maps a model-suggested name onto the canonical account list.
// Emojis and leading spaces are stripped from both sides before comparison,
// since spreadsheet account names often carry emoji prefixes. An unmatched
// suggestion is kept as-is.
func matchAccount(suggestion string, accounts []string) string {
	want := strings.TrimLeft(gomoji.RemoveEmojis(suggestion), " ")
	i := slices.IndexFunc(accounts, func(name string) bool {
		return strings.TrimLeft(gomoji.RemoveEmojis(name), " ") == want
	})
	if i < 0 {
		return suggestion
	}
	return accounts[i]
}
