package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// AIDayPrice is one day of a model-proposed price, in the shape the prompt
// asks the model to emit. The request uses JSON-object response mode, which
// guarantees valid JSON but does not enforce this shape.
type AIDayPrice struct {
	Date                string `json:"date"`
	FinalSuggestedPrice  int64  `json:"final_suggested_price"`
}

type aiResponse struct {
	AuditMetadata map[string]any `json:"audit_metadata"`
	Calendar      []AIDayPrice   `json:"calendar"`
}

// AIStrategy asks a chat model to propose a price calendar when
// deterministic signals are too thin to trust. Untrusted model output is
// never repaired: a malformed or incomplete response causes the caller to
// fall back to the deterministic strategy outright.
type AIStrategy struct {
	client *openai.Client
	model  string
}

// NewAIStrategy builds an AIStrategy using the given OpenAI API key.
func NewAIStrategy(apiKey, model string) *AIStrategy {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &AIStrategy{client: &client, model: model}
}

func (AIStrategy) Name() string { return "ai_fallback" }

// Price asks the model for a price per date, retrying transient API
// failures with bounded exponential backoff. It returns an error—never a
// partially-repaired result—if the model output doesn't parse or doesn't
// cover every requested date.
func (s *AIStrategy) Price(ctx context.Context, signals Signals, dates []time.Time, constraints Constraints) ([]int64, error) {
	prompt := buildPrompt(signals, dates, constraints)

	operation := func() (*aiResponse, error) {
		resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: s.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage("You are a revenue management pricing assistant. Respond only with the requested JSON."),
				openai.UserMessage(prompt),
			},
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("ai pricing response had no choices")
		}

		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		var parsed aiResponse
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("parsing ai pricing response: %w", err))
		}
		return &parsed, nil
	}

	parsed, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("calling ai pricing model: %w", err)
	}

	byDate := make(map[string]int64, len(parsed.Calendar))
	for _, d := range parsed.Calendar {
		byDate[d.Date] = d.FinalSuggestedPrice
	}

	out := make([]int64, len(dates))
	for i, d := range dates {
		key := d.Format("2006-01-02")
		price, ok := byDate[key]
		if !ok || price <= 0 {
			return nil, fmt.Errorf("ai pricing response missing or invalid price for %s", key)
		}
		out[i] = price
	}
	return out, nil
}

func buildPrompt(signals Signals, dates []time.Time, constraints Constraints) string {
	strategy := signals.Strategy
	if strategy == "" {
		strategy = "equilibre"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Propose a nightly price in cents for each of the following %d dates (%s to %s), given:\n",
		len(dates), dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))
	fmt.Fprintf(&b, "- base price: %d cents, no reliable competitor data\n", signals.BasePriceCents)
	fmt.Fprintf(&b, "- owner risk strategy: %s (prudent = conservative upside, equilibre = balanced, agressif = aggressive upside)\n", strategy)
	fmt.Fprintf(&b, "- hard floor: %d cents, hard ceiling: %d cents, no price may fall outside this range\n", constraints.FloorCents, constraints.CeilingCents)
	fmt.Fprintf(&b, "- minimum stay: %d night(s)", constraints.MinStay)
	if constraints.MaxStay > 0 {
		fmt.Fprintf(&b, ", maximum stay: %d night(s)", constraints.MaxStay)
	}
	b.WriteString("\n")
	if constraints.WeeklyDiscountPercent > 0 {
		fmt.Fprintf(&b, "- weekly-stay discount: %.1f%%\n", constraints.WeeklyDiscountPercent)
	}
	if constraints.MonthlyDiscountPercent > 0 {
		fmt.Fprintf(&b, "- monthly-stay discount: %.1f%%\n", constraints.MonthlyDiscountPercent)
	}
	if signals.WeekendMarkupPercent > 0 {
		fmt.Fprintf(&b, "- weekend (Fri/Sat) markup: %.1f%%\n", signals.WeekendMarkupPercent)
	}
	b.WriteString("Respond with a single JSON object of the exact shape " +
		`{"audit_metadata":{...freeform reasoning...},"calendar":[{"date":"YYYY-MM-DD","final_suggested_price":1234}, ...]}` +
		", one calendar entry per date, no prose outside the JSON object.")
	return b.String()
}
