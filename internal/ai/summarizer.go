// README: Gemini-backed settlement summary; turns a payment report into dispatcher prose.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"freightdesk/internal/modules/report"
)

// Summarizer generates a short plain-language narrative over a computed
// payment report. It never sees raw trip data beyond what the report
// already exposes for the caller's role.
type Summarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSummarizer initializes the Gemini client. apiKey comes from the
// environment; an empty key should be handled by the caller (the feature is
// optional).
func NewSummarizer(ctx context.Context, apiKey string) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.3)

	return &Summarizer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (s *Summarizer) Close() {
	s.client.Close()
}

// Summarize renders the report as JSON, asks the model for a settlement
// summary, and returns the text.
func (s *Summarizer) Summarize(ctx context.Context, r report.Report) (string, error) {
	payload, err := json.Marshal(reportDigest(r))
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	prompt := fmt.Sprintf(
		"You are a freight dispatch assistant. Summarize the following payment "+
			"report in 3-5 sentences for the %s who requested it. Mention totals, "+
			"profit if present, and any month that stands out. Amounts are in cents. "+
			"Do not invent numbers.\n\nReport JSON:\n%s",
		r.Role, payload,
	)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// reportDigest strips the embedded trip list before the report leaves the
// process; the model only needs the totals and breakdowns.
func reportDigest(r report.Report) report.Report {
	if r.Dispatcher != nil {
		d := *r.Dispatcher
		d.Trips = nil
		r.Dispatcher = &d
	}
	if r.Driver != nil {
		d := *r.Driver
		d.Trips = nil
		r.Driver = &d
	}
	if r.Owner != nil {
		o := *r.Owner
		o.Trips = nil
		r.Owner = &o
	}
	if r.Carrier != nil {
		c := *r.Carrier
		c.Trips = nil
		r.Carrier = &c
	}
	return r
}
