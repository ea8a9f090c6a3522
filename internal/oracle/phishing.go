package oracle

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/phishguard/internal/models"
)

// PhishingDB queries the aggregated phishing database.
type PhishingDB struct {
	client *Client
}

func NewPhishingDB(c *Client) *PhishingDB {
	return &PhishingDB{client: c}
}

func (p *PhishingDB) Check(ctx context.Context, rawURL string) ([]models.PhishingResult, error) {
	var resp struct {
		Response []models.PhishingResult `json:"response"`
	}
	if err := p.client.get(ctx, "/api/phishing/check", url.Values{"url": {rawURL}}, &resp); err != nil {
		return nil, err
	}
	return resp.Response, nil
}

// FlaggedWarnings formats the results that flag the URL.
func FlaggedWarnings(results []models.PhishingResult) []models.Warning {
	var out []models.Warning
	for _, r := range results {
		if r.Flagged() {
			out = append(out, r.Warning())
		}
	}
	return out
}
