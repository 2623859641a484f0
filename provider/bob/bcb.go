package bob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonah3272/boliviablue/storage/types"
)

const BCBURL = "https://www.bcb.gob.bo/"

var errInvalidRate = errors.New("invalid rate")

var (
	buyPattern  = regexp.MustCompile(`(?i)compra\D{0,20}?(\d+(?:[.,]\d+)?)`)
	sellPattern = regexp.MustCompile(`(?i)venta\D{0,20}?(\d+(?:[.,]\d+)?)`)
)

// exchangeSelectors are the page sections that carry the rate,
// in order of preference
var exchangeSelectors = []string{
	"#tipo-cambio",
	".tipo-cambio",
	".tipoCambio",
	"body",
}

// BCBProvider is the Banco Central de Bolivia website scraping provider
type BCBProvider struct {
	client *http.Client
	url    string
}

// NewBCBProvider creates a new instance of the BCB website provider
func NewBCBProvider(url string, timeout time.Duration) *BCBProvider {
	return &BCBProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// OfficialRate scrapes the official BOB/USD buy and sell rates
func (p *BCBProvider) OfficialRate(ctx context.Context) (*types.OfficialRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	sel := exchangeSection(doc)
	if sel == nil {
		return nil, errors.New("missing exchange rate section")
	}

	text := strings.Join(strings.Fields(sel.Text()), " ")

	buy, err := matchRate(buyPattern, text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse buy rate: %w", err)
	}

	sell, err := matchRate(sellPattern, text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse sell rate: %w", err)
	}

	if sell < buy {
		return nil, fmt.Errorf("%w: sell %f below buy %f", errInvalidRate, sell, buy)
	}

	asOf := time.Now().UTC()
	if effective := parseEffectiveDate(sel); effective != nil {
		asOf = *effective
	}

	return &types.OfficialRate{
		AsOf: asOf,
		Buy:  buy,
		Sell: sell,
	}, nil
}

// exchangeSection returns the first page section carrying a rate
func exchangeSection(doc *goquery.Document) *goquery.Selection {
	for _, selector := range exchangeSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		if buyPattern.MatchString(sel.Text()) {
			return sel
		}
	}

	return nil
}

func matchRate(pattern *regexp.Regexp, text string) (float64, error) {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, errInvalidRate
	}

	v, err := parseBCBNumber(match[1])
	if err != nil {
		return 0, err
	}

	if v <= 0 {
		return 0, errInvalidRate
	}

	return v, nil
}

// parseBCBNumber parses the rate number from the BCB website.
// Both "6,96" and "6.96" are accepted
func parseBCBNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errInvalidRate
	}

	if strings.Contains(s, ",") {
		// "1.234,56" -> "1234.56"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse rate %q: %w", s, err)
	}

	return f, nil
}

// parseEffectiveDate parses the machine-readable date of the section, if any
func parseEffectiveDate(sel *goquery.Selection) *time.Time {
	dt, ok := sel.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return nil
	}

	dt = strings.TrimSpace(dt)

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, dt); err == nil {
			u := t.UTC()

			return &u
		}
	}

	return nil
}
