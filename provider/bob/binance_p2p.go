//nolint:tagliatelle // Binance API uses snake case
package bob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonah3272/boliviablue/provider/currencies"
	"github.com/jonah3272/boliviablue/storage/types"
)

const BinanceP2PURL = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"

// Binance trade types, from the point of view of the taker
const (
	tradeTypeBuy  = "BUY"  // the taker buys USDT, adverts are asks
	tradeTypeSell = "SELL" // the taker sells USDT, adverts are bids
)

const (
	pagesPerSide = 3
	rowsPerPage  = 10
	topOffers    = 12
)

// binanceP2PRequest is the request body for the Binance P2P API
type binanceP2PRequest struct {
	Asset     types.Currency `json:"asset"`
	Fiat      types.Currency `json:"fiat"`
	TradeType string         `json:"tradeType"`
	Rows      int            `json:"rows"`
	Page      int            `json:"page"`
}

// binanceP2PResponse is the response from the Binance P2P API
type binanceP2PResponse struct {
	Data []binanceP2POffer `json:"data"`
}

type binanceP2POffer struct {
	Adv        binanceP2PAdv        `json:"adv"`
	Advertiser binanceP2PAdvertiser `json:"advertiser"`
}

type binanceP2PAdv struct {
	Price                string `json:"price"`
	MinSingleTransAmount string `json:"minSingleTransAmount"`
	MaxSingleTransAmount string `json:"maxSingleTransAmount"`
	SurplusAmount        string `json:"surplusAmount"`
	TradableQuantity     string `json:"tradableQuantity"`
}

type binanceP2PAdvertiser struct {
	MonthOrderCount int     `json:"monthOrderCount"`
	MonthFinishRate float64 `json:"monthFinishRate"`
}

// advert is a parsed Binance P2P advert
type advert struct {
	price      float64
	minLimit   float64 // BOB
	maxLimit   float64 // BOB
	available  float64 // USDT
	orders     int
	finishRate float64
	quality    float64
}

// criteria are the advert quality thresholds
type criteria struct {
	minOrders    int
	minFinish    float64
	minAvailable float64 // USDT
	typicalTrade float64 // BOB
}

var (
	strictCriteria = criteria{
		minOrders:    50,
		minFinish:    0.95,
		minAvailable: 50,
		typicalTrade: 700,
	}

	relaxedCriteria = criteria{
		minOrders:    20,
		minFinish:    0.90,
		minAvailable: 50,
		typicalTrade: 700,
	}
)

// BinanceP2PProvider fetches public USDT/BOB adverts from Binance P2P
type BinanceP2PProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	url     string
}

// NewBinanceP2PProvider creates a new instance of the Binance P2P provider
func NewBinanceP2PProvider(url string, timeout time.Duration) *BinanceP2PProvider {
	return &BinanceP2PProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		// Binance throttles bursts on the public endpoint
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
		url:     url,
	}
}

// Offers fetches the best public offers of both market sides.
// A side with no acceptable adverts yields no offers, not an error
func (p *BinanceP2PProvider) Offers(ctx context.Context) ([]types.Offer, error) {
	sides := []struct {
		tradeType string
		side      types.Side
	}{
		// Advertisers buying USDT quote the market bid
		{tradeType: tradeTypeSell, side: types.SideBuy},
		// Advertisers selling USDT quote the market ask
		{tradeType: tradeTypeBuy, side: types.SideSell},
	}

	offers := make([]types.Offer, 0, 2*topOffers)

	for _, s := range sides {
		adverts, err := p.fetchAdverts(ctx, s.tradeType)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch %s adverts: %w", s.tradeType, err)
		}

		for _, a := range selectAdverts(adverts, s.tradeType) {
			offers = append(offers, types.Offer{
				Asset: currencies.USDT,
				Fiat:  currencies.BOB,
				Side:  s.side,
				Price: a.price,
			})
		}
	}

	return offers, nil
}

// selectAdverts keeps the best priced adverts of trustworthy advertisers
func selectAdverts(adverts []advert, tradeType string) []advert {
	selected := filterAdverts(adverts, strictCriteria)

	if len(selected) < topOffers {
		if relaxed := filterAdverts(adverts, relaxedCriteria); len(relaxed) > len(selected) {
			selected = relaxed
		}
	}

	if len(selected) == 0 {
		// None match the criteria, use all of them
		selected = append(selected, adverts...)
	}

	// Best price first: cheapest ask, highest bid
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].price != selected[j].price {
			if tradeType == tradeTypeBuy {
				return selected[i].price < selected[j].price
			}

			return selected[i].price > selected[j].price
		}

		return selected[i].quality > selected[j].quality
	})

	if len(selected) > topOffers {
		selected = selected[:topOffers]
	}

	return selected
}

// fetchAdverts queries Binance P2P and parses the adverts
func (p *BinanceP2PProvider) fetchAdverts(
	ctx context.Context,
	tradeType string,
) ([]advert, error) {
	adverts := make([]advert, 0, pagesPerSide*rowsPerPage)

	for page := 1; page <= pagesPerSide; page++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := p.fetchPage(ctx, tradeType, page)
		if err != nil {
			return nil, err
		}

		if len(data) == 0 {
			break
		}

		for _, offer := range data {
			if a, ok := parseAdvert(offer); ok {
				adverts = append(adverts, a)
			}
		}
	}

	return adverts, nil
}

// fetchPage fetches a single page of adverts
func (p *BinanceP2PProvider) fetchPage(
	ctx context.Context,
	tradeType string,
	page int,
) ([]binanceP2POffer, error) {
	body, err := json.Marshal(binanceP2PRequest{
		Asset:     currencies.USDT,
		Fiat:      currencies.BOB,
		TradeType: tradeType,
		Rows:      rowsPerPage,
		Page:      page,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute POST request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var apiResp binanceP2PResponse
	if err = json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	return apiResp.Data, nil
}

// parseAdvert parses the raw advert, skipping the ones with no usable price
func parseAdvert(offer binanceP2POffer) (advert, bool) {
	price, ok := parseFloat(offer.Adv.Price)
	if !ok || price <= 0 {
		return advert{}, false
	}

	var (
		minLimit, _ = parseFloat(offer.Adv.MinSingleTransAmount)
		maxLimit, _ = parseFloat(offer.Adv.MaxSingleTransAmount)
	)

	available, ok := parseFloat(offer.Adv.SurplusAmount)
	if !ok {
		available, _ = parseFloat(offer.Adv.TradableQuantity)
	}

	var (
		finishRate = normalizeFinishRate(offer.Advertiser.MonthFinishRate)
		orders     = offer.Advertiser.MonthOrderCount
	)

	return advert{
		price:      price,
		minLimit:   minLimit,
		maxLimit:   maxLimit,
		available:  available,
		orders:     orders,
		finishRate: finishRate,
		quality:    wilsonLowerBound(finishRate, orders),
	}, true
}

// filterAdverts applies the quality and limit thresholds
func filterAdverts(adverts []advert, c criteria) []advert {
	filtered := make([]advert, 0, len(adverts))

	for _, a := range adverts {
		if a.orders < c.minOrders || a.finishRate < c.minFinish {
			continue
		}

		if c.minAvailable > 0 && a.available > 0 && a.available < c.minAvailable {
			continue
		}

		if c.typicalTrade > 0 {
			if a.minLimit > 0 && c.typicalTrade < a.minLimit {
				continue
			}

			if a.maxLimit > 0 && c.typicalTrade > a.maxLimit {
				continue
			}
		}

		filtered = append(filtered, a)
	}

	return filtered
}

// normalizeFinishRate ensures finish rate is 0-1
func normalizeFinishRate(finish float64) float64 {
	if finish <= 0 {
		return 0
	}

	if finish > 1 {
		return finish / 100
	}

	return finish
}

// wilsonLowerBound returns a conservative completion score
func wilsonLowerBound(finish float64, n int) float64 {
	if n <= 0 {
		return 0
	}

	var (
		z           = 1.96
		denominator = 1 + z*z/float64(n)
		center      = finish + z*z/(2*float64(n))
		adjust      = z * math.Sqrt((finish*(1-finish)+z*z/(4*float64(n)))/float64(n))
	)

	return (center - adjust) / denominator
}

// parseFloat parses a float string into a value
func parseFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}

	return parsed, true
}
