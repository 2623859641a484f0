package types

import "time"

// Side is the market side of a P2P offer, from the point of view
// of the market quoting the dollar
type Side string

const (
	SideBuy  Side = "buy"  // the market buys USD (bid)
	SideSell Side = "sell" // the market sells USD (ask)
)

func (s Side) String() string {
	return string(s)
}

// Offer is a single public P2P offer
type Offer struct {
	Asset Currency `json:"asset"`
	Fiat  Currency `json:"fiat"`
	Side  Side     `json:"side"`
	Price float64  `json:"price"`
}

// ReferenceRates are published spot rates, expressed as
// units of the currency per 1 USD (ex. EUR: 0.92)
type ReferenceRates struct {
	AsOf   time.Time            `json:"as_of"`
	PerUSD map[Currency]float64 `json:"per_usd"`
}

// OfficialRate is the official BOB/USD rate
type OfficialRate struct {
	AsOf time.Time `json:"as_of"`
	Buy  float64   `json:"buy"`
	Sell float64   `json:"sell"`
}

// RateSnapshot is a point-in-time blue market rate.
// Snapshots are never modified once published, refreshes supersede them
type RateSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Headline pair for the requested quote currency
	Buy  *float64 `json:"buy"`
	Sell *float64 `json:"sell"`

	// Derived legs are nil when they are currently undeterminable
	BuyBobPerEUR  *float64 `json:"buy_bob_per_eur"`
	SellBobPerEUR *float64 `json:"sell_bob_per_eur"`
	BuyBobPerBRL  *float64 `json:"buy_bob_per_brl"`
	SellBobPerBRL *float64 `json:"sell_bob_per_brl"`

	OfficialBuy  *float64 `json:"official_buy"`
	OfficialSell *float64 `json:"official_sell"`

	Currency Currency `json:"currency"`

	BuyBobPerUSD  float64 `json:"buy_bob_per_usd"`
	SellBobPerUSD float64 `json:"sell_bob_per_usd"`

	Stale bool `json:"stale"`
}

// Clone returns a copy of the snapshot that shares no pointers with it
func (s *RateSnapshot) Clone() *RateSnapshot {
	cp := *s

	cp.Buy = clonePtr(s.Buy)
	cp.Sell = clonePtr(s.Sell)
	cp.BuyBobPerEUR = clonePtr(s.BuyBobPerEUR)
	cp.SellBobPerEUR = clonePtr(s.SellBobPerEUR)
	cp.BuyBobPerBRL = clonePtr(s.BuyBobPerBRL)
	cp.SellBobPerBRL = clonePtr(s.SellBobPerBRL)
	cp.OfficialBuy = clonePtr(s.OfficialBuy)
	cp.OfficialSell = clonePtr(s.OfficialSell)

	return &cp
}

// MarkStale returns a stale copy of the snapshot
func (s *RateSnapshot) MarkStale() *RateSnapshot {
	cp := s.Clone()
	cp.Stale = true

	return cp
}

// Quote returns the BOB buy / sell pair for the given quote currency.
// Both values are nil if the pair is undetermined
func (s *RateSnapshot) Quote(c Currency) (*float64, *float64) {
	switch c {
	case CurrencyUSD:
		return Float(s.BuyBobPerUSD), Float(s.SellBobPerUSD)
	case CurrencyEUR:
		return clonePtr(s.BuyBobPerEUR), clonePtr(s.SellBobPerEUR)
	case CurrencyBRL:
		return clonePtr(s.BuyBobPerBRL), clonePtr(s.SellBobPerBRL)
	default:
		return nil, nil
	}
}

// ForCurrency returns a copy of the snapshot with the headline
// pair set for the given quote currency
func (s *RateSnapshot) ForCurrency(c Currency) *RateSnapshot {
	cp := s.Clone()

	cp.Currency = c
	cp.Buy, cp.Sell = s.Quote(c)

	return cp
}

// Float returns a pointer to the given value
func Float(v float64) *float64 {
	return &v
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}

	return Float(*v)
}
