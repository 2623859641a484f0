// Package bob provides rate inputs for the Bolivian boliviano (BOB).
//
// # Providers
//
// ## Binance P2P (USDT)
//
// API: https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search
//
// Fetches public peer-to-peer USDT/BOB adverts from Binance, and returns
// them as offers of the two market sides. USDT is treated as USD.
//
// Side mapping:
//   - SELL adverts (the advertiser buys USDT) are the market bid, side "buy"
//   - BUY adverts (the advertiser sells USDT) are the market ask, side "sell"
//
// Offer collection:
//   - Fetches up to 30 adverts per side (3 pages of 10), paced by a rate limiter
//   - Parses price, limits, availability, and advertiser metrics
//
// Advert filtering (strict, then relaxed if needed):
//   - Minimum 50 monthly orders (relaxed: 20)
//   - Minimum 95% completion rate (relaxed: 90%)
//   - Minimum 50 USDT available
//   - Typical transaction amount of 700 BOB must be within limits
//
// Quality scoring uses Wilson lower bound on completion rate to favor
// advertisers with both high completion rates and sufficient order volume.
//
// The 12 best priced adverts of each side are returned (cheapest ask,
// highest bid), with quality as tiebreaker. The median is left to the caller.
//
// ## BCB (Official Central Bank)
//
// Source: "BCB"
// URL: https://www.bcb.gob.bo/
//
// Scrapes the official BOB/USD buy ("compra") and sell ("venta") rates
// from the Banco Central de Bolivia home page.
package bob
