package currencies

import "github.com/jonah3272/boliviablue/storage/types"

var (
	USD  = types.CurrencyUSD
	EUR  = types.CurrencyEUR
	BRL  = types.CurrencyBRL
	BOB  = types.CurrencyBOB
	USDT = types.CurrencyUSDT
)
