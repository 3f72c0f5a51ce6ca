package kraken

import "strings"

// Kraken prefixes legacy asset codes with X (crypto) or Z (fiat) and uses a
// few codes of its own.
var assetAliases = map[string]string{
	"XBT": "BTC",
	"XDG": "DOGE",
}

var quoteCurrencies = []string{"USDT", "USDC", "USD", "EUR", "GBP", "JPY", "CAD", "CHF", "AUD"}

var currencySymbols = map[string]string{
	"USD":  "$",
	"USDT": "$",
	"USDC": "$",
	"EUR":  "€",
	"GBP":  "£",
	"JPY":  "¥",
}

// SplitPair splits a Kraken pair into display asset and quote currency codes.
//
//	SplitPair("XXBTZUSD") // "BTC", "USD"
//	SplitPair("SOLUSD")   // "SOL", "USD"
//
// Pairs that cannot be split return the whole pair as asset and an empty quote.
func SplitPair(pair string) (asset, quote string) {
	p := strings.ToUpper(strings.TrimSpace(pair))

	// legacy 8-character form: X<base>Z<quote> or X<base>X<quote>
	if len(p) == 8 && p[0] == 'X' && (p[4] == 'Z' || p[4] == 'X') {
		return alias(p[1:4]), p[5:8]
	}
	for _, q := range quoteCurrencies {
		if base, ok := strings.CutSuffix(p, q); ok && base != "" {
			return alias(base), q
		}
	}
	return p, ""
}

// CurrencySymbol returns the display symbol for a quote currency code,
// falling back to the code followed by a space.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	if code == "" {
		return ""
	}
	return code + " "
}

func alias(code string) string {
	if a, ok := assetAliases[code]; ok {
		return a
	}
	return code
}
