// Package cex imports transaction history exported from centralized
// exchanges as CSV files.
package cex

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"solana-tax-tracker/internal/domain"
)

// ErrUnsupportedExchange is returned when no adapter exists for an
// exchange name.
var ErrUnsupportedExchange = errors.New("unsupported exchange")

// Adapter parses one exchange's CSV export into canonical
// transactions. Malformed rows are skipped, never fatal.
type Adapter interface {
	Exchange() string
	ParseCSV(r io.Reader) ([]*domain.Transaction, error)
}

// adapters is the closed table of supported exchanges.
var adapters = map[string]func() Adapter{
	"kraken":   func() Adapter { return NewKraken(nil) },
	"coinbase": func() Adapter { return NewCoinbase(nil) },
}

// For returns the adapter for an exchange name (case-insensitive).
func For(exchange string) (Adapter, error) {
	name := strings.ToLower(strings.TrimSpace(exchange))
	newAdapter, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	return newAdapter(), nil
}

// SupportedExchanges lists adapter names in sorted order.
func SupportedExchanges() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// usdToken is the fiat leg of exchange trades.
var usdToken = domain.Token{
	Symbol:   "USD",
	Name:     "US Dollar",
	Address:  "USD",
	Decimals: 2,
	Chain:    "fiat",
}

// exchangeTokens maps common ticker symbols to their canonical tokens.
// Unknown symbols become exchange-scoped placeholder tokens.
var exchangeTokens = map[string]domain.Token{
	"SOL":  {Symbol: "SOL", Name: "Solana", Address: "SOL", Decimals: 9, Chain: "solana"},
	"BTC":  {Symbol: "BTC", Name: "Bitcoin", Address: "BTC", Decimals: 8, Chain: "bitcoin"},
	"ETH":  {Symbol: "ETH", Name: "Ethereum", Address: "ETH", Decimals: 18, Chain: "ethereum"},
	"USDT": {Symbol: "USDT", Name: "Tether", Address: "USDT", Decimals: 6, Chain: "ethereum"},
	"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "USDC", Decimals: 6, Chain: "ethereum"},
	"USD":  usdToken,
	"EUR":  {Symbol: "EUR", Name: "Euro", Address: "EUR", Decimals: 2, Chain: "fiat"},
}

func tokenForSymbol(symbol, exchange string) domain.Token {
	if t, ok := exchangeTokens[symbol]; ok {
		return t
	}
	return domain.Token{
		Symbol:   symbol,
		Name:     symbol,
		Address:  symbol,
		Decimals: 8,
		Chain:    exchange,
	}
}
