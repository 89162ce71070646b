package domain

import "strings"

// Token identifies an asset on a chain.
// Equality is by Address (mint address on Solana).
type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals int
	Chain    string
}

// Equal reports whether two tokens refer to the same asset.
func (t Token) Equal(other Token) bool {
	return t.Address == other.Address
}

// SOL is the Solana native token.
var SOL = Token{
	Symbol:   "SOL",
	Name:     "Solana",
	Address:  "So11111111111111111111111111111111111111112",
	Decimals: 9,
	Chain:    ChainSolana,
}

// knownMints maps common Solana mint addresses to ticker symbols.
// Unknown mints fall back to a truncated address identifier.
var knownMints = map[string]string{
	"So11111111111111111111111111111111111111112": "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"7kbnvuGBxxj8AG9qp8Scn56muWGaRaFqxg1FsRp3PaFT": "UXD",
	"A9mUU4qviSctJVPJdBJWkb28deg915LYXErz6kqYxYdk": "USDCet",
	"Dn4noZ5jgGfkntzcQvZR8c47bReYJk5XxKJgx7Wf1Z2h": "USDTet",
}

// SymbolForMint resolves a mint address to a ticker symbol.
func SymbolForMint(mint string) string {
	if sym, ok := knownMints[mint]; ok {
		return sym
	}
	if len(mint) >= 8 {
		return strings.ToUpper(mint[:8])
	}
	return strings.ToUpper(mint)
}

// SPLToken builds a Token for an SPL mint with the given decimals.
func SPLToken(mint string, decimals int) Token {
	sym := SymbolForMint(mint)
	return Token{
		Symbol:   sym,
		Name:     sym,
		Address:  mint,
		Decimals: decimals,
		Chain:    ChainSolana,
	}
}
