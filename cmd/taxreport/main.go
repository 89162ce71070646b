// Package main computes a tax report in one shot: fetch wallet history,
// parse optional exchange exports, enrich with historical prices, and
// render the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"solana-tax-tracker/internal/cache"
	"solana-tax-tracker/internal/cex"
	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/ingestion"
	"solana-tax-tracker/internal/normalization"
	"solana-tax-tracker/internal/observability"
	"solana-tax-tracker/internal/pricing"
	"solana-tax-tracker/internal/reporting"
	"solana-tax-tracker/internal/solana"
	"solana-tax-tracker/internal/tax"
)

func main() {
	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"), "Solana RPC HTTP endpoint")
	wallets := flag.String("wallets", "", "Comma-separated wallet addresses")
	krakenCSV := flag.String("kraken-csv", "", "Path to a Kraken ledgers export (optional)")
	coinbaseCSV := flag.String("coinbase-csv", "", "Path to a Coinbase transactions export (optional)")
	country := flag.String("country", "DE", "Tax jurisdiction country code")
	year := flag.Int("year", time.Now().UTC().Year()-1, "Tax year")
	limit := flag.Int("limit", 1000, "Max records fetched per wallet")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	output := flag.String("output", "", "Output file (default: stdout)")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	engine, err := tax.Resolve(*country)
	if err != nil {
		logger.Fatalf("[taxreport] %v", err)
	}
	if *wallets == "" && *krakenCSV == "" && *coinbaseCSV == "" {
		logger.Fatalf("[taxreport] nothing to report on: pass -wallets or an exchange export")
	}

	ctx := context.Background()
	metrics := observability.NewMetrics()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	ingest := ingestion.NewService(rpc, logger, metrics)
	priceCache := cache.NewMemory()
	prices := pricing.NewCoinGeckoClient(logger, pricing.WithGeckoCache(priceCache))
	fx := pricing.NewFXClient(logger, pricing.WithFXCache(priceCache))
	normalizer := normalization.New(prices, fx, logger)

	var addresses []string
	for _, a := range strings.Split(*wallets, ",") {
		if trimmed := strings.TrimSpace(a); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}
	walletTxs := ingest.FetchWallets(ctx, addresses, *limit)

	imported, err := parseExports(logger, *krakenCSV, *coinbaseCSV)
	if err != nil {
		logger.Fatalf("[taxreport] %v", err)
	}

	normalized, err := normalizer.Merge(ctx, walletTxs, imported)
	if err != nil {
		logger.Fatalf("[taxreport] normalize: %v", err)
	}
	filtered := normalization.FilterByYear(normalized, *year)

	report, err := engine.Compute(filtered, *year)
	if err != nil {
		logger.Fatalf("[taxreport] compute: %v", err)
	}

	var rendered string
	switch *format {
	case "markdown":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rendered = reporting.RenderCSV(report)
	default:
		logger.Fatalf("[taxreport] unknown format %q", *format)
	}

	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		logger.Fatalf("[taxreport] write %s: %v", *output, err)
	}
	logger.Printf("[taxreport] wrote %s report for %d to %s", report.Country, report.Year, *output)
}

// parseExports reads the given exchange CSV exports into canonical
// transactions.
func parseExports(logger *log.Logger, krakenPath, coinbasePath string) ([]*domain.Transaction, error) {
	paths := map[string]string{
		domain.SourceKraken:   krakenPath,
		domain.SourceCoinbase: coinbasePath,
	}

	var all []*domain.Transaction
	for exchange, path := range paths {
		if path == "" {
			continue
		}
		adapter, err := cex.For(exchange)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s export: %w", exchange, err)
		}
		txs, err := adapter.ParseCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s export: %w", exchange, err)
		}
		logger.Printf("[taxreport] parsed %d %s transactions", len(txs), exchange)
		all = append(all, txs...)
	}
	return all, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
