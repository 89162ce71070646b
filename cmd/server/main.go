// Package main runs the tax-tracker HTTP service: wallet ingestion,
// CEX imports, price enrichment, and tax report calculation.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-tax-tracker/internal/cache"
	"solana-tax-tracker/internal/decoder"
	"solana-tax-tracker/internal/ingestion"
	"solana-tax-tracker/internal/normalization"
	"solana-tax-tracker/internal/observability"
	"solana-tax-tracker/internal/pricing"
	"solana-tax-tracker/internal/server"
	"solana-tax-tracker/internal/solana"
	"solana-tax-tracker/internal/storage"
	chstore "solana-tax-tracker/internal/storage/clickhouse"
	"solana-tax-tracker/internal/storage/memory"
	"solana-tax-tracker/internal/storage/migrations"
	pgstore "solana-tax-tracker/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional)")
	watchWallets := flag.String("watch-wallets", os.Getenv("WATCH_WALLETS"), "Comma-separated wallet addresses to watch live")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty: in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the price-lookup audit log (empty: disabled)")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the price cache (empty: in-process cache)")
	listenAddr := flag.String("listen", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	walletLimit := flag.Int("wallet-limit", 100, "Max records fetched per wallet per request")
	maxWallets := flag.Int("max-wallets", 10, "Max wallet addresses per calculation request")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var store storage.TransactionStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("[server] postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("[server] migrations: %v", err)
		}
		store = pgstore.NewTransactionStore(pool)
		logger.Printf("[server] using postgres storage")
	} else {
		store = memory.NewTransactionStore()
		logger.Printf("[server] using in-memory storage")
	}

	// Price cache
	var priceCache cache.Cache
	if *redisAddr != "" {
		redisCache := cache.NewRedis(*redisAddr, logger)
		defer redisCache.Close()
		priceCache = redisCache
		logger.Printf("[server] using redis cache at %s", *redisAddr)
	} else {
		priceCache = cache.NewMemory()
	}

	// Price-lookup audit log
	var priceHistory storage.PriceHistoryStore
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("[server] clickhouse: %v", err)
		}
		defer conn.Close()
		priceHistory = chstore.NewPriceHistoryStore(conn)
		logger.Printf("[server] recording price lookups to clickhouse")
	}

	// Pipeline components
	rpc := solana.NewHTTPClient(*rpcEndpoint)
	ingest := ingestion.NewService(rpc, logger, metrics)
	gecko := pricing.NewCoinGeckoClient(logger, pricing.WithGeckoCache(priceCache))
	prices := pricing.NewRecordingSource(gecko, priceHistory, metrics.PriceLookups, logger)
	fx := pricing.NewFXClient(logger, pricing.WithFXCache(priceCache))
	normalizer := normalization.New(prices, fx, logger)

	srv := server.New(ingest, normalizer, store, metrics, logger,
		server.WithWalletLimit(*walletLimit),
		server.WithMaxWallets(*maxWallets))

	if *wsEndpoint != "" && *watchWallets != "" {
		go watchAddresses(ctx, *wsEndpoint, splitList(*watchWallets), rpc, store, logger)
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: srv.Routes(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("[server] listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("[server] http: %v", err)
	}
	logger.Printf("[server] shut down")
}

// watchAddresses subscribes to live transaction notifications for the
// given wallets and stores decoded transactions as they confirm.
func watchAddresses(ctx context.Context, wsEndpoint string, wallets []string, rpc solana.RPCClient, store storage.TransactionStore, logger *log.Logger) {
	ws, err := solana.NewWSClient(ctx, wsEndpoint, nil)
	if err != nil {
		logger.Printf("[watch] connect %s: %v", wsEndpoint, err)
		return
	}
	defer ws.Close()

	for _, wallet := range wallets {
		if err := solana.ValidateAddress(wallet); err != nil {
			logger.Printf("[watch] skipping invalid address %s: %v", wallet, err)
			continue
		}

		notifications, err := ws.WatchAddress(ctx, wallet)
		if err != nil {
			logger.Printf("[watch] subscribe %s: %v", wallet, err)
			continue
		}

		go func(wallet string) {
			for n := range notifications {
				if n.Err != nil {
					continue
				}
				raw, err := rpc.GetTransaction(ctx, n.Signature)
				if err != nil || raw == nil {
					continue
				}
				for _, tx := range decoder.Decode(raw, wallet) {
					if err := store.Insert(ctx, tx); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
						logger.Printf("[watch] store %s: %v", tx.ID, err)
					}
				}
			}
		}(wallet)
	}

	<-ctx.Done()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
