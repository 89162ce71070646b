// Package server exposes the tax-calculation pipeline over HTTP.
package server

import (
	"log"
	"net/http"

	"solana-tax-tracker/internal/ingestion"
	"solana-tax-tracker/internal/normalization"
	"solana-tax-tracker/internal/observability"
	"solana-tax-tracker/internal/storage"
)

const (
	defaultWalletLimit = 100
	defaultMaxWallets  = 10
)

// Server wires the ingestion, normalization, and tax components behind
// the HTTP API.
type Server struct {
	ingest     *ingestion.Service
	normalizer *normalization.Normalizer
	store      storage.TransactionStore
	metrics    *observability.Metrics
	logger     *log.Logger

	// walletLimit caps how many records are fetched per wallet address
	// in one calculation request; maxWallets caps the number of wallet
	// addresses a single request may name.
	walletLimit int
	maxWallets  int
}

// Option configures a Server.
type Option func(*Server)

// WithWalletLimit sets the per-wallet record fetch cap.
func WithWalletLimit(n int) Option {
	return func(s *Server) { s.walletLimit = n }
}

// WithMaxWallets sets the per-request wallet address cap.
func WithMaxWallets(n int) Option {
	return func(s *Server) { s.maxWallets = n }
}

// New creates a Server.
func New(ingest *ingestion.Service, normalizer *normalization.Normalizer, store storage.TransactionStore, metrics *observability.Metrics, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	s := &Server{
		ingest:      ingest,
		normalizer:  normalizer,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		walletLimit: defaultWalletLimit,
		maxWallets:  defaultMaxWallets,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /api/v1/tax/calculate", s.handleCalculate)
	mux.HandleFunc("GET /api/v1/tax/countries", s.handleCountries)
	mux.HandleFunc("GET /api/v1/wallets/validate/{address}", s.handleValidateWallet)
	mux.HandleFunc("POST /api/v1/cex/upload", s.handleCexUpload)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
