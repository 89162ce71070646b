// Package ingestion fetches a wallet's transaction history from the
// chain and decodes it into canonical transactions.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"sync"

	"solana-tax-tracker/internal/decoder"
	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/observability"
	"solana-tax-tracker/internal/solana"
)

const (
	defaultPageSize    = 1000
	defaultMaxPages    = 10
	defaultConcurrency = 3
)

// Service pulls signature history page by page and fetches transaction
// details with bounded concurrency. Failures for individual records or
// addresses are logged and skipped; they never fail the whole run.
type Service struct {
	rpc     solana.RPCClient
	logger  *log.Logger
	metrics *observability.Metrics

	pageSize    int
	maxPages    int
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithPageSize sets the signature page size.
func WithPageSize(n int) Option {
	return func(s *Service) { s.pageSize = n }
}

// WithMaxPages bounds signature pagination.
func WithMaxPages(n int) Option {
	return func(s *Service) { s.maxPages = n }
}

// WithConcurrency sets the number of parallel detail fetches.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// NewService creates an ingestion service.
func NewService(rpc solana.RPCClient, logger *log.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	s := &Service{
		rpc:         rpc,
		logger:      logger,
		metrics:     metrics,
		pageSize:    defaultPageSize,
		maxPages:    defaultMaxPages,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchWallet returns up to limit decoded transactions for one wallet
// address, newest signatures first from the indexer, re-ordered later
// by normalization.
func (s *Service) FetchWallet(ctx context.Context, address string, limit int) ([]*domain.Transaction, error) {
	if err := solana.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", address, err)
	}

	sigs, err := s.fetchSignatures(ctx, address, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[ingestion] %s: %d signatures", address, len(sigs))

	return s.fetchDetails(ctx, address, sigs), nil
}

// FetchWallets processes several addresses, isolating failures: an
// address that errors contributes nothing but does not stop the others.
func (s *Service) FetchWallets(ctx context.Context, addresses []string, limitPerWallet int) []*domain.Transaction {
	var all []*domain.Transaction
	for _, addr := range addresses {
		txs, err := s.FetchWallet(ctx, addr, limitPerWallet)
		if err != nil {
			s.logger.Printf("[ingestion] wallet %s failed: %v", addr, err)
			continue
		}
		all = append(all, txs...)
	}
	return all
}

// fetchSignatures paginates signature history in descending-time cursor
// order. Pagination stops at the requested limit, at a short page, or
// at the page cap.
func (s *Service) fetchSignatures(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error) {
	var sigs []solana.SignatureInfo
	var before string

	for page := 0; page < s.maxPages && len(sigs) < limit; page++ {
		pageLimit := s.pageSize
		if remaining := limit - len(sigs); remaining < pageLimit {
			pageLimit = remaining
		}

		batch, err := s.rpc.GetSignaturesForAddress(ctx, address, solana.SignaturesOpts{
			Limit:  pageLimit,
			Before: before,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch signatures for %s: %w", address, err)
		}
		if len(batch) == 0 {
			break
		}

		sigs = append(sigs, batch...)
		before = batch[len(batch)-1].Signature

		if len(batch) < pageLimit {
			// Short page signals end of history.
			break
		}
	}

	if len(sigs) > limit {
		sigs = sigs[:limit]
	}
	return sigs, nil
}

// fetchDetails fetches and decodes transaction details as an unordered
// bounded-concurrency batch. Individual failures are logged and
// skipped.
func (s *Service) fetchDetails(ctx context.Context, address string, sigs []solana.SignatureInfo) []*domain.Transaction {
	var (
		mu  sync.Mutex
		all []*domain.Transaction
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, s.concurrency)

	for _, si := range sigs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(sig string) {
			defer wg.Done()
			defer func() { <-sem }()

			raw, err := s.rpc.GetTransaction(ctx, sig)
			if err != nil {
				s.metrics.FetchFailures.Inc()
				s.logger.Printf("[ingestion] fetch %s failed: %v", sig, err)
				return
			}
			if raw == nil {
				return
			}
			s.metrics.RecordsFetched.Inc()

			decoded := decoder.Decode(raw, address)
			if len(decoded) == 0 {
				return
			}
			s.metrics.RecordsDecoded.Add(float64(len(decoded)))

			mu.Lock()
			all = append(all, decoded...)
			mu.Unlock()
		}(si.Signature)
	}
	wg.Wait()

	return all
}
