package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"solana-tax-tracker/internal/cex"
	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/normalization"
	"solana-tax-tracker/internal/reporting"
	"solana-tax-tracker/internal/solana"
	"solana-tax-tracker/internal/tax"
)

// maxUploadBytes bounds CEX CSV uploads.
const maxUploadBytes = 32 << 20

type calculateRequest struct {
	Country         string   `json:"country"`
	Year            int      `json:"year"`
	WalletAddresses []string `json:"wallet_addresses"`
}

type summaryResponse struct {
	TotalGainsEUR     string `json:"total_gains_eur"`
	TotalLossesEUR    string `json:"total_losses_eur"`
	NetGainLossEUR    string `json:"net_gain_loss_eur"`
	StakingRewardsEUR string `json:"staking_rewards_eur"`
	TaxableAmountEUR  string `json:"taxable_amount_eur"`
	TransactionCount  int    `json:"transaction_count"`
}

type calculateResponse struct {
	Country    string          `json:"country"`
	Year       int             `json:"year"`
	Summary    summaryResponse `json:"summary"`
	AuditTrail string          `json:"audit_trail"`
	CSV        string          `json:"csv,omitempty"`
	Markdown   string          `json:"markdown,omitempty"`
}

// handleCalculate runs the full pipeline: fetch wallet records, merge
// with stored exchange imports, enrich, filter to the year, compute.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Year == 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("year is required"))
		return
	}

	if len(req.WalletAddresses) > s.maxWallets {
		s.writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("too many wallet addresses: %d (limit %d)", len(req.WalletAddresses), s.maxWallets))
		return
	}

	engine, err := tax.Resolve(req.Country)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	walletTxs := s.ingest.FetchWallets(ctx, req.WalletAddresses, s.walletLimit)

	// Previously uploaded exchange history participates in the
	// calculation alongside freshly fetched wallet records.
	var imported []*domain.Transaction
	for _, source := range []string{domain.SourceKraken, domain.SourceCoinbase} {
		txs, err := s.store.GetBySource(ctx, source)
		if err != nil {
			s.logger.Printf("[server] load %s imports: %v", source, err)
			continue
		}
		imported = append(imported, txs...)
	}

	normalized, err := s.normalizer.Merge(ctx, walletTxs, imported)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("normalize: %w", err))
		return
	}
	filtered := normalization.FilterByYear(normalized, req.Year)

	report, err := engine.Compute(filtered, req.Year)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("compute report: %w", err))
		return
	}
	s.metrics.ReportsComputed.WithLabelValues(report.Country).Inc()

	resp := calculateResponse{
		Country: report.Country,
		Year:    report.Year,
		Summary: summaryResponse{
			TotalGainsEUR:     report.Summary.TotalGainsEUR.String(),
			TotalLossesEUR:    report.Summary.TotalLossesEUR.String(),
			NetGainLossEUR:    report.Summary.NetGainLossEUR.String(),
			StakingRewardsEUR: report.Summary.StakingRewardsEUR.String(),
			TaxableAmountEUR:  report.Summary.TaxableAmountEUR.String(),
			TransactionCount:  report.Summary.TransactionCount,
		},
		AuditTrail: report.AuditTrail,
	}
	switch r.URL.Query().Get("format") {
	case "csv":
		resp.CSV = reporting.RenderCSV(report)
	case "markdown":
		resp.Markdown = reporting.RenderMarkdown(report)
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"countries": tax.SupportedCountries(),
	})
}

func (s *Server) handleValidateWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	err := solana.ValidateAddress(address)
	resp := map[string]any{
		"address": address,
		"valid":   err == nil,
	}
	if err != nil {
		resp["reason"] = err.Error()
	} else {
		// Program-derived addresses are valid but never hold wallet
		// history worth fetching.
		resp["on_curve"] = solana.IsOnCurve(address)
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleCexUpload accepts a multipart CSV upload for one exchange and
// stores the parsed transactions.
func (s *Server) handleCexUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	exchange := r.FormValue("exchange")
	adapter, err := cex.For(exchange)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("read upload file: %w", err))
		return
	}
	defer file.Close()

	txs, err := adapter.ParseCSV(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("parse %s csv: %w", exchange, err))
		return
	}

	inserted, err := s.store.InsertBatch(r.Context(), txs)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("store transactions: %w", err))
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"exchange": adapter.Exchange(),
		"parsed":   len(txs),
		"imported": inserted,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	s.metrics.HTTPRequests.WithLabelValues(r.URL.Path, statusClass(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("[server] encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Printf("[server] %s %s: %v", r.Method, r.URL.Path, err)
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
