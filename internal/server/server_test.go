package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/ingestion"
	"solana-tax-tracker/internal/normalization"
	"solana-tax-tracker/internal/solana"
	"solana-tax-tracker/internal/storage/memory"
)

type nilRPC struct{}

func (nilRPC) GetTransaction(context.Context, string) (*solana.Transaction, error) {
	return nil, nil
}

func (nilRPC) GetSignaturesForAddress(context.Context, string, solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return nil, nil
}

type fixedPrices struct{}

func (fixedPrices) UnitPrice(_ context.Context, _ string, _ time.Time, _ string) (*decimal.Decimal, error) {
	d := decimal.NewFromInt(100)
	return &d, nil
}

type identityFX struct{}

func (identityFX) Convert(_ context.Context, amount decimal.Decimal, _, _ string, _ time.Time) (decimal.Decimal, error) {
	return amount, nil
}

func newTestServer(t *testing.T) (*Server, *memory.TransactionStore) {
	t.Helper()
	store := memory.NewTransactionStore()
	srv := New(
		ingestion.NewService(nilRPC{}, nil, nil),
		normalization.New(fixedPrices{}, identityFX{}, nil),
		store,
		nil,
		nil,
	)
	return srv, store
}

func TestCountries(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tax/countries", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Countries []string `json:"countries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Countries) != 1 || resp.Countries[0] != "DE" {
		t.Fatalf("countries = %v, want [DE]", resp.Countries)
	}
}

func TestValidateWallet(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/wallets/validate/So11111111111111111111111111111111111111112", nil))
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["valid"] != true {
		t.Fatalf("valid = %v, want true", resp["valid"])
	}

	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/wallets/validate/nope", nil))
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["valid"] != false {
		t.Fatalf("valid = %v, want false", resp["valid"])
	}
}

func TestCalculateTooManyWallets(t *testing.T) {
	srv, _ := newTestServer(t)
	addrs := make([]string, 11)
	for i := range addrs {
		addrs[i] = "So11111111111111111111111111111111111111112"
	}
	body, _ := json.Marshal(map[string]any{
		"country":          "DE",
		"year":             2024,
		"wallet_addresses": addrs,
	})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tax/calculate", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCalculateUnsupportedCountry(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"country":"XX","year":2024}`
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tax/calculate", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func uploadRequest(t *testing.T, exchange, csv string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("exchange", exchange); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", "export.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(csv))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cex/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const krakenCSV = `txid,refid,time,type,subtype,aclass,asset,amount,fee,balance
L1,R1,1704067200,deposit,,currency,SOL,5.0,0,5.0
L2,R2,1710000000,trade,,currency,SOL,-2.0,0.01,3.0
`

func TestCexUploadAndCalculate(t *testing.T) {
	srv, store := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, uploadRequest(t, "kraken", krakenCSV))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body)
	}
	var uploadResp struct {
		Parsed   int `json:"parsed"`
		Imported int `json:"imported"`
	}
	json.Unmarshal(rec.Body.Bytes(), &uploadResp)
	if uploadResp.Parsed != 2 || uploadResp.Imported != 2 {
		t.Fatalf("upload = %+v, want 2/2", uploadResp)
	}

	// The stored imports feed a calculation with no wallet addresses.
	if txs, _ := store.GetBySource(context.Background(), "kraken"); len(txs) != 2 {
		t.Fatalf("stored %d kraken transactions, want 2", len(txs))
	}

	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tax/calculate",
		strings.NewReader(`{"country":"DE","year":2024}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate status = %d: %s", rec.Code, rec.Body)
	}

	var calcResp calculateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &calcResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if calcResp.Country != "DE" || calcResp.Year != 2024 {
		t.Fatalf("response header = %s/%d", calcResp.Country, calcResp.Year)
	}
	if calcResp.Summary.TransactionCount != 2 {
		t.Fatalf("transaction count = %d, want 2", calcResp.Summary.TransactionCount)
	}
	if calcResp.AuditTrail == "" {
		t.Fatal("audit trail missing")
	}
}

func TestCexUploadUnsupportedExchange(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, uploadRequest(t, "binance", krakenCSV))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
