package solana

import "testing"

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"11111111111111111111111111111111",
	}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("ValidateAddress(%s) = %v, want nil", addr, err)
		}
	}

	invalid := map[string]string{
		"":     "empty",
		"abc":  "too short",
		"So11111111111111111111111111111111111111112XXXXXXX": "too long",
		"0OIl111111111111111111111111111111111111112":        "non-base58 characters",
	}
	for addr, reason := range invalid {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%s) = nil, want error (%s)", addr, reason)
		}
	}
}

func TestIsOnCurve(t *testing.T) {
	// The system program address is a valid curve point.
	if !IsOnCurve("11111111111111111111111111111111") {
		t.Error("system program address should be on-curve")
	}

	if IsOnCurve("not-an-address") {
		t.Error("garbage should not be on-curve")
	}
}
