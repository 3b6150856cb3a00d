package models

import "testing"

func TestArtifactKeyRoundTrip(t *testing.T) {
	key := ArtifactKey{Symbol: "btcusdt", Horizon: 12, Date: "20250102"}
	got, err := ParseArtifactKey(key.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != key {
		t.Fatalf("round trip: got %+v want %+v", got, key)
	}
}

func TestParseArtifactKeyWithExtension(t *testing.T) {
	got, err := ParseArtifactKey("model_ethusdt_h60_20250630.gob")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Symbol != "ethusdt" || got.Horizon != 60 || got.Date != "20250630" {
		t.Fatalf("unexpected key %+v", got)
	}
}

func TestParseArtifactKeySymbolWithUnderscore(t *testing.T) {
	key := ArtifactKey{Symbol: "btc_usdt", Horizon: 1, Date: "20250102"}
	got, err := ParseArtifactKey(key.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Symbol != "btc_usdt" {
		t.Fatalf("symbol = %q, want btc_usdt", got.Symbol)
	}
}

func TestParseArtifactKeyMalformed(t *testing.T) {
	cases := []string{
		"",
		"model",
		"weights_btc_h1_20250102",
		"model_btc_1_20250102",
		"model_btc_h1_2025010",
		"model_btc_hx_20250102",
	}
	for _, name := range cases {
		if _, err := ParseArtifactKey(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
