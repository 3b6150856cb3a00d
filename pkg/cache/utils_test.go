package cache

import "testing"

func TestGenerateKeyWithParams(t *testing.T) {
	cases := []struct {
		prefix string
		params []interface{}
		want   string
	}{
		{"forecast", []interface{}{"latest", "btcusdt"}, "forecast:latest:btcusdt"},
		{"forecast", []interface{}{"hour", "btcusdt", int64(1735812000000)}, "forecast:hour:btcusdt:1735812000000"},
		{"bare", nil, "bare"},
	}
	for _, c := range cases {
		if got := GenerateKeyWithParams(c.prefix, c.params...); got != c.want {
			t.Fatalf("key(%s, %v) = %q, want %q", c.prefix, c.params, got, c.want)
		}
	}
}
