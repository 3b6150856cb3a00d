package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ArtifactKey identifies one trained model for a (symbol, horizon, day).
// Date has day granularity only: a model set is created once per calendar day
// and stays valid for the whole day.
type ArtifactKey struct {
	Symbol  string
	Horizon int
	Date    string // YYYYMMDD
}

// String serializes the key as "model_{symbol}_h{horizon}_{date}". This codec
// is the single source of truth for artifact naming; nothing else parses
// filenames ad hoc.
func (k ArtifactKey) String() string {
	return fmt.Sprintf("model_%s_h%d_%s", strings.ToLower(k.Symbol), k.Horizon, k.Date)
}

// ParseArtifactKey parses a key produced by String. The name may carry a file
// extension, which is ignored.
func ParseArtifactKey(name string) (ArtifactKey, error) {
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	parts := strings.Split(base, "_")
	if len(parts) < 4 || parts[0] != "model" {
		return ArtifactKey{}, fmt.Errorf("artifact key %q: malformed", name)
	}
	dateStr := parts[len(parts)-1]
	if _, err := time.Parse("20060102", dateStr); err != nil {
		return ArtifactKey{}, fmt.Errorf("artifact key %q: bad date: %w", name, err)
	}
	hPart := parts[len(parts)-2]
	if !strings.HasPrefix(hPart, "h") {
		return ArtifactKey{}, fmt.Errorf("artifact key %q: missing horizon", name)
	}
	horizon, err := strconv.Atoi(hPart[1:])
	if err != nil {
		return ArtifactKey{}, fmt.Errorf("artifact key %q: bad horizon: %w", name, err)
	}
	symbol := strings.Join(parts[1:len(parts)-2], "_")
	if symbol == "" {
		return ArtifactKey{}, fmt.Errorf("artifact key %q: missing symbol", name)
	}
	return ArtifactKey{Symbol: symbol, Horizon: horizon, Date: dateStr}, nil
}

// ArtifactMetadata records how an artifact was produced.
type ArtifactMetadata struct {
	TrainedAt time.Time `json:"trained_at"`
	Samples   int       `json:"samples"`
	Loss      float64   `json:"loss"`
}

// ModelArtifact bundles a trained model's serialized weights with the two
// scalers it was trained against. A symbol's complete set is the union of
// artifacts for all horizons sharing one Date; partial sets are invalid.
type ModelArtifact struct {
	Key           ArtifactKey
	ModelBlob     []byte
	FeatureScaler *MinMaxScaler
	TargetScaler  *MinMaxScaler
	Metadata      ArtifactMetadata
}
