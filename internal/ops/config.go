package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/oracle"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Stream    StreamConfig    `json:"stream"`
	Valuation ValuationConfig `json:"valuation"`
	Pairs     []PairConfig    `json:"pairs"`
}

// StreamConfig describes the oracle streaming endpoint.
type StreamConfig struct {
	Host             string `json:"host"`
	Port             string `json:"port"`
	Path             string `json:"path"`
	SnapshotURL      string `json:"snapshotUrl"`
	ReconnectDelayMs int    `json:"reconnectDelayMs"`
}

// ValuationConfig carries engine defaults.
type ValuationConfig struct {
	FlatFeeRate float64 `json:"flatFeeRate"`
}

// PairConfig describes one tradable pair entry.
type PairConfig struct {
	Index          int     `json:"index"`
	Name           string  `json:"name"`
	FeedID         string  `json:"feedId"`
	MinLeverage    float64 `json:"minLeverage"`
	MaxLeverage    float64 `json:"maxLeverage"`
	ClosingFeeRate float64 `json:"closingFeeRate"`
}

// PairSpec is a resolved pair entry with a normalized feed id.
type PairSpec struct {
	Index          int
	Name           string
	Feed           oracle.FeedID
	MinLeverage    float64
	MaxLeverage    float64
	ClosingFeeRate float64
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Stream         StreamConfig
	ReconnectDelay time.Duration
	FlatFeeRate    float64
	Pairs          map[int]PairSpec
}

// FeedByPair maps each pair index to its feed id.
func (l Loaded) FeedByPair() map[int]oracle.FeedID {
	feeds := make(map[int]oracle.FeedID, len(l.Pairs))
	for index, pair := range l.Pairs {
		feeds[index] = pair.Feed
	}
	return feeds
}

// Load reads a JSON config file and resolves the pair registry.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Stream.Host == "" {
		return Loaded{}, fmt.Errorf("stream host is empty")
	}
	if cfg.Stream.Port == "" {
		cfg.Stream.Port = "443"
	}
	if cfg.Stream.Path == "" {
		cfg.Stream.Path = "/ws"
	}
	if cfg.Valuation.FlatFeeRate < 0 {
		return Loaded{}, fmt.Errorf("flat fee rate must be >= 0")
	}

	delay := time.Duration(cfg.Stream.ReconnectDelayMs) * time.Millisecond
	if delay < 0 {
		return Loaded{}, fmt.Errorf("reconnect delay must be >= 0")
	}

	pairs := make(map[int]PairSpec, len(cfg.Pairs))
	for _, pair := range cfg.Pairs {
		if pair.FeedID == "" {
			return Loaded{}, fmt.Errorf("pair %s: feed id is empty", pair.Name)
		}
		if _, exists := pairs[pair.Index]; exists {
			return Loaded{}, fmt.Errorf("duplicate pair index: %d", pair.Index)
		}
		if pair.MinLeverage < 0 || pair.MaxLeverage < 0 {
			return Loaded{}, fmt.Errorf("pair %s: leverage bounds must be >= 0", pair.Name)
		}
		if pair.MinLeverage > 0 && pair.MaxLeverage > 0 && pair.MinLeverage > pair.MaxLeverage {
			return Loaded{}, fmt.Errorf("pair %s: min leverage exceeds max", pair.Name)
		}
		if pair.ClosingFeeRate < 0 {
			return Loaded{}, fmt.Errorf("pair %s: closing fee rate must be >= 0", pair.Name)
		}
		pairs[pair.Index] = PairSpec{
			Index:          pair.Index,
			Name:           pair.Name,
			Feed:           oracle.FeedID(pair.FeedID).Normalize(),
			MinLeverage:    pair.MinLeverage,
			MaxLeverage:    pair.MaxLeverage,
			ClosingFeeRate: pair.ClosingFeeRate,
		}
	}

	return Loaded{
		Stream:         cfg.Stream,
		ReconnectDelay: delay,
		FlatFeeRate:    cfg.Valuation.FlatFeeRate,
		Pairs:          pairs,
	}, nil
}
