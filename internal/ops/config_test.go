package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"stream": {"host": "hermes.pyth.network", "reconnectDelayMs": 5000},
		"valuation": {"flatFeeRate": 0.001},
		"pairs": [
			{"index": 0, "name": "ETH/USD", "feedId": "0xFF61491A931112DDF1BD8147CD1B641375F79F5825126D665480874634FD0ACE", "minLeverage": 1, "maxLeverage": 75},
			{"index": 1, "name": "BTC/USD", "feedId": "e62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43", "minLeverage": 1, "maxLeverage": 50, "closingFeeRate": 0.0008}
		]
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "443", loaded.Stream.Port)
	assert.Equal(t, "/ws", loaded.Stream.Path)
	assert.Equal(t, 5*time.Second, loaded.ReconnectDelay)
	assert.InDelta(t, 0.001, loaded.FlatFeeRate, 1e-12)

	require.Len(t, loaded.Pairs, 2)
	eth := loaded.Pairs[0]
	assert.Equal(t, "ETH/USD", eth.Name)
	assert.EqualValues(t, "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace", eth.Feed)

	feeds := loaded.FeedByPair()
	require.Len(t, feeds, 2)
	assert.Equal(t, eth.Feed, feeds[0])
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing host", `{"stream": {}, "pairs": []}`},
		{"empty feed id", `{"stream": {"host": "h"}, "pairs": [{"index": 0, "name": "ETH/USD"}]}`},
		{"duplicate pair index", `{"stream": {"host": "h"}, "pairs": [
			{"index": 0, "name": "A", "feedId": "aa"},
			{"index": 0, "name": "B", "feedId": "bb"}
		]}`},
		{"inverted leverage bounds", `{"stream": {"host": "h"}, "pairs": [
			{"index": 0, "name": "A", "feedId": "aa", "minLeverage": 10, "maxLeverage": 2}
		]}`},
		{"negative fee rate", `{"stream": {"host": "h"}, "valuation": {"flatFeeRate": -1}, "pairs": []}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}
