package market

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"main/internal/oracle"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

const snapshotTimeout = 15 * time.Second

// SnapshotClient fetches the latest decoded unit price per feed id from
// the oracle's REST snapshot endpoint. It warms the price map before the
// stream delivers its first update.
type SnapshotClient struct {
	baseURL string
	client  *http.Client
}

// NewSnapshotClient builds a client for the given endpoint base URL,
// e.g. "https://hermes.pyth.network".
func NewSnapshotClient(baseURL string) *SnapshotClient {
	return &SnapshotClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type latestResponse struct {
	Parsed []struct {
		ID    string          `json:"id"`
		Price oracle.RawPrice `json:"price"`
	} `json:"parsed"`
}

// Latest returns the current unit price for each requested feed id.
// Feeds whose payload fails to decode are omitted, not errors.
func (c *SnapshotClient) Latest(ctx context.Context, ids []oracle.FeedID) (map[oracle.FeedID]float64, error) {
	if len(ids) == 0 {
		return map[oracle.FeedID]float64{}, nil
	}

	query := url.Values{}
	for _, id := range ids {
		query.Add("ids[]", id.Normalize().String())
	}
	query.Set("encoding", "hex")
	query.Set("parsed", "true")

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v2/updates/price/latest?"+query.Encode(),
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch latest prices")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch latest prices, status: %d", resp.StatusCode)
	}

	var data latestResponse
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode latest prices")
	}

	prices := make(map[oracle.FeedID]float64, len(data.Parsed))
	for _, item := range data.Parsed {
		unitPrice, ok := oracle.DecodePrice(item.Price)
		if !ok {
			continue
		}
		prices[oracle.FeedID(item.ID).Normalize()] = unitPrice
	}
	return prices, nil
}
