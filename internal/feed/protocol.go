package feed

import (
	"main/internal/oracle"

	"github.com/bytedance/sonic"
)

const (
	msgTypeSubscribe   = "subscribe"
	msgTypeUnsubscribe = "unsubscribe"
	msgTypePriceUpdate = "price_update"
)

type controlMessage struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
}

type inboundMessage struct {
	Type      string            `json:"type"`
	PriceFeed *inboundPriceFeed `json:"price_feed"`
}

type inboundPriceFeed struct {
	ID    string          `json:"id"`
	Price oracle.RawPrice `json:"price"`
}

func encodeControl(msgType string, ids []oracle.FeedID) ([]byte, error) {
	msg := controlMessage{
		Type: msgType,
		IDs:  make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		msg.IDs = append(msg.IDs, id.String())
	}
	return sonic.ConfigFastest.Marshal(msg)
}

func decodeInbound(data []byte) (inboundMessage, error) {
	var msg inboundMessage
	if err := sonic.ConfigFastest.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, err
	}
	return msg, nil
}
