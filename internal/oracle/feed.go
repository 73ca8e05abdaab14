package oracle

import (
	"strings"
	"time"
)

// FeedID identifies one oracle price stream.
//
// Upstream sources are inconsistent about casing and the "0x" prefix, so
// every id crossing a package boundary must go through Normalize first.
// Raw and normalized forms of the same id never coexist as map keys.
type FeedID string

// Normalize returns the canonical form: lowercase, no leading "0x".
func (id FeedID) Normalize() FeedID {
	s := strings.ToLower(string(id))
	s = strings.TrimPrefix(s, "0x")
	return FeedID(s)
}

func (id FeedID) String() string {
	return string(id)
}

// PriceSample is the latest decoded price for a feed. Samples are
// ephemeral; each update overwrites the previous one.
type PriceSample struct {
	Feed       FeedID
	Price      float64
	ReceivedAt time.Time
}
