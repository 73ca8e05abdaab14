package feed

import "sync/atomic"

// Metrics collects lightweight stream counters.
type Metrics struct {
	samples      uint64
	decodeDrops  uint64
	frameDrops   uint64
	reconnects   uint64
	subscribes   uint64
	unsubscribes uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Samples      uint64
	DecodeDrops  uint64
	FrameDrops   uint64
	Reconnects   uint64
	Subscribes   uint64
	Unsubscribes uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncSample records one published price sample.
func (m *Metrics) IncSample() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.samples, 1)
}

// IncDecodeDrop records a sample dropped for a malformed price payload.
func (m *Metrics) IncDecodeDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decodeDrops, 1)
}

// IncFrameDrop records an unparseable inbound frame.
func (m *Metrics) IncFrameDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.frameDrops, 1)
}

// IncReconnect records a scheduled reconnect attempt.
func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

// IncControl records an outbound control message by type.
func (m *Metrics) IncControl(msgType string) {
	if m == nil {
		return
	}
	switch msgType {
	case msgTypeSubscribe:
		atomic.AddUint64(&m.subscribes, 1)
	case msgTypeUnsubscribe:
		atomic.AddUint64(&m.unsubscribes, 1)
	}
}

// Capture returns the current counter values.
func (m *Metrics) Capture() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Samples:      atomic.LoadUint64(&m.samples),
		DecodeDrops:  atomic.LoadUint64(&m.decodeDrops),
		FrameDrops:   atomic.LoadUint64(&m.frameDrops),
		Reconnects:   atomic.LoadUint64(&m.reconnects),
		Subscribes:   atomic.LoadUint64(&m.subscribes),
		Unsubscribes: atomic.LoadUint64(&m.unsubscribes),
	}
}
