package feed

import (
	"context"
	"sync"
	"time"

	"main/internal/oracle"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const defaultReconnectDelay = 5 * time.Second

// State is the connection lifecycle state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

// Config defines the manager runtime configuration.
type Config struct {
	Dialer Dialer
	// ReconnectDelay is the flat delay before a single reconnect attempt.
	// The delay does not escalate on repeated failures.
	ReconnectDelay time.Duration
	Metrics        *Metrics
}

// Manager owns one streaming connection and the refcounted subscription
// set behind it. Many consumer pair indices may share one feed id; exactly
// one outbound subscribe exists per distinct id. The connection is dialed
// lazily when the first feed is required and resubscribes the entire
// active set after every reconnect, since the server keeps no state.
type Manager struct {
	mu   sync.Mutex
	wmu  sync.Mutex
	cfg  Config
	subs *subscriptions

	conn      Conn
	state     State
	gen       uint64
	latest    map[oracle.FeedID]oracle.PriceSample
	callbacks []func(oracle.FeedID, float64)

	retryPending bool
	closed       bool
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewManager validates config and builds a manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dialer == nil {
		return nil, errors.New("feed: nil dialer")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		subs:   newSubscriptions(),
		latest: make(map[oracle.FeedID]oracle.PriceSample),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnPriceUpdate registers a consumer for decoded price events.
func (m *Manager) OnPriceUpdate(callback func(id oracle.FeedID, unitPrice float64)) {
	if m == nil || callback == nil {
		return
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, callback)
	m.mu.Unlock()
}

// SetActiveFeeds reconciles the live subscription set against the desired
// consumer mapping. Newly required ids are subscribed in one batch when
// the connection is open and deferred until open otherwise; ids with zero
// remaining consumers are unsubscribed. An empty set never dials.
func (m *Manager) SetActiveFeeds(desired map[oracle.FeedID][]int) {
	if m == nil {
		return
	}

	normalized := make(map[oracle.FeedID][]int, len(desired))
	for id, consumers := range desired {
		normalized[id.Normalize()] = consumers
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	added, removed := m.subs.Reconcile(normalized)
	state := m.state
	dial := state == StateDisconnected && !m.subs.Empty() && !m.retryPending
	m.mu.Unlock()

	if state == StateOpen {
		if len(added) > 0 {
			m.sendControl(msgTypeSubscribe, added)
		}
		if len(removed) > 0 {
			m.sendControl(msgTypeUnsubscribe, removed)
		}
	}
	if dial {
		go m.connect()
	}
}

// Consumers returns the pair indices currently mapped to a feed id.
func (m *Manager) Consumers(id oracle.FeedID) []int {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	consumers := m.subs.Consumers(id.Normalize())
	m.mu.Unlock()
	return consumers
}

// LatestPrice returns the most recent decoded sample for a feed id.
func (m *Manager) LatestPrice(id oracle.FeedID) (oracle.PriceSample, bool) {
	if m == nil {
		return oracle.PriceSample{}, false
	}
	m.mu.Lock()
	sample, ok := m.latest[id.Normalize()]
	m.mu.Unlock()
	return sample, ok
}

// PairPrice resolves the latest unit price for a consumer pair index.
func (m *Manager) PairPrice(pairIndex int) (float64, bool) {
	if m == nil {
		return 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.subs.FeedForPair(pairIndex)
	if !ok {
		return 0, false
	}
	sample, ok := m.latest[id]
	if !ok {
		return 0, false
	}
	return sample.Price, true
}

// Metrics returns the manager's stream counters.
func (m *Manager) Metrics() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return m.cfg.Metrics.Capture()
}

// State returns the current connection state.
func (m *Manager) State() State {
	if m == nil {
		return StateDisconnected
	}
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	return state
}

// Close tears the manager down: the socket is closed and any pending
// reconnect is cancelled in the same step. Idempotent.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.state = StateDisconnected
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	if conn != nil {
		_ = conn.Close()
	}
}

func (m *Manager) connect() {
	m.mu.Lock()
	if m.closed || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	conn, err := m.cfg.Dialer.Dial(m.ctx)
	if err != nil {
		logs.Errorf("connect price stream, err: %+v", err)
		m.mu.Lock()
		m.state = StateDisconnected
		if !m.closed && !m.subs.Empty() {
			m.scheduleReconnect()
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.state = StateOpen
	m.gen++
	gen := m.gen
	ids := m.subs.Desired()
	m.mu.Unlock()

	logs.Infof("price stream open, feeds: %d", len(ids))
	if len(ids) > 0 {
		m.sendControl(msgTypeSubscribe, ids)
	}
	go m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(conn, gen, err)
			return
		}
		m.handleFrame(data)
	}
}

func (m *Manager) handleDisconnect(conn Conn, gen uint64, cause error) {
	_ = conn.Close()

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateDisconnected
	empty := m.subs.Empty()
	if !empty {
		m.scheduleReconnect()
	}
	m.mu.Unlock()

	logs.Infof("price stream closed, reconnect: %v, cause: %+v", !empty, cause)
}

// scheduleReconnect arms a single flat-delay retry. Callers hold m.mu.
func (m *Manager) scheduleReconnect() {
	if m.retryPending {
		return
	}
	m.retryPending = true
	m.cfg.Metrics.IncReconnect()
	delay := m.cfg.ReconnectDelay

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-m.ctx.Done():
			return
		case <-sys.Shutdown():
			return
		case <-timer.C:
		}

		m.mu.Lock()
		m.retryPending = false
		skip := m.closed || m.subs.Empty() || m.state != StateDisconnected
		m.mu.Unlock()
		if skip {
			return
		}
		m.connect()
	}()
}

func (m *Manager) handleFrame(data []byte) {
	msg, err := decodeInbound(data)
	if err != nil {
		m.cfg.Metrics.IncFrameDrop()
		logs.Errorf("unmarshal stream frame, err: %+v", err)
		return
	}
	if msg.Type != msgTypePriceUpdate || msg.PriceFeed == nil {
		return
	}

	unitPrice, ok := oracle.DecodePrice(msg.PriceFeed.Price)
	if !ok {
		m.cfg.Metrics.IncDecodeDrop()
		logs.Errorf("drop malformed price sample, feed: %s", msg.PriceFeed.ID)
		return
	}
	id := oracle.FeedID(msg.PriceFeed.ID).Normalize()

	m.mu.Lock()
	m.latest[id] = oracle.PriceSample{
		Feed:       id,
		Price:      unitPrice,
		ReceivedAt: time.Now(),
	}
	callbacks := make([]func(oracle.FeedID, float64), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	m.cfg.Metrics.IncSample()

	for _, callback := range callbacks {
		callback(id, unitPrice)
	}
}

func (m *Manager) sendControl(msgType string, ids []oracle.FeedID) {
	payload, err := encodeControl(msgType, ids)
	if err != nil {
		logs.Errorf("encode %s payload, err: %+v", msgType, err)
		return
	}

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	m.wmu.Lock()
	err = conn.WriteMessage(payload)
	m.wmu.Unlock()
	if err != nil {
		logs.Errorf("write %s payload, err: %+v", msgType, err)
		return
	}
	m.cfg.Metrics.IncControl(msgType)
}
