package feed

import (
	"sort"

	"main/internal/oracle"
)

// subscriptions tracks which feed ids are required and which consumer
// pair indices reference each of them. Several pairs may share one feed.
// Not safe for concurrent use; the manager's mutex serializes access.
type subscriptions struct {
	feeds map[oracle.FeedID]map[int]struct{}
	pairs map[int]oracle.FeedID
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		feeds: make(map[oracle.FeedID]map[int]struct{}),
		pairs: make(map[int]oracle.FeedID),
	}
}

// Reconcile replaces the consumer mapping with the desired one. Feed ids
// must already be normalized. Returns the ids that became newly required
// and the ids that lost their last consumer, both sorted.
func (s *subscriptions) Reconcile(desired map[oracle.FeedID][]int) (added, removed []oracle.FeedID) {
	next := make(map[oracle.FeedID]map[int]struct{}, len(desired))
	nextPairs := make(map[int]oracle.FeedID, len(desired))
	for id, consumers := range desired {
		set := make(map[int]struct{}, len(consumers))
		for _, pairIndex := range consumers {
			set[pairIndex] = struct{}{}
			nextPairs[pairIndex] = id
		}
		if len(set) == 0 {
			continue
		}
		next[id] = set
	}

	for id := range next {
		if _, ok := s.feeds[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range s.feeds {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}

	s.feeds = next
	s.pairs = nextPairs

	sortFeedIDs(added)
	sortFeedIDs(removed)
	return added, removed
}

// Desired returns every required feed id, sorted.
func (s *subscriptions) Desired() []oracle.FeedID {
	ids := make([]oracle.FeedID, 0, len(s.feeds))
	for id := range s.feeds {
		ids = append(ids, id)
	}
	sortFeedIDs(ids)
	return ids
}

// Consumers returns the pair indices mapped to a feed id, sorted.
func (s *subscriptions) Consumers(id oracle.FeedID) []int {
	set := s.feeds[id]
	if len(set) == 0 {
		return nil
	}
	consumers := make([]int, 0, len(set))
	for pairIndex := range set {
		consumers = append(consumers, pairIndex)
	}
	sort.Ints(consumers)
	return consumers
}

// FeedForPair resolves the feed id a pair index consumes.
func (s *subscriptions) FeedForPair(pairIndex int) (oracle.FeedID, bool) {
	id, ok := s.pairs[pairIndex]
	return id, ok
}

func (s *subscriptions) Empty() bool {
	return len(s.feeds) == 0
}

func sortFeedIDs(ids []oracle.FeedID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
