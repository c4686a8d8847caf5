package loaderService

// DefaultRecentlyLoadedCapacity bounds the per-loader dedup cache.
const DefaultRecentlyLoadedCapacity = 10000

// RecentlyLoadedSet remembers the last `capacity` distinct keys it was given.
// When full, the key inserted first is forgotten first. Re-adding a key
// already present does not refresh it. Not safe for concurrent use.
type RecentlyLoadedSet struct {
	ring  []string
	next  int
	size  int
	index map[string]struct{}
}

func NewRecentlyLoadedSet(capacity int) *RecentlyLoadedSet {
	if capacity <= 0 {
		capacity = DefaultRecentlyLoadedCapacity
	}
	return &RecentlyLoadedSet{
		ring:  make([]string, capacity),
		index: make(map[string]struct{}, capacity),
	}
}

func (s *RecentlyLoadedSet) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Add inserts key, evicting the oldest key when the set is full.
// It reports whether key was absent.
func (s *RecentlyLoadedSet) Add(key string) bool {
	if s.Contains(key) {
		return false
	}

	if s.size == len(s.ring) {
		delete(s.index, s.ring[s.next])
	} else {
		s.size++
	}
	s.ring[s.next] = key
	s.index[key] = struct{}{}
	s.next = (s.next + 1) % len(s.ring)
	return true
}

func (s *RecentlyLoadedSet) Len() int {
	return s.size
}

func (s *RecentlyLoadedSet) Capacity() int {
	return len(s.ring)
}
