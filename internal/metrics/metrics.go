package metrics

import "sync/atomic"

// ID identifies a single counter.
type ID uint16

const (
	LoginSuccess ID = iota
	LoginFailure
	LoginLockedOut
	LoginThrottled
	GoogleLoginSuccess
	GoogleLoginFailure
	RegisterSuccess
	RegisterRejected
	RefreshSuccess
	RefreshFailure
	Logout
	LogoutAll
	SessionCreated
	SessionSwept
	PasswordResetRequested
	PasswordResetSuccess
	PasswordResetFailure
	VerificationEmailSent
	EmailVerified
	EmailVerificationFailure
	idCount
)

// Count reports how many counter IDs exist.
func Count() int {
	return int(idCount)
}

// Config controls whether counters are recorded.
type Config struct {
	Enabled bool
}

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for every auth outcome.
// Counters are padded to avoid false sharing on hot paths.
type Metrics struct {
	enabled  bool
	counters [idCount]paddedCounter
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[ID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id >= idCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Add(id ID, n uint64) {
	if m == nil || !m.enabled || id >= idCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) TakeSnapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{Counters: map[ID]uint64{}}
	}

	s := Snapshot{Counters: make(map[ID]uint64, int(idCount))}
	for id := ID(0); id < idCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
