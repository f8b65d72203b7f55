package uncrypt

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// VerifyFunc returns true if the candidate encrypted with the salt
// equals `encrypted` (the full 13-character salt+hash value).
// It must be safe for concurrent use.
type VerifyFunc func(salt, candidate, encrypted string) bool

// Crack is a single recovered password.
type Crack struct {
	Plaintext  string
	Credential *Credential
	Campaign   string
}

// CrackFunc is called exactly once per recovered credential.
// It may be called concurrently.
type CrackFunc func(ctx context.Context, crack Crack)

// Status is the state of a search.
type Status uint32

const (
	// StatusRunning means there are targets left and nobody requested to stop.
	StatusRunning = Status(iota)

	// StatusFound means all the targets are cracked.
	StatusFound

	// StatusCancelled means the search was interrupted from outside.
	StatusCancelled

	// StatusExhausted means the search space is over, but some targets are left.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFound:
		return "found"
	case StatusCancelled:
		return "cancelled"
	case StatusExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("unknown_status_%d", uint32(s))
	}
}

// TargetSet is the shrinking set of not-yet-cracked credentials shared
// by all the concurrent searchers.
//
// Verification is done under the read lock and removal under the write
// lock, so after a removal returned nobody will verify a candidate
// against the removed credential.
type TargetSet struct {
	// immutable:
	verifyFunc VerifyFunc
	crackFunc  CrackFunc

	locker sync.RWMutex
	live   []*Credential
	cracks []Crack

	// status is a global signaler that everybody should stop wasting CPU.
	//
	// It is preferred over using Context signaling due to performance reasons.
	status     atomic.Uint32
	guessCount atomic.Uint64
}

// NewTargetSet returns a set of the given credentials; repeated
// pointers are added only once. An empty set is already in StatusFound.
func NewTargetSet(
	credentials []*Credential,
	verifyFunc VerifyFunc,
	crackFunc CrackFunc,
) *TargetSet {
	s := &TargetSet{
		verifyFunc: verifyFunc,
		crackFunc:  crackFunc,
		live:       make([]*Credential, 0, len(credentials)),
	}
	for _, c := range credentials {
		if c == nil || slices.Contains(s.live, c) {
			continue
		}
		s.live = append(s.live, c)
	}
	if len(s.live) == 0 {
		s.status.Store(uint32(StatusFound))
	}
	return s
}

// Test verifies the candidate against every credential left in the set
// and removes the matching ones. Returns the amount of removed credentials.
func (s *TargetSet) Test(ctx context.Context, candidate, campaign string) int {
	s.guessCount.Add(1)

	var matched []*Credential
	s.locker.RLock()
	for _, c := range s.live {
		if s.verifyFunc(c.Salt(), candidate, c.EncryptedPassword) {
			matched = append(matched, c)
		}
	}
	s.locker.RUnlock()

	if len(matched) == 0 {
		return 0
	}

	cracks := s.remove(matched, candidate, campaign)
	if s.crackFunc != nil {
		for _, crack := range cracks {
			s.crackFunc(ctx, crack)
		}
	}
	return len(cracks)
}

// remove deletes the credentials still present in the set; a credential
// already removed by somebody else is skipped.
func (s *TargetSet) remove(matched []*Credential, candidate, campaign string) []Crack {
	s.locker.Lock()
	defer s.locker.Unlock()

	var cracks []Crack
	for _, c := range matched {
		idx := slices.Index(s.live, c)
		if idx < 0 {
			continue
		}
		s.live = slices.Delete(s.live, idx, idx+1)
		cracks = append(cracks, Crack{
			Plaintext:  candidate,
			Credential: c,
			Campaign:   campaign,
		})
	}
	s.cracks = append(s.cracks, cracks...)

	if len(s.live) == 0 {
		s.status.Store(uint32(StatusFound))
	}
	return cracks
}

// Stopped returns true if the searchers should stop.
func (s *TargetSet) Stopped() bool {
	return s.status.Load() != uint32(StatusRunning)
}

// Status returns the current state.
func (s *TargetSet) Status() Status {
	return Status(s.status.Load())
}

// Cancel stops the searchers unless they have already stopped.
func (s *TargetSet) Cancel() bool {
	return s.status.CompareAndSwap(uint32(StatusRunning), uint32(StatusCancelled))
}

func (s *TargetSet) exhaust() bool {
	return s.status.CompareAndSwap(uint32(StatusRunning), uint32(StatusExhausted))
}

// Len returns the amount of credentials left.
func (s *TargetSet) Len() int {
	s.locker.RLock()
	defer s.locker.RUnlock()
	return len(s.live)
}

// Remaining returns a copy of the credentials left.
func (s *TargetSet) Remaining() []*Credential {
	s.locker.RLock()
	defer s.locker.RUnlock()
	return slices.Clone(s.live)
}

// Cracks returns a copy of the cracks in the order of removal.
func (s *TargetSet) Cracks() []Crack {
	s.locker.RLock()
	defer s.locker.RUnlock()
	return slices.Clone(s.cracks)
}

// GuessCount returns the amount of tested candidates.
func (s *TargetSet) GuessCount() uint64 {
	return s.guessCount.Load()
}
