package chrono

import "time"

// API is the clock every component reads time from, so that cache freshness
// and extraction timestamps can be pinned in tests.
type API interface {
	Now() time.Time
}

type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

// FixedImpl always returns the same instant until it is moved with Set or Advance.
type FixedImpl struct {
	now *time.Time
}

func NewFixedImpl(now time.Time) FixedImpl {
	return FixedImpl{now: &now}
}

func (f FixedImpl) Now() time.Time {
	return *f.now
}

func (f FixedImpl) Set(now time.Time) {
	*f.now = now
}

func (f FixedImpl) Advance(d time.Duration) {
	*f.now = f.now.Add(d)
}
