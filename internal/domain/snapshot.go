package domain

import "time"

// Snapshot is an immutable view of the flight catalog at FetchedAt.
// It is never mutated after NewSnapshot returns; refreshes replace it whole.
type Snapshot struct {
	FetchedAt time.Time
	flights   []Flight
	byOrigin  map[string][]int
}

func NewSnapshot(flights []Flight, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		FetchedAt: fetchedAt,
		flights:   append([]Flight(nil), flights...),
		byOrigin:  make(map[string][]int),
	}
	for i, f := range s.flights {
		s.byOrigin[f.Origin] = append(s.byOrigin[f.Origin], i)
	}
	return s
}

// Flights returns a copy of the segments in catalog order.
func (s *Snapshot) Flights() []Flight {
	return append([]Flight(nil), s.flights...)
}

func (s *Snapshot) Len() int {
	return len(s.flights)
}

// Outgoing returns the segments departing from station, in catalog order.
func (s *Snapshot) Outgoing(station string) []Flight {
	idx := s.byOrigin[station]
	out := make([]Flight, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.flights[i])
	}
	return out
}

// Age is the time elapsed since the snapshot was fetched, measured at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
