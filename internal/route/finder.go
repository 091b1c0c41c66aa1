// Package route finds connecting itineraries over a catalog snapshot.
//
// The search is a first-found depth-first walk, not a cheapest or shortest
// path search. At every station a segment that lands directly on the
// destination is taken immediately; otherwise outgoing segments are tried
// in catalog order and the first branch that completes within the hop
// budget wins.
package route

import (
	"github.com/Domenick1991/airjourney/internal/domain"
)

// Finder resolves a path of segments between two stations.
type Finder interface {
	FindRoute(snapshot *domain.Snapshot, origin, destination string, maxHops int) ([]domain.Flight, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(snapshot *domain.Snapshot, origin, destination string, maxHops int) ([]domain.Flight, error)

func (f FinderFunc) FindRoute(snapshot *domain.Snapshot, origin, destination string, maxHops int) ([]domain.Flight, error) {
	return f(snapshot, origin, destination, maxHops)
}

type DFSFinder struct{}

func NewFinder() *DFSFinder {
	return &DFSFinder{}
}

func (DFSFinder) FindRoute(snapshot *domain.Snapshot, origin, destination string, maxHops int) ([]domain.Flight, error) {
	return FindRoute(snapshot, origin, destination, maxHops)
}

// FindRoute returns the first path from origin to destination with at most
// maxHops segments. It returns domain.ErrNotFound when no such path exists,
// including when origin equals destination.
func FindRoute(snapshot *domain.Snapshot, origin, destination string, maxHops int) ([]domain.Flight, error) {
	if maxHops < 1 {
		return nil, domain.ErrInvalidHopBudget
	}
	if snapshot == nil || origin == destination {
		return nil, domain.ErrNotFound
	}

	s := &search{
		snapshot:    snapshot,
		destination: destination,
		maxHops:     maxHops,
		visited:     make(map[string]bool),
	}
	path, ok := s.walk(origin, nil)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return path, nil
}

// search holds the state of one FindRoute call. It is never shared between
// calls, so concurrent searches over the same snapshot are safe.
type search struct {
	snapshot    *domain.Snapshot
	destination string
	maxHops     int
	visited     map[string]bool
}

func (s *search) walk(station string, path []domain.Flight) ([]domain.Flight, bool) {
	if len(path) >= s.maxHops {
		return nil, false
	}

	outgoing := s.snapshot.Outgoing(station)
	if direct, ok := directSegment(outgoing, s.destination); ok {
		return extend(path, direct), true
	}

	// station stays visited only while it is on the current path
	s.visited[station] = true
	defer delete(s.visited, station)

	for _, next := range candidates(outgoing, s.destination) {
		if s.visited[next.Destination] {
			continue
		}
		if found, ok := s.walk(next.Destination, extend(path, next)); ok {
			return found, true
		}
	}
	return nil, false
}

func directSegment(outgoing []domain.Flight, destination string) (domain.Flight, bool) {
	for _, f := range outgoing {
		if f.Destination == destination {
			return f, true
		}
	}
	return domain.Flight{}, false
}

// candidates orders segments with destination-bound ones first and keeps
// catalog order otherwise.
func candidates(outgoing []domain.Flight, destination string) []domain.Flight {
	ordered := make([]domain.Flight, 0, len(outgoing))
	for _, f := range outgoing {
		if f.Destination == destination {
			ordered = append(ordered, f)
		}
	}
	for _, f := range outgoing {
		if f.Destination != destination {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// extend returns a new path; sibling branches never share a backing array.
func extend(path []domain.Flight, f domain.Flight) []domain.Flight {
	next := make([]domain.Flight, len(path), len(path)+1)
	copy(next, path)
	return append(next, f)
}
