package domain

import "time"

// Journey is a resolved itinerary. Flights form a contiguous path from
// Origin to Destination and Price is their exact sum.
type Journey struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Price       float64   `json:"price"`
	Flights     []Flight  `json:"flights"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewJourney builds a journey over path, summing segment prices.
func NewJourney(origin, destination string, path []Flight) *Journey {
	j := &Journey{
		Origin:      origin,
		Destination: destination,
		Flights:     append([]Flight(nil), path...),
	}
	for _, f := range path {
		j.Price += f.Price
	}
	return j
}

// Contiguous reports whether the flights chain from Origin to Destination.
func (j *Journey) Contiguous() bool {
	if len(j.Flights) == 0 {
		return false
	}
	if j.Flights[0].Origin != j.Origin || j.Flights[len(j.Flights)-1].Destination != j.Destination {
		return false
	}
	for i := 1; i < len(j.Flights); i++ {
		if j.Flights[i-1].Destination != j.Flights[i].Origin {
			return false
		}
	}
	return true
}
