package domain

import "time"

// Flight is one directed segment of the flight graph. ID is zero until the
// segment has been persisted as part of a journey or through the flight API.
type Flight struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Price       float64   `json:"price"`
	Transport   Transport `json:"transport"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SameSegment reports structural identity: origin, destination, carrier and price.
func (f Flight) SameSegment(other Flight) bool {
	return f.Origin == other.Origin &&
		f.Destination == other.Destination &&
		f.Price == other.Price &&
		f.Transport.FlightCarrier == other.Transport.FlightCarrier &&
		f.Transport.FlightNumber == other.Transport.FlightNumber
}
