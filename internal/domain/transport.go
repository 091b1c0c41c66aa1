package domain

// Transport is the deduplicated identity of a (carrier, flight number) pair.
type Transport struct {
	ID            int64  `json:"id"`
	FlightCarrier string `json:"flight_carrier"`
	FlightNumber  string `json:"flight_number"`
}
