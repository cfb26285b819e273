package model

// CreateRideInput carries a single ride-creation submission from the
// HTTP layer to the ride service.  It lives only for the duration of
// one create call and is never persisted as-is: the service validates
// it, normalizes it and renders it into one of the schema-variant
// payloads understood by the store.
//
// DepartureTime is the RFC 3339 timestamp supplied by the client.
// DepartureRawTime is an optional wall-clock "HH:MM" string used only
// as a fallback source when a deployment stores a TIME column instead
// of a full timestamp.
type CreateRideInput struct {
	Departure        string   `json:"departure"`
	Destination      string   `json:"destination"`
	DepartureTime    string   `json:"departure_time"`
	DepartureRawTime string   `json:"departure_raw_time,omitempty"`
	Price            float64  `json:"price"`
	SeatsTotal       int      `json:"seats_total"`
	Description      string   `json:"description,omitempty"`
	Options          []string `json:"options,omitempty"`
	VehicleModel     string   `json:"vehicle_model,omitempty"`
}
