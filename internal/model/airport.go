package model

// Airport is a node in the route network.  Positional continuity checks
// compare airport IDs, never codes, so the code is display-only.
type Airport struct {
	ID      uint64 `json:"id"`      // airports.id
	IATA    string `json:"iata"`    // airports.iata_code (three letters, unique)
	Name    string `json:"name"`    // airports.name
	City    string `json:"city"`    // airports.city
	Country string `json:"country"` // airports.country
}
