package domain

// Location is a device coordinate pair supplied with a turn.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Candidate is one venue returned by the restaurant directory.
type Candidate struct {
	Name     string   `json:"name"`
	Rating   *float64 `json:"rating"`
	ETA      int      `json:"eta"`
	ImageURL string   `json:"image_url,omitempty"`
}
