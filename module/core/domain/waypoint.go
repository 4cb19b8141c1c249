package domain

// Waypoint is a fixed named point (station or venue) against which proximity is measured.
type Waypoint struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	ShortName string  `json:"short_name,omitempty" yaml:"short_name"`
	Lat       float64 `json:"latitude" yaml:"latitude"`
	Lon       float64 `json:"longitude" yaml:"longitude"`
}

// Label is the name used in per-waypoint status lines.
func (w Waypoint) Label() string {
	if w.ShortName != "" {
		return w.ShortName
	}
	return w.Name
}
