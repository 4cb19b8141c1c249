package domain

type AccessEventType string

const (
	AccessGranted AccessEventType = "access_granted"
	AccessDenied  AccessEventType = "access_denied"
)

type AccessEvent struct {
	DeviceID  string          `json:"device_id"`
	Event     AccessEventType `json:"event"`
	Position  Position        `json:"position"`
	Nearest   Nearest         `json:"nearest"`
	InRadius  []string        `json:"in_radius"`
	Timestamp int64           `json:"timestamp"`
}
