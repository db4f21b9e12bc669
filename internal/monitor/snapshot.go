package monitor

// Snapshot is the full persisted state: every collection plus runtime
// settings, written as a single JSON document.
type Snapshot struct {
	Endpoints []Endpoint      `json:"endpoints"`
	Statuses  []Status        `json:"statuses"`
	Incidents []Incident      `json:"incidents"`
	Alerts    []Alert         `json:"alerts"`
	Contacts  []Contact       `json:"contacts"`
	Groups    []ContactGroup  `json:"groups"`
	Activity  []ActivityEntry `json:"activity,omitempty"`
	Settings  Settings        `json:"settings"`
}
