package event

// ParameterResolvedData is the data for parameter.resolved events.
type ParameterResolvedData struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	Value     any    `json:"value"`
}

// NamespaceSyncedData is the data for namespace.synced events.
type NamespaceSyncedData struct {
	Namespace string   `json:"namespace"`
	Skipped   []string `json:"skipped,omitempty"`
}

// FileData is the data for file.written and file.skipped events.
type FileData struct {
	Path   string `json:"path"`
	Reason string `json:"reason,omitempty"`
}

// ConfigChangedData is the data for config.changed events.
type ConfigChangedData struct {
	Paths []string `json:"paths"`
}
