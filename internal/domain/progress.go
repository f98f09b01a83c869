package domain

// ProgressFunc reports progress of a long-running sync. Implementations must
// not block the sync loop.
type ProgressFunc func(current, total int, message string)

// SyncProgress is one progress event published to the UI stream.
type SyncProgress struct {
	Shop      string `json:"shop"`
	Operation string `json:"operation"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

// SyncStats summarizes one bulk sync pass.
type SyncStats struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Deleted int `json:"deleted"`
}
