package papershelf

import "time"

// MaxUploadProgress is the highest synthetic progress an upload can report.
// Completion is only signaled by the backend confirming the document.
const MaxUploadProgress = 95.0

// StaleUploadAge is the age after which a restored upload is discarded.
const StaleUploadAge = 5 * time.Minute

// UploadEntry represents an upload in flight from this session.
type UploadEntry struct {
	Path      string
	ID        string
	Progress  float64
	StartTime time.Time
}

// Stale reports whether the entry is older than StaleUploadAge at now.
func (e UploadEntry) Stale(now time.Time) bool {
	return now.Sub(e.StartTime) > StaleUploadAge
}
