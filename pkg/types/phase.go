package types

// Phase represents where the pipeline currently is
type Phase int

const (
	// Idle means no file set has been loaded
	Idle Phase = iota
	// Collecting means input sources are being traversed
	Collecting
	// Grouped means a preview is ready
	Grouped
	// Packaging means an archive is being written
	Packaging
	// Complete means the last archive was finalized
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Grouped:
		return "grouped"
	case Packaging:
		return "packaging"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProgressUpdate is emitted at every progress checkpoint.
type ProgressUpdate struct {
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"percent"`
	Current int     `json:"current,omitempty"`
	Total   int     `json:"total,omitempty"`
	Message string  `json:"message,omitempty"`
}
