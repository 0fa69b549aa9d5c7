package common

import "renamezip/pkg/types"

// Stats summarizes the loaded file set
type Stats struct {
	Files   int
	Groups  int
	Skipped int
}

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	Phase() types.Phase
	Percent() float64
	Stats() Stats
	Width() int
	PreviewView() string
	StatusView() string
	HelpView() string
}
