package messages

import (
	"renamezip/internal/pipeline"
	"renamezip/pkg/types"
)

// ProgressMsg carries one pipeline checkpoint
type ProgressMsg struct {
	Update types.ProgressUpdate
}

// LoadedMsg is sent when a file set has been collected and previewed
type LoadedMsg struct {
	Report     pipeline.Report
	Err        error
	MappingErr error
}

// MappingMsg is sent after the mapping file was reloaded
type MappingMsg struct {
	Err error
}

// PackagedMsg is sent when the archive was written, or could not be
type PackagedMsg struct {
	Blob *types.Blob
	Path string
	Err  error
}
