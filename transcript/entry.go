package transcript

import (
	"fmt"
	"time"
)

type Status int

const (
	Pending Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Final reports whether an entry in this status can no longer change.
func (s Status) Final() bool { return s == Ready || s == Failed }

// FailedText replaces the text of entries whose transcription failed.
const FailedText = "Transcription failed"

type Entry struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Status    Status
}

// Patch is the change applied by UpdateByID.
type Patch struct {
	Status Status
	Text   string
}
