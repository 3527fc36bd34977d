// ABOUTME: Progress events emitted by batch runs
// ABOUTME: Typed lifecycle and per-frame progress updates consumed by the TUI
package batch

// EventKind identifies what an Event reports
type EventKind int

const (
	EventStatus EventKind = iota
	EventEncoding
	EventDecoding
	EventExporting
	EventComplete
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventEncoding:
		return "encoding"
	case EventDecoding:
		return "decoding"
	case EventExporting:
		return "exporting"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one progress update for a file of a batch run
type Event struct {
	Kind    EventKind
	File    string
	Index   int // position of File in the batch
	Done    int // frames done, for encoding and decoding
	Total   int
	Message string
	Result  *Result // set on complete and error
}
