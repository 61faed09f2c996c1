// Package viewport derives the screen's layout mode from the viewport height
// and fans out resize notifications to subscribers.
package viewport

// PortraitThreshold is the height, in pixels, above which the layout is
// portrait. The comparison is exclusive: 500 itself is landscape.
const PortraitThreshold = 500

// DefaultCellHeight approximates the pixel height of one terminal row.
const DefaultCellHeight = 16

// Mode is the layout orientation.
type Mode string

const (
	ModePortrait  Mode = "portrait"
	ModeLandscape Mode = "landscape"
)

// ComputeOrientation maps a viewport height to a layout mode.
func ComputeOrientation(height int) Mode {
	if height > PortraitThreshold {
		return ModePortrait
	}
	return ModeLandscape
}

// Event is delivered on every viewport change.
type Event struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Mode derives the layout mode carried by the event.
func (e Event) Mode() Mode {
	return ComputeOrientation(e.Height)
}

// FromCells converts a terminal size in cells to a pixel event using
// cellHeight pixels per row (and half of it per column).
func FromCells(cols, rows, cellHeight int) Event {
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	return Event{
		Width:  cols * (cellHeight / 2),
		Height: rows * cellHeight,
	}
}
