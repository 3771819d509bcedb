package padlink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justinabrahms/padchess/internal/chess"
)

// FrameType identifies a controller message
type FrameType string

const (
	FramePad     FrameType = "pad"
	FrameUndo    FrameType = "undo"
	FrameNewGame FrameType = "new_game"
	FramePromote FrameType = "promote"
)

// ErrMalformedFrame wraps every frame that cannot be turned into a table request
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is one message from the controller bridge. Pads are already
// translated to board coordinates.
type Frame struct {
	Type    FrameType `json:"type"`
	Rank    *int      `json:"rank,omitempty"`
	File    *int      `json:"file,omitempty"`
	Pressed bool      `json:"pressed,omitempty"`
	Choice  string    `json:"choice,omitempty"`
}

// ParseFrame decodes and validates a text frame
func ParseFrame(data []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch frame.Type {
	case FramePad:
		if frame.Rank == nil || frame.File == nil {
			return Frame{}, fmt.Errorf("%w: pad frame without rank and file", ErrMalformedFrame)
		}
		if !frame.Coord().InBounds() {
			return Frame{}, fmt.Errorf("%w: pad %d,%d is off the board", ErrMalformedFrame, *frame.Rank, *frame.File)
		}
	case FramePromote:
		if _, ok := chess.ParseKind(frame.Choice); !ok {
			return Frame{}, fmt.Errorf("%w: unknown promotion choice %q", ErrMalformedFrame, frame.Choice)
		}
	case FrameUndo, FrameNewGame:
	default:
		return Frame{}, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, frame.Type)
	}
	return frame, nil
}

// Coord is the board cell of a pad frame
func (f Frame) Coord() chess.Coord {
	if f.Rank == nil || f.File == nil {
		return chess.Coord{Rank: -1, File: -1}
	}
	return chess.Coord{Rank: *f.Rank, File: *f.File}
}

// Input converts a pad frame to an engine input
func (f Frame) Input() chess.Input {
	return chess.Input{Coord: f.Coord(), Pressed: f.Pressed}
}
