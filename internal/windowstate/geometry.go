// Package windowstate persists the main window's position, size and maximised
// flag between runs and restores them when the window is created.
package windowstate

import "fmt"

// Geometry is the persisted placement of a window. X, Y, Width and Height
// describe the normal (un-maximised) frame.
type Geometry struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximised bool `json:"maximised"`
}

// Valid reports whether the geometry can be applied to a window
func (g Geometry) Valid() bool {
	return g.Width > 0 && g.Height > 0
}

func (g Geometry) String() string {
	s := fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
	if g.Maximised {
		s += " maximised"
	}
	return s
}

// StateFlags selects which parts of the geometry are saved and restored
type StateFlags uint8

const (
	FlagPosition StateFlags = 1 << iota
	FlagSize
	FlagMaximised

	FlagsAll = FlagPosition | FlagSize | FlagMaximised
)

// Has reports whether every bit of f is set
func (s StateFlags) Has(f StateFlags) bool {
	return s&f == f
}
