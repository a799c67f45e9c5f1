package direction

import "math"

type ID int8

const None ID = -1

// Grid directions for the maze variant. Y grows downward, matching
// tile coordinates.
const (
	Right ID = iota
	Down
	Left
	Up
)

func (d ID) String() string {
	switch d {
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	case Up:
		return "up"
	}
	return "none"
}

// Offsets returns the tile step for d.
func (d ID) Offsets() (int, int) {
	switch d {
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Up:
		return 0, -1
	}
	return 0, 0
}

func (d ID) Opposite() ID {
	switch d {
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	case Up:
		return Down
	}
	return None
}

// FromVec maps a free-form movement vector onto the dominant grid
// axis. The zero vector maps to None.
func FromVec(x float64, y float64) ID {
	if x == 0 && y == 0 {
		return None
	}
	if math.Abs(x) >= math.Abs(y) {
		if x > 0 {
			return Right
		}
		return Left
	}
	if y > 0 {
		return Down
	}
	return Up
}

func Valid(d ID) bool {
	switch d {
	case Right, Down, Left, Up:
		return true
	default:
		return false
	}
}
