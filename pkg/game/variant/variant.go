package variant

type ID int32

const Unknown ID = -1

const (
	Arena ID = iota
	Maze
	Combat
)

func (v ID) String() string {
	switch v {
	case Arena:
		return "arena"
	case Maze:
		return "maze"
	case Combat:
		return "combat"
	}
	return "unknown"
}

func FromString(name string) ID {
	switch name {
	case "arena", "snake", "worm":
		return Arena
	case "maze", "chase", "mazechase", "maze-chase":
		return Maze
	case "combat", "fight", "brawl":
		return Combat
	default:
		return Unknown
	}
}

func Valid(v ID) bool {
	switch v {
	case Arena, Maze, Combat:
		return true
	default:
		return false
	}
}
