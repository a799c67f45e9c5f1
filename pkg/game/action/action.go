package action

type ID int32

// Discrete inputs a combat player can request. At most one is applied
// per tick; the rest of the input is the movement axis. None is the
// zero value so an input carrying only movement decodes as no action.
const (
	None ID = iota
	Jump
	Punch
	Kick
	Block
)

func (a ID) String() string {
	switch a {
	case Jump:
		return "jump"
	case Punch:
		return "punch"
	case Kick:
		return "kick"
	case Block:
		return "block"
	}
	return "none"
}

func FromString(name string) ID {
	switch name {
	case "jump":
		return Jump
	case "punch":
		return Punch
	case "kick":
		return Kick
	case "block":
		return Block
	default:
		return None
	}
}

func Valid(a ID) bool {
	switch a {
	case Jump, Punch, Kick, Block:
		return true
	default:
		return false
	}
}
