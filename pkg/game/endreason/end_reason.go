package endreason

type ID int32

const (
	// HostEnded means the host or the platform asked for the session
	// to stop.
	HostEnded ID = iota
	// AllPlayersLeft means the last active player left the session.
	AllPlayersLeft
	// IdleTimeout means the session reaper ended a session nobody had
	// touched for too long.
	IdleTimeout
	// Error means a simulation tick panicked and the session was torn
	// down to protect the rest of the process.
	Error
	// Shutdown means the whole process is stopping.
	Shutdown
)

func (r ID) String() string {
	switch r {
	case HostEnded:
		return "host_ended"
	case AllPlayersLeft:
		return "all_players_left"
	case IdleTimeout:
		return "idle_timeout"
	case Error:
		return "error"
	case Shutdown:
		return "shutdown"
	}
	return "unknown"
}
