package game

import "errors"

var (
	ErrSessionEnded   = errors.New("session has ended")
	ErrSessionFull    = errors.New("session is full")
	ErrNotParticipant = errors.New("not a participant in this session")
	ErrNotHost        = errors.New("only the host can do that")
	ErrBadInput       = errors.New("input is not valid for this variant")
)
