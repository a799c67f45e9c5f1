package leaderboard

import (
	"context"
	"time"

	"github.com/campfire-gg/arcade/pkg/game"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/utils"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	// QueueSize bounds how many submissions can wait on the store
	// before new ones are dropped.
	QueueSize = 256

	submitTimeout = 5 * time.Second
)

type submission struct {
	variant variant.ID
	name    string
	score   int
}

// Service feeds scores to a Store from behind a bounded queue so a
// slow store can never stall a tick.
type Service struct {
	utils.Session

	store   Store
	archive *Archive
	queue   chan submission
	drained chan struct{}

	mutex   deadlock.Mutex
	dropped int
}

var _ game.ScoreSink = (*Service)(nil)

// NewService starts the submission worker. The archive may be nil.
func NewService(ctx context.Context, store Store, archive *Archive) *Service {
	s := &Service{
		Session: utils.NewSession(ctx),
		store:   store,
		archive: archive,
		queue:   make(chan submission, QueueSize),
		drained: make(chan struct{}),
	}
	go s.poll()
	return s
}

// Submit never blocks; when the queue is full the submission is
// dropped and counted.
func (s *Service) Submit(v variant.ID, name string, score int) {
	if s.IsDone() {
		return
	}

	select {
	case s.queue <- submission{variant: v, name: name, score: score}:
	default:
		s.countDrop()
		log.Warn().
			Str("variant", v.String()).
			Str("name", name).
			Msg("leaderboard queue full; dropping submission")
	}
}

// Dropped reports how many submissions were lost to a full queue or a
// failing store.
func (s *Service) Dropped() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dropped
}

func (s *Service) TopScores(ctx context.Context, v variant.ID, limit int) ([]Entry, error) {
	return s.store.TopScores(ctx, v, limit)
}

func (s *Service) countDrop() {
	s.mutex.Lock()
	s.dropped++
	s.mutex.Unlock()
}

func (s *Service) poll() {
	defer close(s.drained)
	for {
		select {
		case <-s.Ctx().Done():
			// Flush whatever made it in before the shutdown.
			for {
				select {
				case sub := <-s.queue:
					s.flush(sub)
				default:
					return
				}
			}
		case sub := <-s.queue:
			s.flush(sub)
		}
	}
}

func (s *Service) flush(sub submission) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	err := s.store.SubmitScore(ctx, sub.variant, sub.name, sub.score)
	if err != nil {
		s.countDrop()
		log.Error().Err(err).
			Str("variant", sub.variant.String()).
			Str("name", sub.name).
			Msg("could not submit score")
		return
	}

	if s.archive == nil {
		return
	}
	if err := s.archive.Record(ctx, sub.variant, sub.name, sub.score); err != nil {
		log.Warn().Err(err).Msg("could not archive submission")
	}
}

// Close stops accepting submissions and drains the queue.
func (s *Service) Close() {
	s.Cancel()
	<-s.drained
}
