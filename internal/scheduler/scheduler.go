// Package scheduler runs the periodic sweeps: completing past-due confirmed
// bookings and expiring listings whose availability window has closed. Both
// sweeps are idempotent batch updates, safe to re-run and safe to run while
// user requests are in flight.
package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stayspot/server/internal/booking"
	"stayspot/server/internal/listing"
)

type Scheduler struct {
	bookings *booking.Engine
	listings *listing.Service
	interval time.Duration
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sweeps do not overlap themselves
}

func NewScheduler(bookings *booking.Engine, listings *listing.Service, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Scheduler{
		bookings: bookings,
		listings: listings,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop. The first run happens immediately so a
// restarted server catches up on anything that expired while it was down.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.RunSweeps(time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.RunSweeps(t)
		}
	}
}

// RunSweeps executes both sweeps once.
func (s *Scheduler) RunSweeps(now time.Time) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	completed, err := s.bookings.CompletePastDue(now)
	if err != nil {
		s.logger.WithError(err).Error("Booking completion sweep failed")
	} else if completed > 0 {
		s.logger.WithField("completed", completed).Info("Completed past-due bookings")
	}

	expired, err := s.listings.ExpirePastDue(now)
	if err != nil {
		s.logger.WithError(err).Error("Listing expiry sweep failed")
	} else if expired > 0 {
		s.logger.WithField("expired", expired).Info("Expired past-due listings")
	}
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
