package service

import (
	"log"
	"time"

	"fundify/internal/domain"
)

// SweepStore is the slice of the campaign repository the sweeper needs.
type SweepStore interface {
	ExpiredActiveIDs(now time.Time) ([]uint, error)
	TransitionStatus(id uint, from, to string) error
}

// CampaignSweeper periodically completes active campaigns whose deadline has
// passed. The interval bounds how long an expired campaign can stay active.
// Transitions go through the store's conditional update, so overlapping or
// repeated sweeps are no-ops, and the sweep never contends with donation
// writes on other campaigns.
type CampaignSweeper struct {
	store    SweepStore
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewCampaignSweeper(store SweepStore, interval time.Duration) *CampaignSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CampaignSweeper{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *CampaignSweeper) Start() {
	go s.run()
	log.Printf("[Sweeper] started, interval %s", s.interval)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *CampaignSweeper) Stop() {
	close(s.stop)
	<-s.done
	log.Printf("[Sweeper] stopped")
}

func (s *CampaignSweeper) run() {
	defer close(s.done)
	// Campaigns that expired while the process was down should not wait a
	// whole interval after boot.
	s.SweepOnce(time.Now())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(time.Now())
		case <-s.stop:
			return
		}
	}
}

// SweepOnce completes every expired active campaign and returns how many were
// transitioned. A campaign that changed state under us (donation sweep race,
// concurrent suspension) is skipped, not an error for the sweep as a whole.
func (s *CampaignSweeper) SweepOnce(now time.Time) int {
	ids, err := s.store.ExpiredActiveIDs(now)
	if err != nil {
		log.Printf("[Sweeper] listing expired campaigns: %v", err)
		return 0
	}
	completed := 0
	for _, id := range ids {
		err := s.store.TransitionStatus(id, domain.CampaignStatusActive, domain.CampaignStatusCompleted)
		if err != nil {
			log.Printf("[Sweeper] campaign %d not completed: %v", id, err)
			continue
		}
		completed++
	}
	if completed > 0 {
		log.Printf("[Sweeper] auto-completed %d campaigns", completed)
	}
	return completed
}
