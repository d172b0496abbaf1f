package service

import (
	"context"
	"log"
	"time"
)

// DraftSweeper periodically discards idle intake drafts.
type DraftSweeper struct {
	intakeService IntakeService
	interval      time.Duration
}

// NewDraftSweeper creates a new DraftSweeper.
func NewDraftSweeper(intakeService IntakeService, interval time.Duration) *DraftSweeper {
	return &DraftSweeper{intakeService: intakeService, interval: interval}
}

// Start runs the sweep loop until ctx is canceled.
func (w *DraftSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("draftSweeper: started (interval=%s)", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("draftSweeper: shutdown complete")
			return
		case <-ticker.C:
			w.intakeService.SweepIdle()
		}
	}
}
