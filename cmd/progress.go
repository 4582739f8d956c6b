package cmd

import (
	"context"

	"github.com/cheggaaa/pb/v3"

	"github.com/jacklau/zippy/internal/pipeline"
	"github.com/jacklau/zippy/internal/pubsub"
)

// newProgressBar creates a new progress bar with consistent settings.
func newProgressBar(total int, prefix string) *pb.ProgressBar {
	bar := pb.Full.Start(total)
	bar.Set("prefix", prefix)
	bar.Set(pb.CleanOnFinish, true)
	return bar
}

// tally counts outcomes by result.
type tally struct {
	Stored   int
	Rejected int
	Failed   int
}

func tallyOutcomes(outcomes []pipeline.Outcome) tally {
	var t tally
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			t.Failed++
		case len(out.Stored) == 0:
			t.Rejected++
		default:
			t.Stored++
		}
	}
	return t
}

// trackProgress advances bar for every outcome published on events until
// the broker is closed or ctx is cancelled. The returned channel is closed
// once the subscription has drained. Events dropped by the broker only
// delay the bar.
func trackProgress(ctx context.Context, events *pubsub.Broker[pipeline.Outcome], bar *pb.ProgressBar) <-chan struct{} {
	ch := events.Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
			bar.Increment()
		}
	}()
	return done
}
