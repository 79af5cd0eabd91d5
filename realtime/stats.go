package realtime

import (
	"time"

	"github.com/RyanBlaney/alpha-switch/algorithms/common"
	"github.com/RyanBlaney/alpha-switch/logging"
)

// elapsedHistory bounds how many iteration durations feed the timing summary
const elapsedHistory = 512

// Stats summarizes a run
type Stats struct {
	Iterations  uint64        `json:"iterations"`
	LagEvents   uint64        `json:"lag_events"`
	Dropped     uint64        `json:"dropped"` // samples discarded by lag flushes
	LastElapsed time.Duration `json:"last_elapsed"`
	MeanElapsed time.Duration `json:"mean_elapsed"`
	StdElapsed  time.Duration `json:"std_elapsed"`
	SwitchOn    uint64        `json:"switch_on"` // iterations with a positive switch level
}

// Fields renders the stats for a log line
func (s Stats) Fields() logging.Fields {
	return logging.Fields{
		"iterations":     s.Iterations,
		"lag_events":     s.LagEvents,
		"dropped":        s.Dropped,
		"last_elapsed_s": s.LastElapsed.Seconds(),
		"mean_elapsed_s": s.MeanElapsed.Seconds(),
		"std_elapsed_s":  s.StdElapsed.Seconds(),
		"switch_on":      s.SwitchOn,
	}
}

type statsRecorder struct {
	stats   Stats
	elapsed []float64 // seconds, oldest first
}

func newStatsRecorder() statsRecorder {
	return statsRecorder{elapsed: make([]float64, 0, elapsedHistory)}
}

func (r *statsRecorder) record(it Iteration) {
	r.stats.Iterations++
	if it.Value.Level > 0 {
		r.stats.SwitchOn++
	}
	if it.Terminated {
		return
	}

	r.stats.LastElapsed = it.Elapsed
	if it.Lagged {
		r.stats.LagEvents++
		r.stats.Dropped += uint64(it.Dropped)
	}

	if len(r.elapsed) == elapsedHistory {
		copy(r.elapsed, r.elapsed[1:])
		r.elapsed = r.elapsed[:elapsedHistory-1]
	}
	r.elapsed = append(r.elapsed, it.Elapsed.Seconds())
}

func (r *statsRecorder) snapshot() Stats {
	s := r.stats
	s.MeanElapsed = seconds(common.Mean(r.elapsed))
	s.StdElapsed = seconds(common.StandardDeviation(r.elapsed))
	return s
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
