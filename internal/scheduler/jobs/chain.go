package jobs

import "time"

// Job names referenced by chaining. Kept in one place so a renamed job
// cannot silently break a chain.
const (
	JobPriceSweep     = "price_sweep"
	JobExpirySweep    = "expiry_sweep"
	JobScoreRecompute = "score_recompute"
	JobScoreSnapshot  = "score_snapshot"
	JobStatsReconcile = "stats_reconcile"
)

// Chainer triggers a registered job outside its own schedule. Jobs use
// it to enqueue their downstream step; a job that returns an error must
// not chain.
type Chainer interface {
	RunJob(jobName string) error
	RunJobAfter(jobName string, delay time.Duration) error
}
