package pipeline

import "hash/fnv"

// FeatureFlags selects between the staged pipeline and the legacy monolithic
// path. It is read once at request start from environment-level configuration
// and never mutated; the rollout decision is a pure function of the flag
// values and the user identifier.
type FeatureFlags struct {
	// StagedPipelineEnabled is the master toggle for the staged path.
	StagedPipelineEnabled bool
	// StagedRolloutPercent is the share of users (0-100) routed to the staged
	// path, keyed by a stable hash of the user identifier so a given user
	// always gets the same decision during a gradual rollout.
	StagedRolloutPercent int
}

// UseStagedPipeline reports whether the given user should take the staged path.
func (f FeatureFlags) UseStagedPipeline(userID string) bool {
	if !f.StagedPipelineEnabled {
		return false
	}
	pct := f.StagedRolloutPercent
	if pct >= 100 {
		return true
	}
	if pct <= 0 {
		return false
	}
	return int(rolloutBucket(userID)) < pct
}

// rolloutBucket maps a user id onto a stable 0-99 bucket.
func rolloutBucket(userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32() % 100
}
