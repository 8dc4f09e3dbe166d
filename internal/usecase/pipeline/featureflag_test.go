package pipeline_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"rag-modulo/internal/usecase/pipeline"
)

func TestFeatureFlags_DisabledToggleWinsOverPercent(t *testing.T) {
	flags := pipeline.FeatureFlags{StagedPipelineEnabled: false, StagedRolloutPercent: 100}
	assert.False(t, flags.UseStagedPipeline("alice"))
	assert.False(t, flags.UseStagedPipeline(""))
}

func TestFeatureFlags_ZeroPercentRoutesNobody(t *testing.T) {
	flags := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 0}
	for i := 0; i < 100; i++ {
		assert.False(t, flags.UseStagedPipeline(fmt.Sprintf("user-%d", i)))
	}
}

func TestFeatureFlags_FullPercentRoutesEverybody(t *testing.T) {
	flags := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 100}
	for i := 0; i < 100; i++ {
		assert.True(t, flags.UseStagedPipeline(fmt.Sprintf("user-%d", i)))
	}
}

func TestFeatureFlags_DecisionIsStablePerUser(t *testing.T) {
	flags := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 40}
	for i := 0; i < 50; i++ {
		user := fmt.Sprintf("user-%d", i)
		first := flags.UseStagedPipeline(user)
		for j := 0; j < 5; j++ {
			assert.Equal(t, first, flags.UseStagedPipeline(user))
		}
	}
}

func TestFeatureFlags_RolloutIsMonotonic(t *testing.T) {
	// A user routed to the staged path at 30% must stay on it at 60%: the
	// bucket is fixed, only the threshold moves.
	low := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 30}
	high := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 60}

	for i := 0; i < 500; i++ {
		user := fmt.Sprintf("user-%d", i)
		if low.UseStagedPipeline(user) {
			assert.True(t, high.UseStagedPipeline(user), "user %s dropped out when rollout grew", user)
		}
	}
}

func TestFeatureFlags_HalfRolloutSplitsPopulation(t *testing.T) {
	flags := pipeline.FeatureFlags{StagedPipelineEnabled: true, StagedRolloutPercent: 50}

	staged := 0
	total := 1000
	for i := 0; i < total; i++ {
		if flags.UseStagedPipeline(fmt.Sprintf("user-%d", i)) {
			staged++
		}
	}

	// Loose bounds; the hash should split a large population roughly in half.
	assert.Greater(t, staged, total*35/100)
	assert.Less(t, staged, total*65/100)
}
