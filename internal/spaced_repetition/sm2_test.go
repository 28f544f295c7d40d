package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestQualityFromScore(t *testing.T) {
	tests := []struct {
		score, total int
		want         QualityResponse
	}{
		{5, 5, QualityPerfect},
		{4, 5, QualityCorrectHesitation},
		{3, 5, QualityCorrectDifficult},
		{2, 5, QualityIncorrectFamiliar},
		{1, 5, QualityIncorrect},
		{0, 5, QualityBlackout},
		{0, 0, QualityBlackout},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFromScore(tt.score, tt.total), "%d/%d", tt.score, tt.total)
	}
}

func TestProcessSuccessfulReviews(t *testing.T) {
	sm := NewSM2()
	rep := NewRepetition(1, 2, now)

	sm.Process(rep, QualityPerfect, now)
	assert.Equal(t, 1, rep.RepetitionNumber)
	assert.Equal(t, 1, rep.IntervalDays)
	assert.InDelta(t, 2.6, rep.EasinessFactor, 1e-9)
	assert.Equal(t, now.AddDate(0, 0, 1), rep.NextReviewDate)
	require.NotNil(t, rep.LastReviewDate)
	assert.Equal(t, now, *rep.LastReviewDate)

	sm.Process(rep, QualityPerfect, now)
	assert.Equal(t, 3, rep.IntervalDays)
	sm.Process(rep, QualityPerfect, now)
	assert.Equal(t, 7, rep.IntervalDays)

	// Past the initial intervals the easiness factor scales the interval
	sm.Process(rep, QualityPerfect, now)
	assert.Equal(t, 4, rep.RepetitionNumber)
	assert.Equal(t, 20, rep.IntervalDays)
}

func TestProcessFailedReviewResets(t *testing.T) {
	sm := NewSM2()
	rep := NewRepetition(1, 2, now)
	sm.Process(rep, QualityPerfect, now)
	sm.Process(rep, QualityPerfect, now)

	sm.Process(rep, QualityIncorrect, now)
	assert.Equal(t, 0, rep.RepetitionNumber)
	assert.Equal(t, 1, rep.IntervalDays)
	assert.Equal(t, int(QualityIncorrect), rep.LastQuality)
}

func TestEasinessFloor(t *testing.T) {
	sm := NewSM2()
	rep := NewRepetition(1, 2, now)
	for i := 0; i < 10; i++ {
		sm.Process(rep, QualityBlackout, now)
	}
	assert.InDelta(t, 1.3, rep.EasinessFactor, 1e-9)
}

func TestIntervalCappedAtMax(t *testing.T) {
	sm := NewSM2()
	rep := NewRepetition(1, 2, now)
	rep.RepetitionNumber = 10
	rep.IntervalDays = 300

	sm.Process(rep, QualityPerfect, now)
	assert.Equal(t, sm.MaxInterval, rep.IntervalDays)
	assert.True(t, sm.IsMastered(rep))
}

func TestZeroEasinessUsesDefault(t *testing.T) {
	sm := NewSM2()
	rep := NewRepetition(1, 2, now)
	rep.EasinessFactor = 0

	sm.Process(rep, QualityCorrectHesitation, now)
	assert.InDelta(t, DefaultEasiness, rep.EasinessFactor, 1e-9)
	assert.False(t, sm.IsMastered(rep))
}
