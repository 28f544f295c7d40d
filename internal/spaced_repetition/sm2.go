// Package spaced_repetition schedules topic reviews with the SuperMemo-2
// algorithm, driven by quiz results.
package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/studybot/pkg/models"
)

// DefaultEasiness is the easiness factor of a topic that was never reviewed
const DefaultEasiness = 2.5

const minEasiness = 1.3

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Qualities at or above this count as a successful review
	PassThreshold QualityResponse
	// Upper bound for the review interval in days
	MaxInterval int
	// Intervals for the first successful reviews, before the easiness factor
	// takes over
	InitialIntervals []int
}

// NewSM2 creates a new SM2 with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    QualityCorrectDifficult,
		MaxInterval:      365,
		InitialIntervals: []int{1, 3, 7},
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// QualityFromScore maps a quiz score to an SM-2 quality
func QualityFromScore(score, total int) QualityResponse {
	if total <= 0 || score <= 0 {
		return QualityBlackout
	}

	pct := score * 100 / total
	switch {
	case pct >= 100:
		return QualityPerfect
	case pct >= 80:
		return QualityCorrectHesitation
	case pct >= 60:
		return QualityCorrectDifficult
	case pct >= 40:
		return QualityIncorrectFamiliar
	default:
		return QualityIncorrect
	}
}

// NewRepetition returns the state of a topic that was never reviewed
func NewRepetition(userID, topicID int64, now time.Time) *models.Repetition {
	return &models.Repetition{
		UserID:         userID,
		TopicID:        topicID,
		EasinessFactor: DefaultEasiness,
		NextReviewDate: now,
	}
}

// Process applies one review of the given quality to rep
func (sm *SM2) Process(rep *models.Repetition, quality QualityResponse, now time.Time) {
	if rep.EasinessFactor == 0 {
		rep.EasinessFactor = DefaultEasiness
	}

	q := float64(quality)
	ef := rep.EasinessFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if ef < minEasiness {
		ef = minEasiness
	}
	rep.EasinessFactor = ef

	if quality >= sm.PassThreshold {
		var next int
		if rep.RepetitionNumber < len(sm.InitialIntervals) {
			next = sm.InitialIntervals[rep.RepetitionNumber]
		} else {
			next = int(math.Round(float64(rep.IntervalDays) * ef))
		}
		if next > sm.MaxInterval {
			next = sm.MaxInterval
		}
		if next < 1 {
			next = 1
		}
		rep.IntervalDays = next
		rep.RepetitionNumber++
	} else {
		// Failed reviews start over from tomorrow
		rep.RepetitionNumber = 0
		rep.IntervalDays = 1
	}

	reviewed := now
	rep.LastQuality = int(quality)
	rep.LastReviewDate = &reviewed
	rep.NextReviewDate = now.AddDate(0, 0, rep.IntervalDays)
}

// IsMastered reports whether a topic is considered learned
func (sm *SM2) IsMastered(rep *models.Repetition) bool {
	return rep.RepetitionNumber >= 5 &&
		rep.LastQuality >= int(QualityCorrectHesitation) &&
		rep.IntervalDays >= 30
}
