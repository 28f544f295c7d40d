// Package progress tracks course topic completion, per-course study streaks
// and quiz statistics.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/spaced_repetition"
	"github.com/example/studybot/pkg/models"
)

// Engine runs every study-progress operation in its own transaction
type Engine struct {
	db    *database.DB
	clock *clock.Clock
	log   *logger.Logger
	sm2   *spaced_repetition.SM2
}

// LoadResult counts what LoadCourses actually inserted
type LoadResult struct {
	CoursesAdded int
	TopicsAdded  int
}

// NewEngine creates a progress engine
func NewEngine(db *database.DB, clk *clock.Clock, log *logger.Logger) *Engine {
	return &Engine{
		db:    db,
		clock: clk,
		log:   log.With("component", "progress"),
		sm2:   spaced_repetition.NewSM2(),
	}
}

// MarkTopicCompleted resolves the course and topic by name and marks the
// topic completed. It returns true when the topic is (now or already)
// completed. Unresolvable references return false with an error wrapping
// database.ErrNotFound.
func (e *Engine) MarkTopicCompleted(ctx context.Context, userID int64, courseRef, topicRef string) (bool, error) {
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		course, topic, err := e.resolveTopic(ctx, r, userID, courseRef, topicRef)
		if err != nil {
			return err
		}
		return e.complete(ctx, r, userID, course.ID, topic)
	})
	return e.result("mark topic completed", userID, err)
}

// MarkTopicCompletedByID marks a topic completed by id. The topic's course
// must belong to the user.
func (e *Engine) MarkTopicCompletedByID(ctx context.Context, userID, topicID int64) (bool, error) {
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		topic, err := r.Topics.GetOwned(ctx, userID, topicID)
		if err != nil {
			return err
		}
		return e.complete(ctx, r, userID, topic.CourseID, topic)
	})
	return e.result("mark topic completed by id", userID, err)
}

func (e *Engine) result(op string, userID int64, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrNotFound):
		e.log.Warn("Not found", "op", op, "user_id", userID, "error", err)
	default:
		e.log.Error("Storage failure", "op", op, "user_id", userID, "error", err)
	}
	return false, err
}

func (e *Engine) complete(ctx context.Context, r *database.Repositories, userID, courseID int64, topic *models.Topic) error {
	if topic.IsCompleted {
		return nil
	}

	if err := r.Topics.MarkCompleted(ctx, topic.ID, e.clock.NowUTC()); err != nil {
		return err
	}
	if err := r.Courses.Recount(ctx, courseID); err != nil {
		return err
	}
	if err := e.updateStreak(ctx, r, userID, courseID); err != nil {
		return err
	}

	e.log.Info("Topic completed", "user_id", userID, "course_id", courseID, "topic_id", topic.ID)
	return nil
}

func (e *Engine) updateStreak(ctx context.Context, r *database.Repositories, userID, courseID int64) error {
	today := e.clock.Today()
	now := e.clock.NowUTC()

	p, err := r.Progress.Get(ctx, userID, courseID)
	if errors.Is(err, database.ErrNotFound) {
		return r.Progress.Create(ctx, &models.StudyProgress{
			UserID:        userID,
			CourseID:      courseID,
			LastStudyDate: today,
			StreakDays:    1,
		}, now)
	}
	if err != nil {
		return err
	}

	if p.LastStudyDate == today {
		return nil
	}

	p.StreakDays = NextStreak(p.LastStudyDate, p.StreakDays, today)
	p.LastStudyDate = today
	return r.Progress.Update(ctx, p, now)
}

func (e *Engine) resolveCourse(ctx context.Context, r *database.Repositories, userID int64, ref string) (*models.Course, error) {
	courses, err := r.Courses.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(courses))
	for i, c := range courses {
		names[i] = c.Name
	}

	idx, ambiguous := resolve(names, ref)
	if idx < 0 {
		return nil, fmt.Errorf("course %q: %w", ref, database.ErrNotFound)
	}
	if ambiguous {
		e.log.Warn("Ambiguous course reference, using first match", "user_id", userID, "ref", ref, "course", courses[idx].Name)
	}
	return &courses[idx], nil
}

func (e *Engine) resolveTopic(ctx context.Context, r *database.Repositories, userID int64, courseRef, topicRef string) (*models.Course, *models.Topic, error) {
	course, err := e.resolveCourse(ctx, r, userID, courseRef)
	if err != nil {
		return nil, nil, err
	}

	topics, err := r.Topics.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, nil, err
	}
	// Substring matches are taken in insertion order, not by week
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].ID < topics[j].ID })

	titles := make([]string, len(topics))
	for i, t := range topics {
		titles[i] = t.Title
	}

	idx, ambiguous := resolve(titles, topicRef)
	if idx < 0 {
		return nil, nil, fmt.Errorf("topic %q in %q: %w", topicRef, course.Name, database.ErrNotFound)
	}
	if ambiguous {
		e.log.Warn("Ambiguous topic reference, using first match", "user_id", userID, "ref", topicRef, "topic", topics[idx].Title)
	}
	return course, &topics[idx], nil
}

// ResolveTopic finds a course and one of its topics by name
func (e *Engine) ResolveTopic(ctx context.Context, userID int64, courseRef, topicRef string) (*models.Course, *models.Topic, error) {
	var course *models.Course
	var topic *models.Topic
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		course, topic, err = e.resolveTopic(ctx, r, userID, courseRef, topicRef)
		return err
	})
	return course, topic, err
}

// FindCourse finds one of the user's courses by name
func (e *Engine) FindCourse(ctx context.Context, userID int64, ref string) (*models.Course, error) {
	var course *models.Course
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		course, err = e.resolveCourse(ctx, r, userID, ref)
		return err
	})
	return course, err
}

// OverallStreak is the highest per-course streak of the user
func (e *Engine) OverallStreak(ctx context.Context, userID int64) (int, error) {
	var streak int
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		streak, err = r.Progress.MaxStreak(ctx, userID)
		return err
	})
	return streak, err
}

// AddQuizResult records a quiz attempt and schedules the topic's next review.
// score <= total is the caller's responsibility. Attempts without questions
// leave the review schedule alone.
func (e *Engine) AddQuizResult(ctx context.Context, userID, topicID int64, score, total int) error {
	now := e.clock.NowUTC()
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		if _, err := r.Topics.GetOwned(ctx, userID, topicID); err != nil {
			return err
		}
		err := r.Quizzes.Insert(ctx, &models.Quiz{
			UserID:         userID,
			TopicID:        topicID,
			Score:          score,
			TotalQuestions: total,
			CompletedAt:    now,
		})
		if err != nil || total <= 0 {
			return err
		}
		return e.review(ctx, r, userID, topicID, spaced_repetition.QualityFromScore(score, total), now)
	})
	if err != nil {
		e.log.Error("Failed to save quiz result", "user_id", userID, "topic_id", topicID, "error", err)
		return err
	}
	return nil
}

// AvgQuizScore returns the mean percentage over the user's scored quizzes in
// the course. ok is false when there is nothing to average.
func (e *Engine) AvgQuizScore(ctx context.Context, userID, courseID int64) (avg float64, ok bool, err error) {
	err = e.db.InTx(ctx, func(r *database.Repositories) error {
		course, err := r.Courses.GetByID(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if course.TotalTopics == 0 {
			return nil
		}

		quizzes, err := r.Quizzes.ScoredForCourse(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if len(quizzes) == 0 {
			return nil
		}

		var sum float64
		for _, q := range quizzes {
			sum += float64(q.Score) / float64(q.TotalQuestions) * 100
		}
		avg, ok = sum/float64(len(quizzes)), true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return avg, ok, nil
}

// NextTopics returns up to limit incomplete topics, courses in insertion
// order and weeks ascending within a course.
func (e *Engine) NextTopics(ctx context.Context, userID int64, limit int) ([]models.NextTopic, error) {
	var next []models.NextTopic
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		next, err = r.Topics.NextIncomplete(ctx, userID, limit)
		return err
	})
	return next, err
}

// NextTopic returns the single next topic. ok is false when everything is done.
func (e *Engine) NextTopic(ctx context.Context, userID int64) (*models.NextTopic, bool, error) {
	next, err := e.NextTopics(ctx, userID, 1)
	if err != nil || len(next) == 0 {
		return nil, false, err
	}
	return &next[0], true, nil
}

// LoadCourses adds the catalogue's courses and topics. Existing courses and
// topics are kept, so loading twice is harmless.
func (e *Engine) LoadCourses(ctx context.Context, userID int64, catalogue []models.CourseSpec) (LoadResult, error) {
	var res LoadResult
	now := e.clock.NowUTC()

	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		for _, spec := range catalogue {
			courseID, created, err := r.Courses.GetOrCreate(ctx, userID, spec.Name, spec.Description, now)
			if err != nil {
				return err
			}
			if created {
				res.CoursesAdded++
			}

			for i, title := range spec.Topics {
				_, created, err := r.Topics.GetOrCreate(ctx, courseID, title, spec.WeekOf(i), now)
				if err != nil {
					return err
				}
				if created {
					res.TopicsAdded++
				}
			}

			if err := r.Courses.Recount(ctx, courseID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.log.Error("Failed to load courses", "user_id", userID, "error", err)
		return LoadResult{}, err
	}

	e.log.Info("Courses loaded", "user_id", userID, "courses", res.CoursesAdded, "topics", res.TopicsAdded)
	return res, nil
}

// Courses lists the user's courses with recomputed counters
func (e *Engine) Courses(ctx context.Context, userID int64) ([]models.Course, error) {
	var courses []models.Course
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		courses, err = r.Courses.List(ctx, userID)
		return err
	})
	return courses, err
}

// CourseTopics returns a course of the user and its topics by week
func (e *Engine) CourseTopics(ctx context.Context, userID, courseID int64) (*models.Course, []models.Topic, error) {
	var course *models.Course
	var topics []models.Topic
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		if course, err = r.Courses.GetByID(ctx, userID, courseID); err != nil {
			return err
		}
		topics, err = r.Topics.ListByCourse(ctx, courseID)
		return err
	})
	return course, topics, err
}

// LastQuizResults returns the newest quiz attempts first
func (e *Engine) LastQuizResults(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error) {
	var results []models.QuizResult
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		results, err = r.Quizzes.Last(ctx, userID, limit)
		return err
	})
	return results, err
}

// TotalQuizzes counts the user's quiz attempts
func (e *Engine) TotalQuizzes(ctx context.Context, userID int64) (int, error) {
	var n int
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		n, err = r.Quizzes.Count(ctx, userID)
		return err
	})
	return n, err
}

// Stats aggregates the user's study totals in one snapshot
func (e *Engine) Stats(ctx context.Context, userID int64) (models.StudyStats, error) {
	var stats models.StudyStats
	err := e.db.InTx(ctx, func(r *database.Repositories) error {
		courses, err := r.Courses.List(ctx, userID)
		if err != nil {
			return err
		}
		stats.Courses = len(courses)
		for _, c := range courses {
			stats.TotalTopics += c.TotalTopics
			stats.CompletedTopics += c.CompletedTopics
		}

		if stats.TotalQuizzes, err = r.Quizzes.Count(ctx, userID); err != nil {
			return err
		}
		stats.Streak, err = r.Progress.MaxStreak(ctx, userID)
		return err
	})
	return stats, err
}

func (e *Engine) review(ctx context.Context, r *database.Repositories, userID, topicID int64, q spaced_repetition.QualityResponse, now time.Time) error {
	rep, err := r.Repetitions.Get(ctx, userID, topicID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		rep = spaced_repetition.NewRepetition(userID, topicID, now)
		e.sm2.Process(rep, q, now)
		return r.Repetitions.Create(ctx, rep, now)
	case err != nil:
		return err
	}

	e.sm2.Process(rep, q, now)
	return r.Repetitions.Update(ctx, rep, now)
}

// Review returns the review schedule of a topic. ok is false when the topic
// was never quizzed.
func (e *Engine) Review(ctx context.Context, userID, topicID int64) (*models.Repetition, bool, error) {
	rep, err := e.db.Repos().Repetitions.Get(ctx, userID, topicID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rep, true, nil
}

// DueReviews returns up to limit topics whose review date has come, hardest
// first.
func (e *Engine) DueReviews(ctx context.Context, userID int64, limit int) ([]models.DueRepetition, error) {
	return e.db.Repos().Repetitions.Due(ctx, userID, e.clock.NowUTC(), limit)
}

// IsMastered reports whether the topic's review interval says it is learned
func (e *Engine) IsMastered(rep *models.Repetition) bool {
	return e.sm2.IsMastered(rep)
}
