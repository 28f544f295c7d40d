package progress

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/database/dbtest"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

type fixture struct {
	db     *database.DB
	engine *Engine
	now    time.Time
	user   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	f := &fixture{
		db:  dbtest.New(t),
		now: time.Date(2024, 3, 10, 21, 30, 0, 0, loc),
	}
	f.engine = NewEngine(f.db, clock.Fixed(loc, func() time.Time { return f.now }), logger.NewNop())
	f.user = dbtest.User(t, f.db, 1001)
	return f
}

func (f *fixture) load(t *testing.T, specs ...models.CourseSpec) {
	t.Helper()
	_, err := f.engine.LoadCourses(context.Background(), f.user.ID, specs)
	require.NoError(t, err)
}

func (f *fixture) streak(t *testing.T, courseName string) int {
	t.Helper()
	course, err := f.engine.FindCourse(context.Background(), f.user.ID, courseName)
	require.NoError(t, err)
	p, err := f.db.Repos().Progress.Get(context.Background(), f.user.ID, course.ID)
	require.NoError(t, err)
	return p.StreakDays
}

var physics = models.CourseSpec{Name: "Fizik", Topics: []string{"Kinematik", "Dinamik", "Enerji"}}

func TestEndToEndStreakScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	ok, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "fizik", "kinematik")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.streak(t, "Fizik"))

	f.now = f.now.AddDate(0, 0, 1)
	ok, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "fizik", "dinamik")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.streak(t, "Fizik"))

	f.now = f.now.AddDate(0, 0, 4)
	ok, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "fizik", "enerji")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.streak(t, "Fizik"))

	course, err := f.engine.FindCourse(ctx, f.user.ID, "Fizik")
	require.NoError(t, err)
	assert.Equal(t, 3, course.CompletedTopics)
	assert.Equal(t, 3, course.TotalTopics)

	total, completed, err := f.db.Repos().Courses.StoredCounters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, completed)
}

func TestStreakUsesLocalCalendarDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	// 23:30 local on the 10th is still the 10th even though UTC is 20:30
	f.now = time.Date(2024, 3, 10, 23, 30, 0, 0, f.now.Location())
	_, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Kinematik")
	require.NoError(t, err)

	// 00:30 local on the 11th is 21:30 UTC on the 10th
	f.now = time.Date(2024, 3, 11, 0, 30, 0, 0, f.now.Location())
	_, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Dinamik")
	require.NoError(t, err)

	assert.Equal(t, 2, f.streak(t, "Fizik"))
}

func TestMarkTopicCompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	ok, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Enerji")
	require.NoError(t, err)
	require.True(t, ok)

	_, topic, err := f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Enerji")
	require.NoError(t, err)
	require.NotNil(t, topic.CompletedAt)
	stamped := *topic.CompletedAt

	f.now = f.now.AddDate(0, 0, 1)
	ok, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Enerji")
	require.NoError(t, err)
	assert.True(t, ok)

	_, topic, err = f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Enerji")
	require.NoError(t, err)
	assert.True(t, stamped.Equal(*topic.CompletedAt))
	assert.Equal(t, 1, f.streak(t, "Fizik"), "repeat completion must not touch the streak")
}

func TestMarkTopicCompletedNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	ok, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "Kimya", "Kinematik")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	ok, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Optik")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestMarkTopicCompletedByIDChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	_, topic, err := f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Dinamik")
	require.NoError(t, err)

	stranger := dbtest.User(t, f.db, 2002)
	ok, err := f.engine.MarkTopicCompletedByID(ctx, stranger.ID, topic.ID)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	ok, err = f.engine.MarkTopicCompletedByID(ctx, f.user.ID, topic.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	course, err := f.engine.FindCourse(ctx, f.user.ID, "Fizik")
	require.NoError(t, err)
	assert.Equal(t, 1, course.CompletedTopics)
}

func TestAvgQuizScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics, models.CourseSpec{Name: "Boş Ders"})

	course, topic, err := f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Kinematik")
	require.NoError(t, err)

	_, ok, err := f.engine.AvgQuizScore(ctx, f.user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok, "no quizzes means no data")

	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, topic.ID, 3, 5))
	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, topic.ID, 4, 5))
	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, topic.ID, 0, 0))

	avg, ok, err := f.engine.AvgQuizScore(ctx, f.user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 70.0, avg, 1e-9)

	empty, err := f.engine.FindCourse(ctx, f.user.ID, "Boş Ders")
	require.NoError(t, err)
	_, ok, err = f.engine.AvgQuizScore(ctx, f.user.ID, empty.ID)
	require.NoError(t, err)
	assert.False(t, ok, "course without topics has no data")

	total, err := f.engine.TotalQuizzes(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	last, err := f.engine.LastQuizResults(ctx, f.user.ID, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "Kinematik", last[0].TopicTitle)
}

func TestNextTopicsOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t,
		models.CourseSpec{Name: "Matematik", Topics: []string{"Limit", "Türev"}},
		physics,
	)

	_, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "Matematik", "Limit")
	require.NoError(t, err)

	next, err := f.engine.NextTopics(ctx, f.user.ID, 3)
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.Equal(t, "Türev", next[0].TopicTitle)
	assert.Equal(t, "Kinematik", next[1].TopicTitle)
	assert.Equal(t, "Dinamik", next[2].TopicTitle)
	assert.Equal(t, 1, next[1].WeekNumber)

	one, ok, err := f.engine.NextTopic(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Matematik", one.CourseName)
}

func TestLoadCoursesIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.LoadCourses(ctx, f.user.ID, []models.CourseSpec{physics})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{CoursesAdded: 1, TopicsAdded: 3}, res)

	res, err = f.engine.LoadCourses(ctx, f.user.ID, []models.CourseSpec{physics})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{}, res)

	courses, err := f.engine.Courses(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 3, courses[0].TotalTopics)
}

func TestStatsAndOverallStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics, models.CourseSpec{Name: "Matematik", Topics: []string{"Limit"}})

	_, err := f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Kinematik")
	require.NoError(t, err)
	f.now = f.now.AddDate(0, 0, 1)
	_, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "Fizik", "Dinamik")
	require.NoError(t, err)
	_, err = f.engine.MarkTopicCompleted(ctx, f.user.ID, "Matematik", "Limit")
	require.NoError(t, err)

	streak, err := f.engine.OverallStreak(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak, "overall streak is the best course streak")

	stats, err := f.engine.Stats(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StudyStats{Courses: 2, TotalTopics: 4, CompletedTopics: 3, Streak: 2}, stats)
}

func TestQuizResultsScheduleReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, physics)

	_, kinematics, err := f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Kinematik")
	require.NoError(t, err)
	_, dynamics, err := f.engine.ResolveTopic(ctx, f.user.ID, "Fizik", "Dinamik")
	require.NoError(t, err)

	_, ok, err := f.engine.Review(ctx, f.user.ID, kinematics.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, kinematics.ID, 5, 5))
	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, dynamics.ID, 1, 5))
	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, dynamics.ID, 0, 0))

	rep, ok, err := f.engine.Review(ctx, f.user.ID, kinematics.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rep.RepetitionNumber)
	assert.Equal(t, 1, rep.IntervalDays)

	due, err := f.engine.DueReviews(ctx, f.user.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, due, "nothing is due on the day of the quiz")

	f.now = f.now.AddDate(0, 0, 1).Add(time.Minute)
	due, err = f.engine.DueReviews(ctx, f.user.ID, 5)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Dinamik", due[0].TopicTitle, "harder topic first")
	assert.Equal(t, "Fizik", due[0].CourseName)
	assert.Equal(t, "Kinematik", due[1].TopicTitle)

	// A second pass moves the topic to the next interval
	require.NoError(t, f.engine.AddQuizResult(ctx, f.user.ID, kinematics.ID, 5, 5))
	rep, _, err = f.engine.Review(ctx, f.user.ID, kinematics.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.RepetitionNumber)
	assert.Equal(t, 3, rep.IntervalDays)
	assert.False(t, f.engine.IsMastered(rep))
}

func TestResolveTopicPrefersInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repos := f.db.Repos()

	courseID, _, err := repos.Courses.GetOrCreate(ctx, f.user.ID, "Matematik", "", f.now)
	require.NoError(t, err)
	_, _, err = repos.Topics.GetOrCreate(ctx, courseID, "İleri Türev", 2, f.now)
	require.NoError(t, err)
	_, _, err = repos.Topics.GetOrCreate(ctx, courseID, "Türev Giriş", 1, f.now)
	require.NoError(t, err)

	_, topic, err := f.engine.ResolveTopic(ctx, f.user.ID, "Matematik", "türev")
	require.NoError(t, err)
	assert.Equal(t, "İleri Türev", topic.Title, "first inserted match wins over an earlier week")

	_, topic, err = f.engine.ResolveTopic(ctx, f.user.ID, "Matematik", "türev giriş")
	require.NoError(t, err)
	assert.Equal(t, "Türev Giriş", topic.Title)
}
