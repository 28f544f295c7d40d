package database

import "time"

// Repositories bundles every repository over one Queryer
type Repositories struct {
	Users       *UserRepository
	Notes       *NoteRepository
	Tasks       *TaskRepository
	Reminders   *ReminderRepository
	Chat        *ChatRepository
	Courses     *CourseRepository
	Topics      *TopicRepository
	Quizzes     *QuizRepository
	Progress    *ProgressRepository
	Repetitions *RepetitionRepository
}

// NewRepositories binds all repositories to q
func NewRepositories(q Queryer) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(q),
		Notes:       NewNoteRepository(q),
		Tasks:       NewTaskRepository(q),
		Reminders:   NewReminderRepository(q),
		Chat:        NewChatRepository(q),
		Courses:     NewCourseRepository(q),
		Topics:      NewTopicRepository(q),
		Quizzes:     NewQuizRepository(q),
		Progress:    NewProgressRepository(q),
		Repetitions: NewRepetitionRepository(q),
	}
}

// utc normalizes a timestamp before it is written, so stored values compare
// correctly as text on SQLite.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
