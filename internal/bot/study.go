package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/pkg/models"
)

const msgTeacherUnavailable = "❌ AI öğretmen şu anda kullanılamıyor. GEMINI_API_KEY kontrol edin."

func (d *Dispatcher) handleLoadCourses(ctx context.Context, user *models.User, req *Request) []Reply {
	req.progress(text("⏳ Dersler yükleniyor..."))

	res, err := d.Progress.LoadCourses(ctx, user.ID, PredefinedCourses)
	if err != nil {
		return []Reply{text("❌ Dersler yüklenirken bir hata oluştu.")}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %d ders yüklendi!\n\n📚 Dersler:\n", len(PredefinedCourses))
	for i, c := range PredefinedCourses {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Name)
	}
	if res.CoursesAdded == 0 && res.TopicsAdded == 0 {
		sb.WriteString("\nℹ️ Dersler zaten yüklüydü, ilerlemen korundu.\n")
	}
	sb.WriteString("\n💡 /bugun ile bugün ne öğreneceğini gör!\n📊 /ilerleme ile durumunu kontrol et!")
	return []Reply{text(sb.String())}
}

func (d *Dispatcher) handleListCourses(ctx context.Context, user *models.User, req *Request) []Reply {
	courses, err := d.Progress.Courses(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(courses) == 0 {
		return []Reply{text(msgNoCourses)}
	}

	var sb strings.Builder
	sb.WriteString("📚 *Derslerim*\n\n")
	for i, c := range courses {
		pct := c.Percent()
		fmt.Fprintf(&sb, "%d. *%s*\n   %s %d%% (%d/%d konu)\n\n",
			i+1, c.Name, progressBar(pct), pct, c.CompletedTopics, c.TotalTopics)
	}
	sb.WriteString("💡 /ders_detay [ders_adı] ile detayları görebilirsin.")
	return []Reply{markdown(limitMessage(sb.String(), d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleCourseDetail(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("❌ Kullanım: /ders_detay [ders_adı]\n\nÖrnek: /ders_detay Yapay_Zeka")}
	}

	name := argName(req.Args)
	course, err := d.Progress.FindCourse(ctx, user.ID, name)
	if err != nil {
		return []Reply{courseFailure(err, name)}
	}
	course, topics, err := d.Progress.CourseTopics(ctx, user.ID, course.ID)
	if err != nil {
		return []Reply{courseFailure(err, name)}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 *%s*\n", course.Name)
	if course.Description != "" {
		fmt.Fprintf(&sb, "📝 %s\n", course.Description)
	}
	fmt.Fprintf(&sb, "\nİlerleme: %d/%d konu\n\n📋 *Konular:*\n", course.CompletedTopics, course.TotalTopics)
	for _, t := range topics {
		status := "⬜"
		if t.IsCompleted {
			status = "✅"
		}
		fmt.Fprintf(&sb, "%s Hafta %d: %s\n", status, t.WeekNumber, t.Title)
	}
	return []Reply{markdown(limitMessage(sb.String(), d.config.MaxMessageLength))}
}

func courseFailure(err error, name string) Reply {
	return failure(err, fmt.Sprintf("❌ '%s' dersi bulunamadı. /dersler ile dersleri görebilirsin.", name))
}

// learnTarget works out which course and topic /ogren should teach.
// With no arguments it is the next incomplete topic, with only a course
// it is that course's first incomplete topic.
func (d *Dispatcher) learnTarget(ctx context.Context, user *models.User, args []string) (courseName, topicTitle string, topicID int64, err error) {
	switch len(args) {
	case 0:
		next, ok, err := d.Progress.NextTopic(ctx, user.ID)
		if err != nil {
			return "", "", 0, err
		}
		if !ok {
			return "", "", 0, d.emptyCatalogue(ctx, user)
		}
		return next.CourseName, next.TopicTitle, next.TopicID, nil

	case 1:
		course, err := d.Progress.FindCourse(ctx, user.ID, argName(args))
		if err != nil {
			return "", "", 0, err
		}
		course, topics, err := d.Progress.CourseTopics(ctx, user.ID, course.ID)
		if err != nil {
			return "", "", 0, err
		}
		for _, t := range topics {
			if !t.IsCompleted {
				return course.Name, t.Title, t.ID, nil
			}
		}
		return "", "", 0, errAllDone
	}

	courseRef := argName(args[:1])
	topicRef := argName(args[1:])
	course, topic, err := d.Progress.ResolveTopic(ctx, user.ID, courseRef, topicRef)
	switch {
	case err == nil:
		return course.Name, topic.Title, topic.ID, nil
	case errors.Is(err, database.ErrNotFound):
		// not in the user's catalogue: teach it anyway, nothing to record
		return courseRef, topicRef, 0, nil
	default:
		return "", "", 0, err
	}
}

var (
	errAllDone   = errors.New("all topics completed")
	errNoCourses = errors.New("no courses loaded")
)

// emptyCatalogue tells apart "nothing loaded" from "everything learned"
func (d *Dispatcher) emptyCatalogue(ctx context.Context, user *models.User) error {
	courses, err := d.Progress.Courses(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return errNoCourses
	}
	return errAllDone
}

func (d *Dispatcher) handleLearn(ctx context.Context, user *models.User, req *Request) []Reply {
	if d.Teacher == nil {
		return []Reply{text(msgTeacherUnavailable)}
	}

	courseName, topicTitle, topicID, err := d.learnTarget(ctx, user, req.Args)
	switch {
	case errors.Is(err, errAllDone):
		return []Reply{text("🎉 Tebrikler! Tüm konuları tamamladın!\n\n📊 /ilerleme ile istatistiklerini görebilirsin.")}
	case errors.Is(err, errNoCourses):
		return []Reply{text(msgNoCourses)}
	case errors.Is(err, database.ErrNotFound):
		return []Reply{courseFailure(err, argName(req.Args))}
	case err != nil:
		return []Reply{text(msgGenericError)}
	}

	if !d.allow(req.TelegramID) {
		return []Reply{text(msgSlowDown)}
	}
	req.progress(text(fmt.Sprintf("🔍 %s - %s anlatılıyor...\n⏳ Lütfen bekleyin...", courseName, topicTitle)))

	exp, err := d.Teacher.ExplainTopic(ctx, courseName, topicTitle, "beginner")
	if err != nil {
		return []Reply{text("❌ Konu anlatımı sırasında bir hata oluştu. Lütfen tekrar deneyin.")}
	}

	replies := []Reply{markdown(limitMessage(formatLesson(courseName, topicTitle, exp), d.config.MaxMessageLength))}

	if topicID == 0 {
		return replies
	}
	// Repeat lessons of a finished topic record nothing
	topic, err := d.DB.Repos().Topics.GetOwned(ctx, user.ID, topicID)
	if err != nil || topic.IsCompleted {
		return replies
	}
	if _, err := d.Progress.MarkTopicCompletedByID(ctx, user.ID, topicID); err != nil {
		d.log.Warn("Lesson not recorded", "user_id", user.ID, "topic_id", topicID, "error", err)
		return replies
	}
	streak, err := d.Progress.OverallStreak(ctx, user.ID)
	if err == nil {
		replies = append(replies, text(fmt.Sprintf("✅ Konu tamamlandı olarak işaretlendi. 🔥 Streak: %d gün", streak)))
	}
	return replies
}

func formatLesson(courseName, topicTitle string, exp *ai.Explanation) string {
	var sb strings.Builder
	section := func(title string) {
		fmt.Fprintf(&sb, "%s\n%s\n%s\n\n", separator, title, separator)
	}

	fmt.Fprintf(&sb, "🎓 *%s*\n📖 Konu: %s\n\n", strings.ToUpper(courseName), topicTitle)
	section("📚 *KONU ANLATIMI*")
	sb.WriteString(exp.Explanation + "\n\n")

	if exp.HasCode() {
		section("💻 *KOD ÖRNEĞİ*")
		sb.WriteString("```\n" + exp.CodeExample + "\n```\n\n")
	}

	if len(exp.KeyPoints) > 0 {
		section("🎯 *ÖNEMLİ NOKTALAR*")
		for _, p := range exp.KeyPoints {
			sb.WriteString("• " + p + "\n")
		}
		sb.WriteString("\n")
	}

	if exp.PracticalTip != "" {
		fmt.Fprintf(&sb, "💡 *Pratik İpucu:* %s\n\n", exp.PracticalTip)
	}

	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "✅ Quiz: /quiz %s\n🔄 Devam: /devam", argToken(courseName))
	return sb.String()
}

func (d *Dispatcher) handleContinue(ctx context.Context, user *models.User, req *Request) []Reply {
	next, ok, err := d.Progress.NextTopic(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if !ok {
		return []Reply{text("🎉 Tebrikler! Tüm konuları tamamladın!\n\n📊 /ilerleme ile istatistiklerini görebilirsin.")}
	}

	return []Reply{markdown(fmt.Sprintf("📚 Sıradaki konun:\n\n🏫 Ders: *%s*\n📖 Konu: *%s*\n📅 Hafta: %d\n\n▶️ Öğrenmek için:\n`/ogren %s %s`",
		next.CourseName, next.TopicTitle, next.WeekNumber, argToken(next.CourseName), argToken(next.TopicTitle)))}
}

// ============ Quiz ============

func (d *Dispatcher) handleQuiz(ctx context.Context, user *models.User, req *Request) []Reply {
	if d.Teacher == nil {
		return []Reply{text(msgTeacherUnavailable)}
	}
	if len(req.Args) == 0 {
		return []Reply{text("❌ Kullanım: /quiz [ders]\n\nÖrnek: /quiz Yapay_Zeka")}
	}

	name := argName(req.Args)
	course, err := d.Progress.FindCourse(ctx, user.ID, name)
	if err != nil {
		return []Reply{courseFailure(err, name)}
	}
	course, topics, err := d.Progress.CourseTopics(ctx, user.ID, course.ID)
	if err != nil {
		return []Reply{courseFailure(err, name)}
	}

	topic := quizTopic(topics)
	if topic == nil {
		return []Reply{text("❌ Bu ders için konu bulunamadı.")}
	}
	if !d.allow(req.TelegramID) {
		return []Reply{text(msgSlowDown)}
	}

	req.progress(markdown(fmt.Sprintf("🎯 *%s* - Quiz\n📖 Konu: %s\n\n⏳ Sorular hazırlanıyor...", course.Name, topic.Title)))

	questions, err := d.Teacher.GenerateQuiz(ctx, course.Name, topic.Title, d.config.QuizQuestions)
	if err != nil || len(questions) == 0 {
		return []Reply{text("❌ Quiz soruları oluşturulamadı. Lütfen tekrar deneyin.")}
	}

	d.Quizzes.Start(req.TelegramID, quiz.Session{
		UserID:     user.ID,
		TopicID:    topic.ID,
		CourseName: course.Name,
		TopicTitle: topic.Title,
		Questions:  questions,
	})

	s, _ := d.Quizzes.Get(req.TelegramID)
	return []Reply{questionReply(&s)}
}

// quizTopic is the most recently learned topic, or the first one when
// nothing has been completed yet.
func quizTopic(topics []models.Topic) *models.Topic {
	var last *models.Topic
	for i := range topics {
		if topics[i].IsCompleted {
			last = &topics[i]
		}
	}
	if last != nil {
		return last
	}
	if len(topics) > 0 {
		return &topics[0]
	}
	return nil
}

// quizCallbackPrefix prefixes the callback data of answer buttons
const quizCallbackPrefix = "quiz_"

func questionReply(s *quiz.Session) Reply {
	q, _ := s.Current()

	keyboard := make([][]MenuButton, 0, len(q.Options))
	for _, opt := range q.Options {
		keyboard = append(keyboard, []MenuButton{{Text: opt, CallbackData: quizCallbackPrefix + quiz.OptionLetter(opt)}})
	}

	return Reply{
		Text:      fmt.Sprintf("❓ *Soru %d/%d*\n\n%s", s.Index+1, s.Total(), q.Question),
		ParseMode: parseMarkdown,
		Keyboard:  keyboard,
	}
}

// HandleQuizAnswer scores an answer button press and returns the verdict
// followed by the next question or the final result.
func (d *Dispatcher) HandleQuizAnswer(ctx context.Context, req *Request, letter string) []Reply {
	res, err := d.Quizzes.Answer(req.TelegramID, letter)
	if errors.Is(err, quiz.ErrNoSession) {
		return []Reply{text("❌ Aktif quiz bulunamadı. /quiz komutu ile yeni quiz başlatabilirsin.")}
	}
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	verdict := fmt.Sprintf("❌ *Yanlış!* Doğru cevap: *%s*\n\n%s", res.Answer, res.Explanation)
	if res.Correct {
		verdict = "✅ *Doğru!*\n\n" + res.Explanation
	}
	replies := []Reply{markdown(verdict)}

	s := res.Session
	if !res.Finished {
		return append(replies, questionReply(&s))
	}

	if err := d.Progress.AddQuizResult(ctx, s.UserID, s.TopicID, s.Score, s.Total()); err != nil {
		d.log.Warn("Quiz result not saved", "telegram_id", req.TelegramID, "topic_id", s.TopicID, "error", err)
	}

	pct := quiz.Percent(s.Score, s.Total())
	emoji, msg := quiz.Grade(pct)
	summary := fmt.Sprintf("%s *Quiz Tamamlandı!* %s\n\n📊 Sonuç: %d/%d doğru (%d%%)\n🏫 Ders: %s\n📖 Konu: %s",
		emoji, msg, s.Score, s.Total(), pct, s.CourseName, s.TopicTitle)

	if rep, ok, err := d.Progress.Review(ctx, s.UserID, s.TopicID); err == nil && ok {
		summary += "\n🔁 Sonraki tekrar: " + d.Clock.FormatDate(rep.NextReviewDate)
		if d.Progress.IsMastered(rep) {
			summary += "\n🏆 Bu konuyu öğrendin!"
		}
	}
	return append(replies, markdown(summary))
}

func (d *Dispatcher) handleReviews(ctx context.Context, user *models.User, req *Request) []Reply {
	due, err := d.Progress.DueReviews(ctx, user.ID, d.config.ReviewsLimit)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(due) == 0 {
		return []Reply{text("✅ Tekrar edilecek konu yok. Quiz çözdükçe konular tekrar listesine eklenir.")}
	}

	msg := "🔁 *Tekrar Zamanı*\n\n" + formatReviews(due) +
		"\n💡 /quiz " + argToken(due[0].CourseName) + " ile tekrar et"
	return []Reply{markdown(msg)}
}

func (d *Dispatcher) handleQuizResults(ctx context.Context, user *models.User, req *Request) []Reply {
	results, err := d.Progress.LastQuizResults(ctx, user.ID, d.config.QuizResultsLimit)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(results) == 0 {
		return []Reply{text("Henüz quiz çözülmemiş. /quiz [ders] komutu ile quiz çözebilirsin.")}
	}

	var sb strings.Builder
	sb.WriteString("📊 *Son Quiz Sonuçları*\n\n")
	for _, r := range results {
		pct := r.Percent()
		emoji, _ := quiz.Grade(pct)
		fmt.Fprintf(&sb, "%s %s\n   %d/%d (%d%%) · %s\n\n", emoji, r.TopicTitle, r.Score, r.TotalQuestions, pct, d.Clock.FormatDate(r.CompletedAt))
	}
	return []Reply{markdown(sb.String())}
}

// ============ Progress ============

func (d *Dispatcher) handleProgress(ctx context.Context, user *models.User, req *Request) []Reply {
	courses, err := d.Progress.Courses(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(courses) == 0 {
		return []Reply{text(msgNoCourses)}
	}

	var sb strings.Builder
	sb.WriteString("📊 *DERS İLERLEME RAPORU*\n" + separator + "\n\n")

	var total float64
	for _, c := range courses {
		var pct float64
		if c.TotalTopics > 0 {
			pct = float64(c.CompletedTopics) / float64(c.TotalTopics) * 100
		}
		total += pct

		fmt.Fprintf(&sb, "📚 *%s*: %s %.0f%%\n• Tamamlanan: %d/%d konu\n",
			c.Name, progressBar(int(pct)), pct, c.CompletedTopics, c.TotalTopics)

		avg, ok, err := d.Progress.AvgQuizScore(ctx, user.ID, c.ID)
		if err != nil {
			return []Reply{text(msgGenericError)}
		}
		if ok {
			fmt.Fprintf(&sb, "• Quiz ortalaması: %.0f%%\n", avg)
		}
		sb.WriteString("\n")
	}

	streak, err := d.Progress.OverallStreak(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	quizzes, err := d.Progress.TotalQuizzes(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "📈 Genel İlerleme: %.0f%%\n🔥 Çalışma Streak: %d gün\n✅ Toplam Quiz: %d",
		total/float64(len(courses)), streak, quizzes)
	return []Reply{markdown(limitMessage(sb.String(), d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleStatistics(ctx context.Context, user *models.User, req *Request) []Reply {
	stats, err := d.Progress.Stats(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	var sb strings.Builder
	sb.WriteString("📈 *DETAYLI İSTATİSTİKLER*\n" + separator + "\n\n")
	fmt.Fprintf(&sb, "🏫 Toplam Ders: %d\n", stats.Courses)
	fmt.Fprintf(&sb, "📖 Toplam Konu: %d\n", stats.TotalTopics)
	fmt.Fprintf(&sb, "✅ Tamamlanan Konu: %d\n", stats.CompletedTopics)
	fmt.Fprintf(&sb, "⬜ Kalan Konu: %d\n", stats.TotalTopics-stats.CompletedTopics)
	fmt.Fprintf(&sb, "🎯 Quiz Sayısı: %d\n", stats.TotalQuizzes)
	fmt.Fprintf(&sb, "🔥 Streak: %d gün\n", stats.Streak)

	if stats.TotalTopics > 0 {
		pct := stats.CompletedTopics * 100 / stats.TotalTopics
		fmt.Fprintf(&sb, "\nGenel İlerleme:\n%s %d%%", progressBar(pct), pct)
	}
	return []Reply{markdown(sb.String())}
}

func (d *Dispatcher) handlePlan(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) > 0 {
		return d.aiPlan(ctx, req)
	}

	courses, err := d.Progress.Courses(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(courses) == 0 {
		return []Reply{text(msgNoCourses)}
	}

	weeks := make(map[int][]string)
	for _, c := range courses {
		_, topics, err := d.Progress.CourseTopics(ctx, user.ID, c.ID)
		if err != nil {
			return []Reply{text(msgGenericError)}
		}
		for _, t := range topics {
			status := "⬜"
			if t.IsCompleted {
				status = "✅"
			}
			weeks[t.WeekNumber] = append(weeks[t.WeekNumber], fmt.Sprintf("  %s %s: %s", status, c.Name, t.Title))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *%d HAFTALIK ÇALIŞMA PLANI*\n%s\n\n", d.config.PlanWeeks, separator)
	for week := 1; week <= d.config.PlanWeeks; week++ {
		fmt.Fprintf(&sb, "📆 *Hafta %d:*\n", week)
		for _, line := range weeks[week] {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
	return []Reply{markdown(limitMessage(sb.String(), d.config.MaxMessageLength))}
}

// aiPlan builds a day-by-day plan for a free-form subject. A trailing
// number sets the length in days.
func (d *Dispatcher) aiPlan(ctx context.Context, req *Request) []Reply {
	if d.Assistant == nil {
		return []Reply{text(msgAIUnavailable)}
	}

	args, days := req.Args, 7
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			if n < 1 || n > 90 {
				return []Reply{text("❌ Gün sayısı 1 ile 90 arasında olmalı.\nÖrnek: /plan Sayısal_Tasarım 7")}
			}
			args, days = args[:len(args)-1], n
		}
	}
	subject := argName(args)

	if !d.allow(req.TelegramID) {
		return []Reply{text(msgSlowDown)}
	}
	req.progress(text(fmt.Sprintf("🗓 \"%s\" için %d günlük plan hazırlanıyor...", subject, days)))

	plan, err := d.Assistant.StudyPlan(ctx, subject, days)
	if err != nil {
		return []Reply{text("❌ Çalışma planı oluşturulamadı. Lütfen tekrar deneyin.")}
	}
	return []Reply{text(limitMessage(plan, d.config.MaxMessageLength))}
}
