package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/chat"
	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database/dbtest"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/progress"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/pkg/models"
)

const testTelegramID = 1001

// scriptedLLM answers every call with reply (or err) and records prompts
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (l *scriptedLLM) Generate(_ context.Context, _ string, _ []models.Turn, message string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, message)
	return l.reply, l.err
}

func (l *scriptedLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

type fakeReminders struct {
	scheduled   []models.Reminder
	unscheduled []int64
}

func (f *fakeReminders) Schedule(_ context.Context, rem models.Reminder) error {
	f.scheduled = append(f.scheduled, rem)
	return nil
}

func (f *fakeReminders) Unschedule(id int64) {
	f.unscheduled = append(f.unscheduled, id)
}

type harness struct {
	d         *Dispatcher
	llm       *scriptedLLM
	reminders *fakeReminders
	chats     *chat.Manager
	progress  []Reply
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	h := &harness{
		llm:       &scriptedLLM{},
		reminders: &fakeReminders{},
		now:       time.Date(2024, 6, 1, 9, 0, 0, 0, loc),
	}

	db := dbtest.New(t)
	clk := clock.Fixed(loc, func() time.Time { return h.now })
	log := logger.NewNop()

	h.chats = chat.NewManager(db, clk, log, 50, 10)

	config := DefaultConfig()
	config.LLMBurst = 100

	h.d = NewDispatcher(Services{
		DB:        db,
		Clock:     clk,
		Progress:  progress.NewEngine(db, clk, log),
		Notes:     notes.NewService(db, clk, log),
		Schedule:  schedule.NewService(db, clk, log),
		Chat:      h.chats,
		Assistant: ai.NewAssistant(h.llm, h.chats, log),
		Teacher:   ai.NewTeacher(h.llm, log),
		Reminders: h.reminders,
	}, config, log)
	return h
}

func (h *harness) request() *Request {
	return &Request{
		Sender:   Sender{TelegramID: testTelegramID, Username: "ayse", FirstName: "Ayşe"},
		Progress: func(r Reply) { h.progress = append(h.progress, r) },
	}
}

func (h *harness) cmd(command string, args ...string) []Reply {
	req := h.request()
	req.Args = args
	return h.d.HandleCommand(context.Background(), command, req)
}

func (h *harness) text(message string) []Reply {
	req := h.request()
	req.Text = message
	return h.d.HandleText(context.Background(), req)
}

func joined(replies []Reply) string {
	parts := make([]string, len(replies))
	for i, r := range replies {
		parts[i] = r.Text
	}
	return strings.Join(parts, "\n---\n")
}

func TestStartGreetsWithMenu(t *testing.T) {
	h := newHarness(t)

	replies := h.cmd("start")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Merhaba Ayşe")
	assert.Equal(t, parseMarkdown, replies[0].ParseMode)
	require.NotEmpty(t, replies[0].Keyboard)
	assert.Equal(t, menuCallbackPrefix+"bugun", replies[0].Keyboard[0][0].CallbackData)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, joined(h.cmd("nope")), "Bilinmeyen komut")
}

func TestHelpHidesUpscaleWhenDisabled(t *testing.T) {
	h := newHarness(t)

	help := joined(h.cmd("yardim"))
	assert.Contains(t, help, "/gorev_ekle")
	assert.NotContains(t, help, "/upscale")
}

func TestNoteCommands(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, joined(h.cmd("not_ekle", "fizik", "F=ma")), "Kategori: Fizik")
	assert.Contains(t, joined(h.cmd("not_ekle", "Matematik")), "kategori ve not")

	list := joined(h.cmd("notlar"))
	assert.Contains(t, list, "F=ma")

	assert.Contains(t, joined(h.cmd("notlar", "FİZİK")), "F=ma")
	assert.Contains(t, joined(h.cmd("notlar", "kategoriler")), "Fizik (1)")
	assert.Contains(t, joined(h.cmd("not_ara", "f=MA")), "F=ma")
	assert.Contains(t, joined(h.cmd("not_ara", "kimya")), "bulunamadı")

	assert.Contains(t, joined(h.cmd("not_sil", "x")), "Geçersiz")
	assert.Contains(t, joined(h.cmd("not_sil", "1")), "Not silindi")
	assert.Contains(t, joined(h.cmd("not_sil", "1")), "Not bulunamadı")
}

func TestNoteSummaryUsesAssistant(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = "Kısa özet"

	assert.Contains(t, joined(h.cmd("notlar", "ozet")), "Özetlenecek not bulunamadı")
	assert.Zero(t, h.llm.calls())

	h.cmd("not_ekle", "Fizik", "F=ma")
	assert.Contains(t, joined(h.cmd("notlar", "özet")), "Kısa özet")
	require.Equal(t, 1, h.llm.calls())
	assert.Contains(t, h.llm.prompts[0], "[Fizik] F=ma")
	require.NotEmpty(t, h.progress)
}

func TestAddTaskParsesDateAndPriority(t *testing.T) {
	h := newHarness(t)

	reply := joined(h.cmd("gorev_ekle", "Fizik", "ödevi", "!yüksek", "01.06.2024", "18:00"))
	assert.Contains(t, reply, "📋 Fizik ödevi")
	assert.Contains(t, reply, "Yüksek")
	assert.Contains(t, reply, "01.06.2024 18:00")

	assert.Contains(t, joined(h.cmd("gorev_ekle", "Kitap", "oku")), "Tarih yok")

	today := joined(h.cmd("bugun"))
	assert.Contains(t, today, "Fizik ödevi")
	assert.NotContains(t, today, "Kitap oku")

	assert.Contains(t, joined(h.cmd("gorevler")), "Kitap oku")
}

func TestAddTaskRejectsBadDate(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, msgInvalidDate, joined(h.cmd("gorev_ekle", "Ödev", "32.13.2024")))
	assert.Contains(t, joined(h.cmd("gorevler")), "Henüz görev bulunmuyor")
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.cmd("gorev_ekle", "Rapor", "yarın")

	assert.Contains(t, joined(h.cmd("yaklasan")), "Rapor")
	assert.Contains(t, joined(h.cmd("yaklasan", "0")), "1 ile 365")

	assert.Contains(t, joined(h.cmd("gorev_tamamla", "1")), "Görev tamamlandı")
	assert.Contains(t, joined(h.cmd("gorevler")), "Henüz görev bulunmuyor")
	assert.Contains(t, joined(h.cmd("gorevler", "tümü")), "✅ *Rapor*")

	assert.Contains(t, joined(h.cmd("gorev_geri_al", "1")), "tekrar açıldı")
	assert.Contains(t, joined(h.cmd("gorev_sil", "1")), "Görev silindi")
	assert.Contains(t, joined(h.cmd("gorev_tamamla", "1")), "Görev bulunamadı")
	assert.Contains(t, joined(h.cmd("gorev_tamamla")), "görev ID")
}

func TestRecurringReminderIsScheduled(t *testing.T) {
	h := newHarness(t)

	reply := joined(h.cmd("hatirlatici", "Kelime", "tekrarı", "yarın", "20:00", "günlük"))
	assert.Contains(t, reply, "Hatırlatıcı eklendi")
	assert.Contains(t, reply, "02.06.2024 20:00")
	assert.Contains(t, reply, "her gün")

	require.Len(t, h.reminders.scheduled, 1)
	rem := h.reminders.scheduled[0]
	assert.Equal(t, "Kelime tekrarı", rem.Message)
	assert.Equal(t, models.RecurrenceDaily, rem.RecurrencePattern)

	assert.Contains(t, joined(h.cmd("hatirlaticilar")), "Kelime tekrarı")

	assert.Contains(t, joined(h.cmd("hatirlatici_sil", "1")), "silindi")
	assert.Equal(t, []int64{1}, h.reminders.unscheduled)
}

func TestOneOffReminderIsLeftToTheSweep(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, joined(h.cmd("hatirlatici", "Sınav", "10.06.2024", "09:30")), "10.06.2024 09:30")
	assert.Empty(t, h.reminders.scheduled)

	assert.Equal(t, msgInvalidDate, joined(h.cmd("hatirlatici", "Sınav", "sonra")))
	assert.Contains(t, joined(h.cmd("hatirlatici", "yarın")), "mesaj ve tarih")
}

func TestTextSuggestsCommand(t *testing.T) {
	h := newHarness(t)

	replies := h.text("Yeni bir GÖREV EKLE lütfen")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "`/gorev_ekle`")
	assert.Zero(t, h.llm.calls())
}

func TestTextGoesToAssistant(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = "Yerçekimi bir kuvvettir."

	assert.Equal(t, "Yerçekimi bir kuvvettir.", joined(h.text("Gravitasyon nedir?")))

	user, err := h.d.user(context.Background(), h.request().Sender)
	require.NoError(t, err)
	turns, err := h.chats.Context(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, models.RoleModel, turns[1].Role)

	assert.Contains(t, joined(h.cmd("sohbet_temizle")), "temizlendi")
	turns, err = h.chats.Context(context.Background(), user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestChatFailureDoesNotLeakError(t *testing.T) {
	h := newHarness(t)
	h.llm.err = errors.New("upstream quota exceeded for key abc")

	reply := joined(h.cmd("sohbet", "merhaba"))
	assert.Contains(t, reply, "Üzgünüm")
	assert.NotContains(t, reply, "quota")
}

func TestChatIsRateLimited(t *testing.T) {
	h := newHarness(t)
	h.d.config.LLMBurst = 1
	h.d.config.LLMInterval = time.Hour
	h.llm.reply = "ok"

	assert.Equal(t, "ok", joined(h.cmd("sohbet", "bir")))
	assert.Equal(t, msgSlowDown, joined(h.cmd("sohbet", "iki")))
	assert.Equal(t, 1, h.llm.calls())
}

func TestAIUnavailable(t *testing.T) {
	h := newHarness(t)
	h.d.Assistant = nil
	h.d.Teacher = nil

	assert.Equal(t, msgAIUnavailable, joined(h.text("selam")))
	assert.Equal(t, msgTeacherUnavailable, joined(h.cmd("ogren", "Fizik", "Kinematik")))
	assert.Equal(t, msgTeacherUnavailable, joined(h.cmd("quiz", "Fizik")))
}

const lecture = `## KONU ANLATIMI
Gradyan inişi hatayı adım adım azaltır.

## KOD ÖRNEĞİ
Kod örneği yok.

## ÖNEMLİ NOKTALAR
- Öğrenme oranı önemlidir

## PRATİK İPUCU
Küçük adımlarla başla.`

func TestRepeatLessonDoesNotReportCompletion(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	h.llm.reply = lecture

	first := h.cmd("ogren", "Yapay_Zeka", "gradient_descent")
	require.Len(t, first, 2)
	assert.Contains(t, first[1].Text, "Konu tamamlandı")

	h.now = h.now.AddDate(0, 0, 1)
	again := h.cmd("ogren", "Yapay_Zeka", "gradient_descent")
	require.Len(t, again, 1)
	assert.NotContains(t, joined(again), "Konu tamamlandı")
	assert.Contains(t, joined(h.cmd("ilerleme")), "🔥 Çalışma Streak: 1 gün", "a repeat lesson does not extend the streak")
}

func TestLoadCoursesAndLearn(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, msgNoCourses, joined(h.cmd("dersler")))
	assert.Equal(t, msgNoCourses, joined(h.cmd("ogren")))

	assert.Contains(t, joined(h.cmd("dersler_yukle")), "6 ders yüklendi")
	assert.Contains(t, joined(h.cmd("dersler_yukle")), "zaten yüklüydü")
	assert.Contains(t, joined(h.cmd("dersler")), "Sayısal Tasarım")

	h.llm.reply = lecture
	replies := h.cmd("ogren", "Yapay_Zeka", "gradient_descent")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "YAPAY ZEKA UYGULAMALARI")
	assert.Contains(t, replies[0].Text, "Gradyan inişi")
	assert.NotContains(t, replies[0].Text, "KOD ÖRNEĞİ")
	assert.Contains(t, replies[0].Text, "• Öğrenme oranı önemlidir")
	assert.Contains(t, replies[0].Text, "/quiz Yapay_Zeka_Uygulamaları")
	assert.Contains(t, replies[1].Text, "Streak: 1 gün")
	assert.Contains(t, h.llm.prompts[0], "Konu: Gradient Descent")

	// learning the same topic again records nothing new
	assert.Len(t, h.cmd("ogren", "Yapay_Zeka", "gradient_descent"), 1)

	detail := joined(h.cmd("ders_detay", "yapay_zeka"))
	assert.Contains(t, detail, "✅ Hafta 5: Gradient Descent")
	assert.Contains(t, detail, "İlerleme: 1/10 konu")

	assert.Contains(t, joined(h.cmd("ders_detay", "Kimya")), "'Kimya' dersi bulunamadı")
	assert.Contains(t, joined(h.cmd("ilerleme")), "🔥 Çalışma Streak: 1 gün")
	assert.Contains(t, joined(h.cmd("istatistik")), "✅ Tamamlanan Konu: 1")
}

func TestLearnWithoutArgumentsPicksNextTopic(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	h.llm.reply = lecture

	replies := h.cmd("ogren")
	require.NotEmpty(t, replies)
	assert.Contains(t, replies[0].Text, "ÖN YÜZ PROGRAMLAMA")
	assert.Contains(t, joined(h.cmd("devam")), "Hafta: 2")
}

func TestLearnUnknownTopicIsTaughtButNotRecorded(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	h.llm.reply = lecture

	replies := h.cmd("ogren", "Yapay_Zeka", "Kuantum_Hesaplama")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Kuantum Hesaplama")
	assert.Contains(t, joined(h.cmd("istatistik")), "✅ Tamamlanan Konu: 0")
}

const quizJSON = `[
  {"question": "2 tabanında 10 kaçtır?", "options": ["A) 2", "B) 3", "C) 4", "D) 5"], "correct": "A", "explanation": "1010 = 10"},
  {"question": "Hex F kaçtır?", "options": ["A) 14", "B) 15", "C) 16", "D) 17"], "correct": "B", "explanation": "F = 15"}
]`

func TestQuizFlow(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	h.llm.reply = quizJSON

	replies := h.cmd("quiz", "Sayısal")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Soru 1/2")
	require.Len(t, replies[0].Keyboard, 4)
	assert.Equal(t, "quiz_A", replies[0].Keyboard[0][0].CallbackData)
	assert.Contains(t, h.llm.prompts[0], "Sayı Sistemleri (Binary, Hex)")

	ctx := context.Background()
	replies = h.d.HandleQuizAnswer(ctx, h.request(), "A")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "Doğru!")
	assert.Contains(t, replies[1].Text, "Soru 2/2")

	replies = h.d.HandleQuizAnswer(ctx, h.request(), "C")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "Doğru cevap: *B*")
	assert.Contains(t, replies[1].Text, "Quiz Tamamlandı")
	assert.Contains(t, replies[1].Text, "1/2 doğru (50%)")

	assert.Contains(t, joined(h.d.HandleQuizAnswer(ctx, h.request(), "A")), "Aktif quiz bulunamadı")
	assert.Contains(t, joined(h.cmd("quiz_sonuc")), "1/2 (50%)")
	assert.Contains(t, joined(h.cmd("ilerleme")), "Quiz ortalaması: 50%")
}

func TestReviewsAfterQuiz(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	assert.Contains(t, joined(h.cmd("tekrar")), "Tekrar edilecek konu yok")

	h.llm.reply = quizJSON
	h.cmd("quiz", "Sayısal")
	ctx := context.Background()
	h.d.HandleQuizAnswer(ctx, h.request(), "A")
	replies := h.d.HandleQuizAnswer(ctx, h.request(), "C")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1].Text, "Sonraki tekrar: 02.06.2024")

	assert.NotContains(t, joined(h.cmd("bugun")), "Tekrar Zamanı")

	h.now = h.now.AddDate(0, 0, 1)
	reviews := joined(h.cmd("tekrar"))
	assert.Contains(t, reviews, "Sayısal Tasarım: Sayı Sistemleri (Binary, Hex) (son: zayıf)")
	assert.Contains(t, reviews, "/quiz Sayısal_Tasarım")
	assert.Contains(t, joined(h.cmd("bugun")), "Tekrar Zamanı")
}

func TestQuizWithBadModelOutput(t *testing.T) {
	h := newHarness(t)
	h.cmd("dersler_yukle")
	h.llm.reply = "bugün soru yok"

	assert.Contains(t, joined(h.cmd("quiz", "Sayısal")), "Quiz soruları oluşturulamadı")
	assert.Contains(t, joined(h.cmd("quiz")), "Kullanım")
	assert.Contains(t, joined(h.cmd("quiz", "Kimya")), "dersi bulunamadı")
}

func TestPlan(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, msgNoCourses, joined(h.cmd("plan")))

	h.cmd("dersler_yukle")
	plan := joined(h.cmd("plan"))
	assert.Contains(t, plan, "14 HAFTALIK ÇALIŞMA PLANI")
	assert.Contains(t, plan, "⬜ Sayısal Tasarım: Boolean Cebir")

	h.llm.reply = "1. gün: tekrar"
	assert.Equal(t, "1. gün: tekrar", joined(h.cmd("plan", "Sayısal_Tasarım", "3")))
	assert.Contains(t, h.llm.prompts[0], `"Sayısal Tasarım" konusu için 3 günlük`)
	assert.Contains(t, joined(h.cmd("plan", "Fizik", "500")), "1 ile 90")
}

func TestDocumentImport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	csv := []byte("Ders,Açıklama,Hafta,Konu\nFizik,Mekanik,1,Kinematik\nFizik,,2,Dinamik\n")
	fetch := func() ([]byte, error) { return csv, nil }

	assert.Contains(t, joined(h.d.HandleDocument(ctx, h.request(), "dersler.csv", len(csv), fetch)), "/ders_ice_aktar")

	h.cmd("ders_ice_aktar")
	assert.Contains(t, joined(h.d.HandleDocument(ctx, h.request(), "dersler.csv", 100<<20, fetch)), "MB'dan küçük")

	h.cmd("ders_ice_aktar")
	reply := joined(h.d.HandleDocument(ctx, h.request(), "dersler.csv", len(csv), fetch))
	assert.Contains(t, reply, "İçe aktarma tamamlandı")
	assert.Contains(t, reply, "Yeni konu: 2")

	detail := joined(h.cmd("ders_detay", "Fizik"))
	assert.Contains(t, detail, "📝 Mekanik")
	assert.Contains(t, detail, "⬜ Hafta 2: Dinamik")
}

func TestDocumentImportRejectsUnknownFormat(t *testing.T) {
	h := newHarness(t)
	h.cmd("ders_ice_aktar")

	fetch := func() ([]byte, error) { return []byte("%PDF"), nil }
	assert.Contains(t, joined(h.d.HandleDocument(context.Background(), h.request(), "ders.pdf", 4, fetch)), "Dosya okunamadı")
}

func TestPhotoWithoutUpscale(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, joined(h.cmd("upscale")), "kullanılamıyor")
	assert.Contains(t, joined(h.d.HandlePhoto(context.Background(), h.request(), "http://example.invalid/p.jpg", 10)), "kullanılamıyor")
}
