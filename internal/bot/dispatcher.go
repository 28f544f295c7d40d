package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/chat"
	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/progress"
	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/upscale"
	"github.com/example/studybot/pkg/models"
)

const parseMarkdown = "Markdown"

// MenuButton represents a button in an inline keyboard
type MenuButton struct {
	Text         string
	CallbackData string
}

// Reply is one outgoing message. A reply carrying Photo is sent as an
// image with Text as its caption.
type Reply struct {
	Text      string
	ParseMode string
	Keyboard  [][]MenuButton
	Photo     []byte
}

func text(s string) Reply {
	return Reply{Text: s}
}

func markdown(s string) Reply {
	return Reply{Text: s, ParseMode: parseMarkdown}
}

// Sender identifies who wrote to the bot
type Sender struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Request is an inbound command or message. Progress, when set, delivers
// an interim message before a slow operation finishes.
type Request struct {
	Sender
	Args     []string
	Text     string
	Progress func(Reply)
}

func (r *Request) progress(reply Reply) {
	if r.Progress != nil {
		r.Progress(reply)
	}
}

// ReminderScheduler registers recurring reminders for delivery
type ReminderScheduler interface {
	Schedule(ctx context.Context, rem models.Reminder) error
	Unschedule(reminderID int64)
}

// Services are the collaborators the dispatcher drives. Assistant, Teacher,
// Upscale and Reminders may be nil, which disables the matching commands.
type Services struct {
	DB        *database.DB
	Clock     *clock.Clock
	Progress  *progress.Engine
	Notes     *notes.Service
	Schedule  *schedule.Service
	Chat      *chat.Manager
	Assistant *ai.Assistant
	Teacher   *ai.Teacher
	Upscale   *upscale.Service
	Reminders ReminderScheduler
	Quizzes   *quiz.Store
}

type handlerFunc func(ctx context.Context, user *models.User, req *Request) []Reply

// Dispatcher turns commands and messages into replies independent of the
// Telegram transport.
type Dispatcher struct {
	Services
	config   *BotConfig
	log      *logger.Logger
	commands map[string]handlerFunc

	mu              sync.Mutex
	limiters        map[int64]*rate.Limiter
	awaitingUpscale map[int64]bool
	awaitingImport  map[int64]bool
}

// NewDispatcher creates a dispatcher. A nil config uses DefaultConfig.
func NewDispatcher(svc Services, config *BotConfig, log *logger.Logger) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}
	if svc.Quizzes == nil {
		svc.Quizzes = quiz.NewStore()
	}

	d := &Dispatcher{
		Services:        svc,
		config:          config,
		log:             log.With("component", "dispatcher"),
		limiters:        make(map[int64]*rate.Limiter),
		awaitingUpscale: make(map[int64]bool),
		awaitingImport:  make(map[int64]bool),
	}

	d.commands = map[string]handlerFunc{
		"start":          d.handleStart,
		"yardim":         d.handleHelp,
		"sohbet":         d.handleChat,
		"sohbet_temizle": d.handleClearChat,

		"not_ekle": d.handleAddNote,
		"notlar":   d.handleListNotes,
		"not_ara":  d.handleSearchNotes,
		"not_sil":  d.handleDeleteNote,

		"gorev_ekle":    d.handleAddTask,
		"gorevler":      d.handleListTasks,
		"bugun":         d.handleToday,
		"yaklasan":      d.handleUpcoming,
		"gorev_tamamla": d.handleCompleteTask,
		"gorev_geri_al": d.handleUncompleteTask,
		"gorev_sil":     d.handleDeleteTask,

		"hatirlatici":     d.handleAddReminder,
		"hatirlaticilar":  d.handleListReminders,
		"hatirlatici_sil": d.handleDeleteReminder,

		"dersler_yukle":  d.handleLoadCourses,
		"ders_ice_aktar": d.handleImportCourses,
		"dersler":        d.handleListCourses,
		"ders_detay":     d.handleCourseDetail,
		"ogren":          d.handleLearn,
		"devam":          d.handleContinue,
		"quiz":           d.handleQuiz,
		"quiz_sonuc":     d.handleQuizResults,
		"tekrar":         d.handleReviews,
		"ilerleme":       d.handleProgress,
		"istatistik":     d.handleStatistics,
		"plan":           d.handlePlan,

		"upscale":        d.handleUpscale,
		"upscale_yardim": d.handleUpscaleHelp,
	}
	return d
}

// HandleCommand runs a slash command (without the leading slash)
func (d *Dispatcher) HandleCommand(ctx context.Context, command string, req *Request) []Reply {
	user, err := d.user(ctx, req.Sender)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	handler, ok := d.commands[strings.ToLower(command)]
	if !ok {
		return []Reply{text("❓ Bilinmeyen komut. Komutları görmek için /yardim yazabilirsin.")}
	}

	d.log.Debug("Command", "command", command, "telegram_id", req.TelegramID, "args", len(req.Args))
	return handler(ctx, user, req)
}

// HandleText answers a free-text message: a command suggestion when the
// text names one, otherwise the assistant's reply.
func (d *Dispatcher) HandleText(ctx context.Context, req *Request) []Reply {
	user, err := d.user(ctx, req.Sender)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	message := strings.TrimSpace(req.Text)
	if message == "" {
		return nil
	}

	if command, ok := SuggestCommand(message); ok {
		return []Reply{markdown("💡 Bunu mu demek istediniz?\n\nKomut: `" + command + "`\n\nKullanım için /yardim yazabilirsiniz.")}
	}

	return d.chat(ctx, user, req.TelegramID, message)
}

func (d *Dispatcher) chat(ctx context.Context, user *models.User, telegramID int64, message string) []Reply {
	if d.Assistant == nil {
		return []Reply{text(msgAIUnavailable)}
	}
	if !d.allow(telegramID) {
		return []Reply{text(msgSlowDown)}
	}

	reply, err := d.Assistant.Chat(ctx, user.ID, message)
	if err != nil {
		return []Reply{text("😔 Üzgünüm, şu anda yanıt veremiyorum. Lütfen biraz sonra tekrar deneyin.\n\nKomutları görmek için: /yardim")}
	}
	return []Reply{text(limitMessage(reply, d.config.MaxMessageLength))}
}

// user creates the sender on first contact and refreshes last_active
func (d *Dispatcher) user(ctx context.Context, s Sender) (*models.User, error) {
	var user *models.User
	err := d.DB.InTx(ctx, func(r *database.Repositories) error {
		var err error
		user, err = r.Users.GetOrCreate(ctx, models.User{
			TelegramID: s.TelegramID,
			Username:   s.Username,
			FirstName:  s.FirstName,
			LastName:   s.LastName,
		}, d.Clock.NowUTC())
		return err
	})
	if err != nil {
		d.log.Error("Failed to resolve user", "telegram_id", s.TelegramID, "error", err)
		return nil, err
	}
	return user, nil
}

// allow applies the per-user LLM rate limit
func (d *Dispatcher) allow(telegramID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	lim, ok := d.limiters[telegramID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(d.config.LLMInterval), d.config.LLMBurst)
		d.limiters[telegramID] = lim
	}
	return lim.Allow()
}

func (d *Dispatcher) setAwaiting(m map[int64]bool, telegramID int64, v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v {
		m[telegramID] = true
	} else {
		delete(m, telegramID)
	}
}

// takeAwaiting reports whether the flag was set and clears it
func (d *Dispatcher) takeAwaiting(m map[int64]bool, telegramID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := m[telegramID]
	delete(m, telegramID)
	return v
}

const (
	msgGenericError  = "❌ Bir hata oluştu. Lütfen tekrar deneyin."
	msgAIUnavailable = "❌ AI asistan şu anda kullanılamıyor."
	msgSlowDown      = "⏳ Çok hızlı mesaj gönderiyorsun. Lütfen birkaç saniye bekle."
	msgNoCourses     = "Henüz ders yüklenmemiş. /dersler_yukle komutu ile başlayabilirsin."
)

// failure maps a service error to the reply shown to the user
func failure(err error, notFound string) Reply {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return text(notFound)
	default:
		return text(msgGenericError)
	}
}
