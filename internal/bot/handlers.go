package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/textutil"
	"github.com/example/studybot/pkg/models"
)

func (d *Dispatcher) handleStart(ctx context.Context, user *models.User, req *Request) []Reply {
	name := user.FirstName
	if name == "" {
		name = "öğrenci"
	}

	welcome := fmt.Sprintf(`🤖 *Merhaba %s!*

Ben senin akıllı kişisel asistanınım. Sana şu konularda yardımcı olabilirim:

📚 *Ders Yardımı*
• AI destekli soru cevaplama
• Not özetleme ve açıklama

📝 *Not Yönetimi*
• Kategorilere göre not alma
• Not arama ve listeleme

📅 *Ajanda & Görevler*
• Görev ekleme ve takibi
• Bugünkü görevleri görüntüleme

⏰ *Hatırlatıcılar*
• Ödev ve sınav hatırlatıcıları
• Tekrarlayan bildirimler

Kullanılabilir komutları görmek için /yardim yazabilirsin!`, name)

	reply := markdown(welcome)
	reply.Keyboard = mainMenu()
	return []Reply{reply}
}

// menuCallbackPrefix marks buttons that run a command
const menuCallbackPrefix = "cmd_"

// mainMenu returns the buttons shown under the welcome message
func mainMenu() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📅 Bugün", CallbackData: menuCallbackPrefix + "bugun"},
			{Text: "▶️ Devam", CallbackData: menuCallbackPrefix + "devam"},
		},
		{
			{Text: "📚 Dersler", CallbackData: menuCallbackPrefix + "dersler"},
			{Text: "📊 İlerleme", CallbackData: menuCallbackPrefix + "ilerleme"},
		},
		{
			{Text: "📖 Yardım", CallbackData: menuCallbackPrefix + "yardim"},
		},
	}
}

func (d *Dispatcher) handleHelp(ctx context.Context, user *models.User, req *Request) []Reply {
	var sb strings.Builder
	sb.WriteString(`📖 *Komut Listesi*

*AI Sohbet:*
/sohbet [mesajınız] - AI ile sohbet et
/sohbet_temizle - Sohbet geçmişini sil

*Not İşlemleri:*
/not_ekle [kategori] [not] - Yeni not ekle
/notlar [kategori] - Notları listele
/notlar kategoriler - Kategorileri göster
/notlar ozet [kategori] - Notları AI ile özetle
/not_ara [kelime] - Notlarda ara
/not_sil [id] - Not sil

*Görev İşlemleri:*
/gorev_ekle [görev] [tarih] - Yeni görev ekle (öncelik için !yüksek / !düşük)
/gorevler [tumu] - Görevleri listele
/bugun - Bugünkü görevler ve öğrenilecek konular
/yaklasan [gün] - Yaklaşan görevler
/gorev_tamamla [id] - Görevi tamamla
/gorev_geri_al [id] - Tamamlamayı geri al
/gorev_sil [id] - Görev sil

*Hatırlatıcı:*
/hatirlatici [mesaj] [tarih/saat] [günlük|haftalık|aylık] - Hatırlatıcı ekle
/hatirlaticilar - Hatırlatıcıları listele
/hatirlatici_sil [id] - Hatırlatıcı sil

*🎓 AI Öğretmen:*
/dersler_yukle - 6 dersi yükle
/ders_ice_aktar - Excel/CSV dosyasından ders yükle
/dersler - Tüm dersleri listele
/ders_detay [ders_adı] - Ders detayları
/ogren [ders] [konu] - AI konu anlatımı
/devam - Kaldığın yerden devam et
/quiz [ders] - Quiz çöz
/quiz_sonuc - Son quiz sonuçları
/tekrar - Tekrar zamanı gelen konular
/ilerleme - Genel ilerleme raporu
/istatistik - Detaylı istatistikler
/plan - 14 haftalık çalışma planı
/plan [konu] [gün] - AI çalışma planı
`)

	if d.Upscale != nil {
		sb.WriteString(`
*🎨 Görüntü Yükseltme:*
/upscale - Fotoğraf kalitesini artır (4x)
/upscale_yardim - Detaylı bilgi
`)
	}

	sb.WriteString(`
*Diğer:*
/start - Bot'u başlat
/yardim - Bu yardım mesajı

*Örnekler:*
` + "`/not_ekle Matematik Pisagor teoremi: a² + b² = c²`" + `
` + "`/gorev_ekle Fizik ödevi yap 25.12.2024`" + `
` + "`/ogren Yapay_Zeka gradient_descent`" + `
` + "`/quiz Yapay_Zeka`")

	return []Reply{markdown(sb.String())}
}

func (d *Dispatcher) handleChat(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen bir mesaj yazın.\nÖrnek: /sohbet Gravitasyon nedir?")}
	}
	return d.chat(ctx, user, req.TelegramID, strings.Join(req.Args, " "))
}

func (d *Dispatcher) handleClearChat(ctx context.Context, user *models.User, req *Request) []Reply {
	if err := d.Chat.Clear(ctx, user.ID); err != nil {
		return []Reply{text(msgGenericError)}
	}
	return []Reply{text("🧹 Sohbet geçmişi temizlendi.")}
}

// parseID reads a positive numeric id from the first argument
func parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ============ Notes ============

func (d *Dispatcher) handleAddNote(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) < 2 {
		return []Reply{text("Lütfen kategori ve not içeriği girin.\nÖrnek: /not_ekle Matematik Pisagor teoremi: a² + b² = c²")}
	}

	note, err := d.Notes.Add(ctx, user.ID, req.Args[0], strings.Join(req.Args[1:], " "))
	if err != nil {
		if errors.Is(err, notes.ErrEmptyContent) {
			return []Reply{text("❌ Not içeriği boş olamaz.")}
		}
		return []Reply{text("❌ Not eklenirken bir hata oluştu.")}
	}

	return []Reply{text(fmt.Sprintf("✅ Not eklendi!\n📚 Kategori: %s\n📅 Tarih: %s\n🆔 ID: %d",
		note.Category, d.Clock.Format(note.CreatedAt), note.ID))}
}

func (d *Dispatcher) handleListNotes(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) > 0 {
		switch textutil.Fold(req.Args[0]) {
		case "ozet", "özet":
			return d.summarizeNotes(ctx, user, req)
		case "kategoriler":
			return d.listCategories(ctx, user)
		}
	}

	var (
		list  []models.Note
		err   error
		title = "📚 *Notlarınız*"
	)
	if len(req.Args) > 0 {
		category := strings.Join(req.Args, " ")
		list, err = d.Notes.ByCategory(ctx, user.ID, category)
		title = "📚 *" + notes.NormalizeCategory(category) + " Notları*"
	} else {
		list, err = d.Notes.List(ctx, user.ID)
	}
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(list) == 0 {
		return []Reply{text("Henüz not bulunmuyor. /not_ekle komutu ile not ekleyebilirsin.")}
	}

	msg := fmt.Sprintf("%s (%d adet)\n\n%s", title, len(list), formatNotes(list, d.Clock))
	return []Reply{markdown(limitMessage(msg, d.config.MaxMessageLength))}
}

func (d *Dispatcher) listCategories(ctx context.Context, user *models.User) []Reply {
	cats, err := d.Notes.Categories(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(cats) == 0 {
		return []Reply{text("Henüz not bulunmuyor. /not_ekle komutu ile not ekleyebilirsin.")}
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Kategoriler*\n\n")
	for _, c := range cats {
		fmt.Fprintf(&sb, "• %s (%d)\n", c.Category, c.Count)
	}
	return []Reply{markdown(sb.String())}
}

func (d *Dispatcher) summarizeNotes(ctx context.Context, user *models.User, req *Request) []Reply {
	if d.Assistant == nil {
		return []Reply{text(msgAIUnavailable)}
	}

	var (
		list []models.Note
		err  error
	)
	if len(req.Args) > 1 {
		list, err = d.Notes.ByCategory(ctx, user.ID, strings.Join(req.Args[1:], " "))
	} else {
		list, err = d.Notes.List(ctx, user.ID)
	}
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(list) == 0 {
		return []Reply{text("Özetlenecek not bulunamadı.")}
	}
	if !d.allow(req.TelegramID) {
		return []Reply{text(msgSlowDown)}
	}

	req.progress(text("📝 Notların özetleniyor..."))
	summary, err := d.Assistant.SummarizeNotes(ctx, list)
	if err != nil {
		return []Reply{text("❌ Notlar özetlenemedi. Lütfen tekrar deneyin.")}
	}
	return []Reply{text(limitMessage("📝 Not Özeti\n\n"+summary, d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleSearchNotes(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen arama kelimesi girin.\nÖrnek: /not_ara Pisagor")}
	}

	keyword := strings.Join(req.Args, " ")
	found, err := d.Notes.Search(ctx, user.ID, keyword)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(found) == 0 {
		return []Reply{text(fmt.Sprintf("'%s' ile ilgili not bulunamadı.", keyword))}
	}

	msg := fmt.Sprintf("🔍 *Arama Sonuçları* '%s' (%d adet)\n\n%s", keyword, len(found), formatNotes(found, d.Clock))
	return []Reply{markdown(limitMessage(msg, d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleDeleteNote(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen not ID'si girin.\nÖrnek: /not_sil 5")}
	}
	id, ok := parseID(req.Args)
	if !ok {
		return []Reply{text("❌ Geçersiz not ID'si. Lütfen bir sayı girin.")}
	}

	if err := d.Notes.Delete(ctx, user.ID, id); err != nil {
		return []Reply{failure(err, fmt.Sprintf("❌ Not bulunamadı (ID: %d)", id))}
	}
	return []Reply{text(fmt.Sprintf("✅ Not silindi (ID: %d)", id))}
}

// ============ Tasks ============

// splitTrailingDate peels a date off the end of args, trying the last two
// arguments ("yarın 14:00") before the last one.
func (d *Dispatcher) splitTrailingDate(args []string) ([]string, string, bool) {
	for _, n := range []int{2, 1} {
		if len(args) <= n {
			continue
		}
		tail := strings.Join(args[len(args)-n:], " ")
		if _, err := schedule.ParseDate(tail, d.Clock); err == nil {
			return args[:len(args)-n], tail, true
		}
	}
	return args, "", false
}

func (d *Dispatcher) handleAddTask(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen görev başlığı girin.\nÖrnek: /gorev_ekle Fizik ödevi yap 25.12.2024")}
	}

	in := schedule.NewTask{Priority: string(models.PriorityMedium)}
	args := make([]string, 0, len(req.Args))
	for _, a := range req.Args {
		if strings.HasPrefix(a, "!") && len(a) > 1 {
			in.Priority = strings.TrimPrefix(a, "!")
			continue
		}
		args = append(args, a)
	}

	args, rawDate, hasDate := d.splitTrailingDate(args)
	if !hasDate && len(args) > 1 && looksLikeBadDate(args[len(args)-1]) {
		return []Reply{text(msgInvalidDate)}
	}
	if hasDate {
		due, _ := schedule.ParseDate(rawDate, d.Clock)
		in.DueDate = &due
	}
	in.Title = strings.Join(args, " ")

	task, err := d.Schedule.AddTask(ctx, user.ID, in)
	if err != nil {
		if errors.Is(err, schedule.ErrEmptyTitle) {
			return []Reply{text("❌ Görev başlığı boş olamaz.")}
		}
		return []Reply{text("❌ Görev eklenirken bir hata oluştu.")}
	}

	dateInfo := "📅 Tarih yok"
	if task.DueDate != nil {
		dateInfo = "📅 Tarih: " + d.Clock.Format(*task.DueDate)
	}
	return []Reply{text(fmt.Sprintf("✅ Görev eklendi!\n📋 %s\n%s %s\n%s\n🆔 ID: %d",
		task.Title, task.Priority.Emoji(), task.Priority.Label(), dateInfo, task.ID))}
}

// looksLikeBadDate catches "32.13.2024"-style arguments that were meant as
// a date but did not parse, so they are not silently kept in the title.
func looksLikeBadDate(arg string) bool {
	return schedule.LooksLikeDate(arg) && strings.ContainsAny(arg, ".-/:")
}

const msgInvalidDate = "❌ Geçersiz tarih formatı. Örnekler: '25.12.2024', '25.12.2024 14:00', 'yarın', 'bugün 14:00'"

func (d *Dispatcher) handleListTasks(ctx context.Context, user *models.User, req *Request) []Reply {
	all := false
	if len(req.Args) > 0 {
		switch textutil.Fold(req.Args[0]) {
		case "tumu", "tümü", "hepsi":
			all = true
		}
	}

	tasks, err := d.Schedule.Tasks(ctx, user.ID, all)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(tasks) == 0 {
		return []Reply{text("Henüz görev bulunmuyor. /gorev_ekle komutu ile görev ekleyebilirsin.")}
	}

	msg := fmt.Sprintf("📋 *Görevleriniz* (%d adet)\n\n%s", len(tasks), formatTasks(tasks, d.Clock))
	return []Reply{markdown(limitMessage(msg, d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleToday(ctx context.Context, user *models.User, req *Request) []Reply {
	var parts []string

	tasks, err := d.Schedule.Today(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(tasks) > 0 {
		parts = append(parts, fmt.Sprintf("📅 *Bugünkü Görevler* (%d adet)\n\n%s", len(tasks), formatTasks(tasks, d.Clock)))
	} else {
		parts = append(parts, "📅 *Bugünkü Görevler*\nBugün için görev bulunmuyor. 🎉")
	}

	next, err := d.Progress.NextTopics(ctx, user.ID, d.config.NextTopicsLimit)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(next) > 0 {
		var sb strings.Builder
		sb.WriteString("📚 *Sıradaki Konular*\n")
		for i, t := range next {
			fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, t.CourseName, t.TopicTitle)
		}
		sb.WriteString("\n💡 /ogren [ders] [konu] ile öğrenmeye başla!")
		parts = append(parts, sb.String())
	}

	due, err := d.Progress.DueReviews(ctx, user.ID, d.config.ReviewsLimit)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(due) > 0 {
		parts = append(parts, "🔁 *Tekrar Zamanı*\n"+formatReviews(due)+"\n💡 /tekrar ile tüm listeyi gör")
	}

	msg := strings.Join(parts, "\n\n"+separator+"\n\n")
	return []Reply{markdown(limitMessage(msg, d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleUpcoming(ctx context.Context, user *models.User, req *Request) []Reply {
	days := d.config.UpcomingDays
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil || n < 1 || n > 365 {
			return []Reply{text("❌ Gün sayısı 1 ile 365 arasında olmalı.\nÖrnek: /yaklasan 7")}
		}
		days = n
	}

	tasks, err := d.Schedule.Upcoming(ctx, user.ID, days)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(tasks) == 0 {
		return []Reply{text(fmt.Sprintf("Önümüzdeki %d gün için görev bulunmuyor. 🎉", days))}
	}

	msg := fmt.Sprintf("🗓 *Önümüzdeki %d Gün* (%d görev)\n\n%s", days, len(tasks), formatTasks(tasks, d.Clock))
	return []Reply{markdown(limitMessage(msg, d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleCompleteTask(ctx context.Context, user *models.User, req *Request) []Reply {
	return d.taskByID(ctx, user, req, "/gorev_tamamla 3", d.Schedule.Complete, "✅ Görev tamamlandı! (ID: %d) 🎉")
}

func (d *Dispatcher) handleUncompleteTask(ctx context.Context, user *models.User, req *Request) []Reply {
	return d.taskByID(ctx, user, req, "/gorev_geri_al 3", d.Schedule.Uncomplete, "↩️ Görev tekrar açıldı (ID: %d)")
}

func (d *Dispatcher) handleDeleteTask(ctx context.Context, user *models.User, req *Request) []Reply {
	return d.taskByID(ctx, user, req, "/gorev_sil 3", d.Schedule.DeleteTask, "✅ Görev silindi (ID: %d)")
}

func (d *Dispatcher) taskByID(ctx context.Context, user *models.User, req *Request, example string,
	op func(ctx context.Context, userID, taskID int64) error, done string) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen görev ID'si girin.\nÖrnek: " + example)}
	}
	id, ok := parseID(req.Args)
	if !ok {
		return []Reply{text("❌ Geçersiz görev ID'si. Lütfen bir sayı girin.")}
	}

	if err := op(ctx, user.ID, id); err != nil {
		return []Reply{failure(err, fmt.Sprintf("❌ Görev bulunamadı (ID: %d)", id))}
	}
	return []Reply{text(fmt.Sprintf(done, id))}
}

// ============ Reminders ============

func (d *Dispatcher) handleAddReminder(ctx context.Context, user *models.User, req *Request) []Reply {
	args := req.Args
	recurrence := models.RecurrenceNone
	if len(args) > 0 {
		if r, ok := models.ParseRecurrence(args[len(args)-1]); ok {
			recurrence = r
			args = args[:len(args)-1]
		}
	}

	if len(args) < 2 {
		return []Reply{text("Lütfen mesaj ve tarih/saat girin.\nÖrnek: /hatirlatici Fizik sınavı yarın 14:00\nTekrar için sona günlük, haftalık veya aylık ekleyebilirsin.")}
	}

	args, rawDate, ok := d.splitTrailingDate(args)
	if !ok {
		return []Reply{text(msgInvalidDate)}
	}
	remindAt, _ := schedule.ParseDate(rawDate, d.Clock)

	rem, err := d.Schedule.AddReminder(ctx, user.ID, strings.Join(args, " "), remindAt, recurrence)
	if err != nil {
		if errors.Is(err, schedule.ErrEmptyTitle) {
			return []Reply{text("❌ Hatırlatıcı mesajı boş olamaz.")}
		}
		return []Reply{text("❌ Hatırlatıcı eklenirken bir hata oluştu.")}
	}

	if rem.IsRecurring && d.Reminders != nil {
		if err := d.Reminders.Schedule(ctx, *rem); err != nil {
			d.log.Error("Failed to schedule reminder", "reminder_id", rem.ID, "error", err)
		}
	}

	msg := fmt.Sprintf("⏰ Hatırlatıcı eklendi!\n📝 %s\n📅 %s", rem.Message, d.Clock.Format(rem.RemindAt))
	if label := recurrenceLabel(rem.RecurrencePattern); label != "" {
		msg += "\n🔁 " + label
	}
	if rem.RemindAt.Before(d.Clock.Now()) {
		msg += "\n⚠️ Bu zaman geçmişte, hatırlatıcı hemen gönderilecek."
	}
	return []Reply{text(msg)}
}

func (d *Dispatcher) handleListReminders(ctx context.Context, user *models.User, req *Request) []Reply {
	rems, err := d.Schedule.Reminders(ctx, user.ID)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}
	if len(rems) == 0 {
		return []Reply{text("Bekleyen hatırlatıcı yok. /hatirlatici komutu ile ekleyebilirsin.")}
	}
	return []Reply{text(limitMessage("⏰ Hatırlatıcılar\n\n"+formatReminders(rems, d.Clock), d.config.MaxMessageLength))}
}

func (d *Dispatcher) handleDeleteReminder(ctx context.Context, user *models.User, req *Request) []Reply {
	if len(req.Args) == 0 {
		return []Reply{text("Lütfen hatırlatıcı ID'si girin.\nÖrnek: /hatirlatici_sil 2")}
	}
	id, ok := parseID(req.Args)
	if !ok {
		return []Reply{text("❌ Geçersiz hatırlatıcı ID'si. Lütfen bir sayı girin.")}
	}

	if err := d.Schedule.DeleteReminder(ctx, user.ID, id); err != nil {
		return []Reply{failure(err, fmt.Sprintf("❌ Hatırlatıcı bulunamadı (ID: %d)", id))}
	}
	if d.Reminders != nil {
		d.Reminders.Unschedule(id)
	}
	return []Reply{text(fmt.Sprintf("✅ Hatırlatıcı silindi (ID: %d)", id))}
}
