package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/example/studybot/internal/excel"
	"github.com/example/studybot/internal/upscale"
	"github.com/example/studybot/pkg/models"
)

func (d *Dispatcher) handleUpscale(ctx context.Context, user *models.User, req *Request) []Reply {
	if d.Upscale == nil {
		return []Reply{text("❌ Görüntü yükseltme özelliği şu anda kullanılamıyor.\nLütfen daha sonra tekrar deneyin.")}
	}

	d.setAwaiting(d.awaitingUpscale, req.TelegramID, true)
	return []Reply{text("📸 Lütfen kalitesini artırmak istediğiniz fotoğrafı gönderin.\n\n✨ Çözünürlük 4x artırılacak!\n⏱️ İşlem 10-15 saniye sürer.")}
}

func (d *Dispatcher) handleUpscaleHelp(ctx context.Context, user *models.User, req *Request) []Reply {
	return []Reply{markdown(`🎨 *Görüntü Yükseltme Sistemi* (Replicate AI)

📸 *Komutlar:*
/upscale - Fotoğraf kalitesini artır (4x!)
/upscale_yardim - Bu yardım mesajı

✨ *Nasıl Kullanılır:*
1. /upscale komutunu yazın
2. Fotoğrafınızı gönderin
3. 10-15 saniye bekleyin
4. Süper kaliteli fotoğrafı alın!

📊 *Özellikler:*
- 🚀 *4x çözünürlük artırma* (800x600 → 3200x2400!)
- ✨ Gelişmiş AI (Real-ESRGAN)
- 🎨 Netlik iyileştirme
- 🔇 Gürültü azaltma

⚠️ *Limitler:*
- Max dosya boyutu: 10 MB
- Format: JPG, PNG, WebP

🏆 *Powered by Replicate AI*`)}
}

// HandlePhoto processes a photo the user sent. It is upscaled when the
// user asked for it with /upscale, otherwise the bot points at the command.
func (d *Dispatcher) HandlePhoto(ctx context.Context, req *Request, fileURL string, fileSize int) []Reply {
	if !d.takeAwaiting(d.awaitingUpscale, req.TelegramID) {
		if d.Upscale != nil {
			return []Reply{text("📸 Fotoğraf aldım!\n\nNe yapmak istersiniz?\n/upscale - Kaliteyi artır (4x)")}
		}
		return []Reply{text("📸 Fotoğraf aldım! Ancak görüntü işleme özellikleri şu anda kullanılamıyor.")}
	}
	if d.Upscale == nil {
		return []Reply{text("❌ Görüntü yükseltme özelliği şu anda kullanılamıyor.")}
	}
	if fileSize > upscale.MaxImageSize {
		return []Reply{text("❌ Fotoğraf 10MB'dan küçük olmalı.")}
	}

	req.progress(text("🔄 İşleniyor...\n⏱️ Bu 10-15 saniye sürebilir, lütfen bekleyin."))

	res, err := d.Upscale.Process(ctx, fileURL)
	if err != nil {
		d.log.Error("Upscale failed", "telegram_id", req.TelegramID, "error", err)
		return []Reply{text("😔 Bir hata oluştu. Lütfen tekrar deneyin.\n\nİpuçları:\n- Fotoğraf 10MB'dan küçük olmalı\n- JPG veya PNG formatında olmalı")}
	}

	var sb strings.Builder
	sb.WriteString("✨ Görüntü yükseltildi! (Replicate AI)\n\n")
	if res.Before.Width > 0 {
		fmt.Fprintf(&sb, "📊 Öncesi: %s\n", res.Before)
	}
	if res.After.Width > 0 {
		fmt.Fprintf(&sb, "📊 Sonrası: %s\n", res.After)
	}
	sb.WriteString("🎨 Kalite artışı: ~4x\n\n💡 Başka bir fotoğraf için /upscale yazın.\n🏆 Powered by Real-ESRGAN")

	return []Reply{{Text: sb.String(), Photo: res.Image}}
}

func (d *Dispatcher) handleImportCourses(ctx context.Context, user *models.User, req *Request) []Reply {
	d.setAwaiting(d.awaitingImport, req.TelegramID, true)
	return []Reply{markdown(`📥 *Ders İçe Aktarma*

Ders listesini içeren bir .xlsx veya .csv dosyası gönder.

Sütunlar (ilk satır başlık):
A - Ders adı
B - Açıklama
C - Hafta
D - Konu

Aynı dersin her konusu ayrı bir satırda olmalı. Mevcut dersler ve ilerlemen korunur.`)}
}

// HandleDocument imports a course catalogue the user uploaded after
// /ders_ice_aktar. Other documents are ignored with a hint. fetch is only
// called once the upload is known to be wanted and small enough.
func (d *Dispatcher) HandleDocument(ctx context.Context, req *Request, name string, size int, fetch func() ([]byte, error)) []Reply {
	if !d.takeAwaiting(d.awaitingImport, req.TelegramID) {
		return []Reply{text("📎 Dosya aldım. Ders listesi yüklemek için önce /ders_ice_aktar yazabilirsin.")}
	}

	limit := excel.MaxFileSize
	if d.config.MaxDocumentSize > 0 && d.config.MaxDocumentSize < limit {
		limit = d.config.MaxDocumentSize
	}
	if size > limit {
		return []Reply{text(fmt.Sprintf("❌ Dosya %d MB'dan küçük olmalı.", limit>>20))}
	}

	data, err := fetch()
	if err != nil {
		d.log.Error("Failed to download document", "telegram_id", req.TelegramID, "file", name, "error", err)
		return []Reply{text("❌ Dosya indirilemedi. Lütfen tekrar deneyin.")}
	}
	if len(data) > limit {
		return []Reply{text(fmt.Sprintf("❌ Dosya %d MB'dan küçük olmalı.", limit>>20))}
	}

	user, err := d.user(ctx, req.Sender)
	if err != nil {
		return []Reply{text(msgGenericError)}
	}

	result, err := excel.ImportReader(bytes.NewReader(data), name, excel.DefaultImportConfig())
	if err != nil {
		d.log.Warn("Catalogue import failed", "telegram_id", req.TelegramID, "file", name, "error", err)
		return []Reply{text("❌ Dosya okunamadı. Lütfen .xlsx veya .csv formatında bir dosya gönderin.")}
	}
	if len(result.Courses) == 0 {
		return []Reply{text("❌ Dosyada ders bulunamadı. Sütunları kontrol edin: A=Ders, B=Açıklama, C=Hafta, D=Konu")}
	}

	loaded, err := d.Progress.LoadCourses(ctx, user.ID, result.Courses)
	if err != nil {
		return []Reply{text("❌ Dersler yüklenirken bir hata oluştu.")}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ İçe aktarma tamamlandı!\n\n📚 Dosyadaki dersler: %d\n📖 Konular: %d\n🆕 Yeni ders: %d\n🆕 Yeni konu: %d\n",
		len(result.Courses), result.TopicCount(), loaded.CoursesAdded, loaded.TopicsAdded)
	if result.Skipped > 0 {
		fmt.Fprintf(&sb, "⏭ Atlanan satır: %d\n", result.Skipped)
	}
	if len(result.Errors) > 0 {
		sb.WriteString("\n⚠️ Uyarılar:\n")
		for i, e := range result.Errors {
			if i == 5 {
				fmt.Fprintf(&sb, "... ve %d uyarı daha\n", len(result.Errors)-5)
				break
			}
			sb.WriteString("• " + e + "\n")
		}
	}
	sb.WriteString("\n💡 /dersler ile derslerini görebilirsin.")
	return []Reply{text(sb.String())}
}
