package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

// SystemInstruction sets the assistant's persona for every chat call
const SystemInstruction = `Sen yardımsever bir Türkçe asistansın. Öğrencilere ders konularında yardımcı oluyorsun.
Görevlerin:
- Ders sorularını açık ve anlaşılır şekilde yanıtlamak
- Not özetleme ve açıklama yapmak
- Öğrenme sürecinde rehberlik etmek
- Türkçe ve nazik bir dil kullanmak
Eğer kullanıcı not veya görev eklemek istiyorsa ilgili komutları öner (/not_ekle, /gorev_ekle gibi).

Her zaman yapıcı, teşvik edici ve eğitici ol.`

// ChatLog is the conversation store the assistant reads and appends to
type ChatLog interface {
	Append(ctx context.Context, userID int64, role models.ChatRole, text string) error
	Context(ctx context.Context, userID int64, limit int) ([]models.Turn, error)
}

// Assistant is the conversational front of the bot
type Assistant struct {
	llm  LLM
	chat ChatLog
	log  *logger.Logger
}

// NewAssistant creates an assistant
func NewAssistant(llm LLM, chat ChatLog, log *logger.Logger) *Assistant {
	return &Assistant{llm: llm, chat: chat, log: log.With("component", "assistant")}
}

// Chat answers message using the user's recent turns as context. The user
// turn is recorded before the call and the reply after it, so a failed call
// leaves only the question behind.
func (a *Assistant) Chat(ctx context.Context, userID int64, message string) (string, error) {
	history, err := a.chat.Context(ctx, userID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to load chat context: %w", err)
	}

	if err := a.chat.Append(ctx, userID, models.RoleUser, message); err != nil {
		return "", fmt.Errorf("failed to record user message: %w", err)
	}

	reply, err := a.llm.Generate(ctx, SystemInstruction, history, message)
	if err != nil {
		a.log.Error("LLM call failed", "user_id", userID, "error", err)
		return "", err
	}

	if err := a.chat.Append(ctx, userID, models.RoleModel, reply); err != nil {
		a.log.Error("Failed to record model reply", "user_id", userID, "error", err)
	}

	a.log.Info("Reply generated", "user_id", userID, "turns", len(history))
	return reply, nil
}

// SummarizeNotes asks for a structured summary of the given notes
func (a *Assistant) SummarizeNotes(ctx context.Context, notes []models.Note) (string, error) {
	if len(notes) == 0 {
		return "", fmt.Errorf("no notes to summarize")
	}

	var sb strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&sb, "[%s] %s\n", n.Category, n.Content)
	}

	prompt := "Aşağıdaki notları özetle. Önemli noktaları vurgula ve düzenli bir şekilde sun:\n\n" +
		sb.String() + "\nÖzet:"
	return a.llm.Generate(ctx, SystemInstruction, nil, prompt)
}

// StudyPlan asks for a day-by-day plan for subject
func (a *Assistant) StudyPlan(ctx context.Context, subject string, days int) (string, error) {
	prompt := fmt.Sprintf(`"%s" konusu için %d günlük bir çalışma planı oluştur.

Plan:
- Günlük hedefler
- Çalışma süreleri
- Önerilen kaynaklar
- Tekrar zamanları

Çalışma Planı:`, subject, days)
	return a.llm.Generate(ctx, SystemInstruction, nil, prompt)
}
