package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/textutil"
	"github.com/example/studybot/pkg/models"
)

const teacherInstruction = "Sen bir üniversite öğretmenisin. Türkçe olarak açıkla."

// Explanation is a topic lecture split into its sections
type Explanation struct {
	Explanation  string
	CodeExample  string
	KeyPoints    []string
	PracticalTip string
}

// HasCode reports whether the lecture came with a real code sample
func (e Explanation) HasCode() bool {
	code := textutil.Fold(e.CodeExample)
	return code != "" && !strings.HasPrefix(code, "kod örneği yok")
}

// Teacher produces lectures and quizzes for course topics
type Teacher struct {
	llm LLM
	log *logger.Logger
}

// NewTeacher creates a teacher
func NewTeacher(llm LLM, log *logger.Logger) *Teacher {
	return &Teacher{llm: llm, log: log.With("component", "teacher")}
}

var levels = map[string]string{
	"beginner":     "başlangıç",
	"intermediate": "orta",
	"advanced":     "ileri",
}

// ExplainTopic asks for a sectioned lecture on topic
func (t *Teacher) ExplainTopic(ctx context.Context, course, topic, level string) (*Explanation, error) {
	seviye, ok := levels[level]
	if !ok {
		seviye = levels["beginner"]
	}

	prompt := fmt.Sprintf(`Ders: %s
Konu: %s
Seviye: %s

Lütfen şu formatta açıkla:

## KONU ANLATIMI
[Detaylı, anlaşılır açıklama. Örneklerle anlat.]

## KOD ÖRNEĞİ
[Python/JavaScript/C++ kod örneği. Yorumlu ve çalışır kod. Kod yoksa "Kod örneği yok." yaz.]

## ÖNEMLİ NOKTALAR
- [Nokta 1]
- [Nokta 2]
- [Nokta 3]

## PRATİK İPUCU
[Gerçek hayat uygulaması veya hatırlatma]
`, course, topic, seviye)

	text, err := t.llm.Generate(ctx, teacherInstruction, nil, prompt)
	if err != nil {
		t.log.Error("Explanation failed", "course", course, "topic", topic, "error", err)
		return nil, err
	}

	exp := ParseExplanation(text)
	return &exp, nil
}

var headingRe = regexp.MustCompile(`(?m)^##[ \t]*(.+?)[ \t]*$`)

// ParseExplanation splits a "## HEADING" formatted reply into sections.
// When no lecture section is found the whole text becomes the explanation.
func ParseExplanation(text string) Explanation {
	var exp Explanation

	heads := headingRe.FindAllStringSubmatchIndex(text, -1)
	for i, h := range heads {
		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		body := strings.TrimSpace(text[h[1]:end])

		switch name := textutil.Fold(text[h[2]:h[3]]); {
		case strings.Contains(name, "konu anlatimi"):
			exp.Explanation = body
		case strings.Contains(name, "kod örneği"):
			exp.CodeExample = stripFence(body)
		case strings.Contains(name, "önemli noktalar"):
			exp.KeyPoints = bulletLines(body)
		case strings.Contains(name, "pratik ipucu"):
			exp.PracticalTip = body
		}
	}

	if exp.Explanation == "" {
		exp.Explanation = strings.TrimSpace(text)
	}
	return exp
}

func bulletLines(raw string) []string {
	var points []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•* "))
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}

// stripFence drops a surrounding ``` block so the caller can re-fence it
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}

// GenerateQuiz asks for n multiple-choice questions on topic
func (t *Teacher) GenerateQuiz(ctx context.Context, course, topic string, n int) ([]models.QuizQuestion, error) {
	prompt := fmt.Sprintf(`%s - %s konusu için %d adet çoktan seçmeli soru oluştur.

Sadece JSON formatında döndür, başka hiçbir şey yazma:
[
  {
    "question": "Soru metni",
    "options": ["A) Şık 1", "B) Şık 2", "C) Şık 3", "D) Şık 4"],
    "correct": "A",
    "explanation": "Neden A doğru?"
  }
]
`, course, topic, n)

	text, err := t.llm.Generate(ctx, teacherInstruction, nil, prompt)
	if err != nil {
		t.log.Error("Quiz generation failed", "course", course, "topic", topic, "error", err)
		return nil, err
	}

	questions, err := ParseQuiz(text)
	if err != nil {
		t.log.Error("Quiz JSON could not be parsed", "course", course, "topic", topic, "error", err)
		return nil, err
	}
	return questions, nil
}

var requiredQuestionKeys = []string{"question", "options", "correct", "explanation"}

// ParseQuiz extracts the JSON array from a reply. Questions missing a
// required field or without options are dropped.
func ParseQuiz(text string) ([]models.QuizQuestion, error) {
	raw := strings.TrimSpace(text)
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to parse quiz: %w", err)
	}

	questions := make([]models.QuizQuestion, 0, len(items))
	for _, item := range items {
		if !hasKeys(item, requiredQuestionKeys) {
			continue
		}

		var q models.QuizQuestion
		if json.Unmarshal(item["question"], &q.Question) != nil ||
			json.Unmarshal(item["options"], &q.Options) != nil ||
			json.Unmarshal(item["correct"], &q.Correct) != nil ||
			json.Unmarshal(item["explanation"], &q.Explanation) != nil {
			continue
		}

		q.Correct = strings.ToUpper(strings.TrimSpace(q.Correct))
		if len(q.Options) == 0 || q.Correct == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func hasKeys(m map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
