package bot

import (
	"strings"

	"github.com/example/studybot/internal/textutil"
)

type commandHint struct {
	phrase  string
	command string
}

// Checked in order, first hit wins
var commandHints = []commandHint{
	{"not ekle", "/not_ekle"},
	{"not sil", "/not_sil"},
	{"notlarım", "/notlar"},
	{"notları göster", "/notlar"},
	{"not ara", "/not_ara"},
	{"görev ekle", "/gorev_ekle"},
	{"görev sil", "/gorev_sil"},
	{"görevlerim", "/gorevler"},
	{"görevleri göster", "/gorevler"},
	{"bugünkü görevler", "/bugun"},
	{"görev tamamla", "/gorev_tamamla"},
	{"hatırlatıcı", "/hatirlatici"},
	{"hatırlatıcı ekle", "/hatirlatici"},
	{"yardım", "/yardim"},
	{"komutlar", "/yardim"},
}

// SuggestCommand returns the command a free-text message seems to ask for
func SuggestCommand(text string) (string, bool) {
	folded := textutil.Fold(text)
	for _, h := range commandHints {
		if strings.Contains(folded, textutil.Fold(h.phrase)) {
			return h.command, true
		}
	}
	return "", false
}
