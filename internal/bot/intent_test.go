package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		command string
		ok      bool
	}{
		{"note", "bir not ekle", "/not_ekle", true},
		{"uppercase", "GÖREV EKLE", "/gorev_ekle", true},
		{"my notes", "notlarımı göster", "/notlar", true},
		{"today", "Bugünkü görevler neler?", "/bugun", true},
		{"reminder", "hatırlatıcı ekle yarın için", "/hatirlatici", true},
		{"help", "komutlar", "/yardim", true},
		{"question", "Pisagor teoremi nedir?", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, ok := SuggestCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.command, command)
		})
	}
}
