package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "ileri programlama", Fold("İleri Programlama"))
	assert.Equal(t, "ileri", Fold("ILERI"))
	assert.Equal(t, "ai'ya giriş", Fold("AI'ya Giriş"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Yapay Zeka Uygulamaları", "yapay zeka"))
	assert.True(t, ContainsFold("İleri Programlama", "ileri"))
	assert.False(t, ContainsFold("Sayısal Tasarım", "zeka"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Matematik", Capitalize("  matematik "))
	assert.Equal(t, "İngilizce", Capitalize("iNGİLİZCE"))
	assert.Equal(t, "", Capitalize("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "kısa", Truncate("kısa", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}

func TestArgsToName(t *testing.T) {
	assert.Equal(t, "Yapay Zeka", ArgsToName([]string{"Yapay_Zeka"}))
	assert.Equal(t, "Gradient Descent", ArgsToName([]string{"Gradient", "Descent"}))
}
