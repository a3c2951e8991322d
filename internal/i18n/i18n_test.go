package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tr := GetInstance()

	assert.True(t, tr.IsSupportedLanguage(LangEsES))
	assert.True(t, tr.IsSupportedLanguage(LangEnUS))
	assert.False(t, tr.IsSupportedLanguage("fr-FR"))

	assert.Equal(t, "Video no encontrado", tr.Translate("video_not_found", LangEsES))
	assert.Equal(t, "Video not found", tr.Translate("video_not_found", LangEnUS))

	// unsupported language falls back to the default
	assert.Equal(t, tr.Translate("forbidden", tr.GetDefaultLanguage()), tr.Translate("forbidden", "fr-FR"))

	// unknown key comes back verbatim
	assert.Equal(t, "no_such_key", tr.Translate("no_such_key", LangEnUS))
}

func TestSetDefaultLanguage(t *testing.T) {
	tr := GetInstance()
	original := tr.GetDefaultLanguage()
	defer tr.SetDefaultLanguage(original)

	tr.SetDefaultLanguage(LangEnUS)
	assert.Equal(t, LangEnUS, tr.GetDefaultLanguage())

	tr.SetDefaultLanguage("xx-XX")
	assert.Equal(t, LangEnUS, tr.GetDefaultLanguage())
}
