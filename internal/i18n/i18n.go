// Package i18n holds the user-facing message catalogue.
package i18n

import (
	"sync"

	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// Supported languages.
const (
	LangEsES = "es-ES"
	LangEnUS = "en-US"
)

var (
	instance *I18n
	once     sync.Once

	translations = map[string]map[string]string{
		LangEsES: {
			"success":               "Éxito",
			"internal_server_error": "Error interno del servidor",
			"invalid_params":        "Parámetros inválidos",
			"unauthorized":          "No autorizado",
			"forbidden":             "Acceso denegado",
			"not_found":             "Recurso no encontrado",
			"payload_too_large":     "El archivo supera el tamaño máximo permitido",

			"video_not_found":       "Video no encontrado",
			"video_file_missing":    "No se recibió ningún archivo de video",
			"video_upload_failed":   "Error al subir el video",
			"video_save_failed":     "Error al guardar en la base de datos",
			"video_list_failed":     "Error al obtener videos de la base de datos",
			"video_update_failed":   "Error al actualizar el video",
			"video_delete_failed":   "Error al eliminar el video",
			"storage_delete_failed": "Error al eliminar el archivo del almacenamiento",

			"unknown_error": "Error desconocido",
		},
		LangEnUS: {
			"success":               "Success",
			"internal_server_error": "Internal Server Error",
			"invalid_params":        "Invalid Parameters",
			"unauthorized":          "Unauthorized",
			"forbidden":             "Access Denied",
			"not_found":             "Resource Not Found",
			"payload_too_large":     "File exceeds the maximum allowed size",

			"video_not_found":       "Video not found",
			"video_file_missing":    "No video file was received",
			"video_upload_failed":   "Failed to upload the video",
			"video_save_failed":     "Failed to save to the database",
			"video_list_failed":     "Failed to load videos from the database",
			"video_update_failed":   "Failed to update the video",
			"video_delete_failed":   "Failed to delete the video",
			"storage_delete_failed": "Failed to delete the stored file",

			"unknown_error": "Unknown Error",
		},
	}
)

// I18n resolves message keys per language.
type I18n struct {
	mu          sync.RWMutex
	translators map[string]ut.Translator
	defaultLang string
}

// GetInstance returns the process-wide catalogue.
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangEsES,
		}
		instance.initTranslators()
	})
	return instance
}

func (i *I18n) initTranslators() {
	esLocale := es.New()
	enUS := en_US.New()
	uni := ut.New(esLocale, esLocale, enUS)

	langMappings := map[string]string{
		LangEsES: "es",
		LangEnUS: "en_US",
	}

	for ourLang, localeLang := range langMappings {
		trans, found := uni.GetTranslator(localeLang)
		if !found {
			logger.Errorf("translator not found for %s (locale %s)", ourLang, localeLang)
			continue
		}
		i.translators[ourLang] = trans
	}
}

// Translate returns the message for key in lang, falling back to the
// default language and finally to the key itself.
func (i *I18n) Translate(key, lang string) string {
	i.mu.RLock()
	defaultLang := i.defaultLang
	i.mu.RUnlock()

	if _, ok := i.translators[lang]; !ok {
		lang = defaultLang
	}

	if translation, found := translations[lang][key]; found {
		return translation
	}
	if lang != defaultLang {
		if translation, found := translations[defaultLang][key]; found {
			return translation
		}
	}

	logger.Warnf("missing translation: %s (%s)", key, lang)
	return key
}

// SetDefaultLanguage changes the fallback language. Unsupported values are ignored.
func (i *I18n) SetDefaultLanguage(lang string) {
	if !i.IsSupportedLanguage(lang) {
		logger.Warnf("unsupported language %q, keeping %s", lang, i.GetDefaultLanguage())
		return
	}
	i.mu.Lock()
	i.defaultLang = lang
	i.mu.Unlock()
}

// GetDefaultLanguage returns the fallback language.
func (i *I18n) GetDefaultLanguage() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.defaultLang
}

// IsSupportedLanguage reports whether lang has a translator.
func (i *I18n) IsSupportedLanguage(lang string) bool {
	_, exists := i.translators[lang]
	return exists
}
