package bcd

import (
	"os"
	"strings"
)

// LocaleCode identifies one of the display languages the external tool is
// known to emit property names in.
type LocaleCode string

const (
	LocaleEN LocaleCode = "en"
	LocaleDE LocaleCode = "de"
	LocaleFR LocaleCode = "fr"
	LocaleES LocaleCode = "es"
)

// propertyTranslations maps canonical property keys to the display tokens
// each supported locale's tool build prints them as. Canonical keys double
// as the English tokens, except the boot-manager term, which is matched
// against the section heading the tool prints rather than a property key.
var propertyTranslations = map[LocaleCode]map[string]string{
	LocaleEN: {
		"identifier":   "identifier",
		"device":       "device",
		"path":         "path",
		"description":  "description",
		"type":         "type",
		"default":      "default",
		"bootmgr":      "boot manager",
		"timeout":      "timeout",
		"displayorder": "displayorder",
		"osdevice":     "osdevice",
	},
	LocaleDE: {
		"identifier":   "bezeichner",
		"device":       "gerät",
		"path":         "pfad",
		"description":  "beschreibung",
		"type":         "typ",
		"default":      "standard",
		"bootmgr":      "start-manager",
		"timeout":      "zeitlimit",
		"displayorder": "anzeigereihenfolge",
		"osdevice":     "osgerät",
	},
	LocaleFR: {
		"identifier":   "identificateur",
		"device":       "périphérique",
		"path":         "chemin",
		"description":  "description",
		"type":         "type",
		"default":      "défaut",
		"bootmgr":      "gestionnaire de démarrage",
		"timeout":      "délai d'attente",
		"displayorder": "ordre d'affichage",
		"osdevice":     "périphérique os",
	},
	LocaleES: {
		"identifier":   "identificador",
		"device":       "dispositivo",
		"path":         "ruta",
		"description":  "descripción",
		"type":         "tipo",
		"default":      "predeterminado",
		"bootmgr":      "administrador de arranque",
		"timeout":      "tiempo de espera",
		"displayorder": "orden de visualización",
		"osdevice":     "dispositivo del so",
	},
}

// SupportedLocales lists the locales with a translation table, base locale
// first.
func SupportedLocales() []LocaleCode {
	return []LocaleCode{LocaleEN, LocaleDE, LocaleFR, LocaleES}
}

// ResolveLocale picks the best supported locale for a system locale string
// such as "de_DE.UTF-8" or "fr-FR" by prefix match. Unknown or empty input
// resolves to English.
func ResolveLocale(systemLocale string) LocaleCode {
	lowered := strings.ToLower(systemLocale)
	for _, code := range SupportedLocales() {
		if strings.HasPrefix(lowered, string(code)) {
			return code
		}
	}
	return LocaleEN
}

// DetectSystemLocale reads the process-wide locale setting. Resolution and
// translation are driven by the value captured here once at startup; nothing
// else reads ambient locale state.
func DetectSystemLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Translate returns the locale's display token for a canonical property key.
// Untranslated keys degrade to the canonical key itself; translation never
// fails.
func (l LocaleCode) Translate(key string) string {
	table, ok := propertyTranslations[l]
	if !ok {
		return key
	}
	if token, ok := table[strings.ToLower(key)]; ok {
		return token
	}
	return key
}
