package rpgtl

import "strings"

// LanguageNames maps the language codes accepted by Lingva endpoints to
// human-readable names.
var LanguageNames = map[string]string{
	"auto":    "Detect",
	"af":      "Afrikaans",
	"sq":      "Albanian",
	"am":      "Amharic",
	"ar":      "Arabic",
	"hy":      "Armenian",
	"az":      "Azerbaijani",
	"eu":      "Basque",
	"be":      "Belarusian",
	"bn":      "Bengali",
	"bs":      "Bosnian",
	"bg":      "Bulgarian",
	"ca":      "Catalan",
	"ceb":     "Cebuano",
	"zh":      "Chinese",
	"zh_HANT": "Chinese (Traditional)",
	"hr":      "Croatian",
	"cs":      "Czech",
	"da":      "Danish",
	"nl":      "Dutch",
	"en":      "English",
	"eo":      "Esperanto",
	"et":      "Estonian",
	"tl":      "Filipino",
	"fi":      "Finnish",
	"fr":      "French",
	"gl":      "Galician",
	"ka":      "Georgian",
	"de":      "German",
	"el":      "Greek",
	"gu":      "Gujarati",
	"ht":      "Haitian Creole",
	"ha":      "Hausa",
	"iw":      "Hebrew",
	"hi":      "Hindi",
	"hu":      "Hungarian",
	"is":      "Icelandic",
	"id":      "Indonesian",
	"ga":      "Irish",
	"it":      "Italian",
	"ja":      "Japanese",
	"jw":      "Javanese",
	"kn":      "Kannada",
	"kk":      "Kazakh",
	"km":      "Khmer",
	"ko":      "Korean",
	"ku":      "Kurdish",
	"lo":      "Lao",
	"la":      "Latin",
	"lv":      "Latvian",
	"lt":      "Lithuanian",
	"mk":      "Macedonian",
	"ms":      "Malay",
	"ml":      "Malayalam",
	"mt":      "Maltese",
	"mr":      "Marathi",
	"mn":      "Mongolian",
	"my":      "Myanmar (Burmese)",
	"ne":      "Nepali",
	"no":      "Norwegian",
	"fa":      "Persian",
	"pl":      "Polish",
	"pt":      "Portuguese",
	"pa":      "Punjabi",
	"ro":      "Romanian",
	"ru":      "Russian",
	"sr":      "Serbian",
	"si":      "Sinhala",
	"sk":      "Slovak",
	"sl":      "Slovenian",
	"so":      "Somali",
	"es":      "Spanish",
	"su":      "Sundanese",
	"sw":      "Swahili",
	"sv":      "Swedish",
	"tg":      "Tajik",
	"ta":      "Tamil",
	"te":      "Telugu",
	"th":      "Thai",
	"tr":      "Turkish",
	"uk":      "Ukrainian",
	"ur":      "Urdu",
	"uz":      "Uzbek",
	"vi":      "Vietnamese",
	"cy":      "Welsh",
	"yi":      "Yiddish",
	"yo":      "Yoruba",
	"zu":      "Zulu",
}

// langAliases maps common locale spellings onto Lingva codes.
var langAliases = map[string]string{
	"he":      "iw",
	"jv":      "jw",
	"nb":      "no",
	"nn":      "no",
	"fil":     "tl",
	"zh_cn":   "zh",
	"zh_hans": "zh",
	"zh_sg":   "zh",
	"zh_tw":   "zh_HANT",
	"zh_hk":   "zh_HANT",
	"zh_mo":   "zh_HANT",
	"zh_hant": "zh_HANT",
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true,
	"iw": true,
	"fa": true,
	"ur": true,
	"yi": true,
	"ku": true,
}

// NormalizeLang converts a locale such as "es_ES", "pt-BR" or "zh_TW" to
// the code Lingva expects ("es", "pt", "zh_HANT"). Unknown codes are
// lower-cased base languages.
func NormalizeLang(lang string) string {
	code := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(lang, "-", "_")))
	if code == "" {
		return ""
	}
	if alias, ok := langAliases[code]; ok {
		return alias
	}
	if _, ok := LanguageNames[code]; ok {
		return code
	}

	base := strings.Split(code, "_")[0]
	if alias, ok := langAliases[base]; ok {
		return alias
	}
	return base
}

// IsSupportedLang reports whether the normalized code is known.
func IsSupportedLang(lang string) bool {
	_, ok := LanguageNames[NormalizeLang(lang)]
	return ok
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(lang string) string {
	if name, ok := LanguageNames[NormalizeLang(lang)]; ok {
		return name
	}
	return lang
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(lang string) string {
	if RTLLanguages[NormalizeLang(lang)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(lang string) bool {
	return GetDirection(lang) == "rtl"
}

// sameLanguage reports whether translating between the two is a no-op.
func sameLanguage(source, target string) bool {
	s := NormalizeLang(source)
	if s == "" || s == AutoDetect {
		return false
	}
	return s == NormalizeLang(target)
}
