package domain

// Languages the UI offers as translation targets, keyed by ISO code.
var supportedLanguages = map[string]string{
	"ko": "한국어",
	"en": "영어",
	"ja": "일본어",
	"zh": "중국어",
	"es": "스페인어",
	"fr": "프랑스어",
	"de": "독일어",
	"ru": "러시아어",
	"pt": "포르투갈어",
	"it": "이탈리아어",
	"ar": "아랍어",
	"hi": "힌디어",
	"th": "태국어",
	"vi": "베트남어",
	"nl": "네덜란드어",
	"pl": "폴란드어",
	"tr": "터키어",
	"id": "인도네시아어",
	"uk": "우크라이나어",
	"sv": "스웨덴어",
}

func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// LanguageName returns the display name for a language code, falling back
// to the code itself for languages outside the curated list.
func LanguageName(code string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	return code
}

// PopularLanguages returns target-language codes in UI display order.
func PopularLanguages() []string {
	return []string{"ko", "en", "ja", "zh", "es", "fr", "de", "ru", "pt", "it"}
}
