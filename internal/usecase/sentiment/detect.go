package sentiment

import "strings"

// Language tags attached to classifier results
const (
	LanguageIndonesian = "id"
	LanguageEnglish    = "en"
	LanguageMixed      = "mixed"
	LanguageUnknown    = "unknown"
)

// Indonesian and English function words. Both languages are plain ASCII,
// so detection counts hits against these lists only; content words that
// appear in neither list are not counted.
var commonIndonesian = map[string]struct{}{
	"yang": {}, "dan": {}, "di": {}, "ini": {}, "itu": {}, "saya": {},
	"tidak": {}, "ada": {}, "untuk": {}, "dengan": {}, "bisa": {},
	"sudah": {}, "belum": {}, "mau": {}, "akan": {}, "dari": {}, "ke": {},
	"kami": {}, "kita": {}, "kak": {}, "nya": {}, "banget": {},
	"sangat": {}, "mohon": {}, "tolong": {}, "barang": {}, "pesanan": {},
	"kirim": {}, "sekali": {}, "juga": {}, "apa": {}, "kenapa": {},
	"bagaimana": {}, "berapa": {}, "kapan": {}, "gimana": {}, "nggak": {},
	"gak": {}, "terima": {}, "kasih": {}, "makasih": {}, "pak": {}, "bu": {},
}

var commonEnglish = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "should": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "and": {}, "or": {},
	"but": {}, "if": {}, "when": {}, "where": {}, "what": {}, "who": {},
	"which": {}, "how": {}, "why": {}, "yes": {}, "no": {}, "not": {},
	"my": {}, "your": {}, "you": {}, "i": {}, "it": {}, "please": {},
	"thanks": {}, "thank": {}, "order": {}, "with": {}, "from": {},
}

// DetectLanguage tags a message as Indonesian, English, mixed or unknown
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return LanguageUnknown
	}

	// Sample first 200 words for performance
	sampleSize := 200
	if len(words) > sampleSize {
		words = words[:sampleSize]
	}

	idWords := 0
	enWords := 0
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:'\"()")
		if _, ok := commonIndonesian[word]; ok {
			idWords++
		} else if _, ok := commonEnglish[word]; ok {
			enWords++
		}
	}

	total := idWords + enWords
	if total == 0 {
		return LanguageUnknown
	}

	idRatio := float64(idWords) / float64(total)
	enRatio := float64(enWords) / float64(total)

	// Mixed if both languages > 20%
	if idRatio > 0.2 && enRatio > 0.2 {
		return LanguageMixed
	}
	if idRatio > enRatio {
		return LanguageIndonesian
	}
	return LanguageEnglish
}
