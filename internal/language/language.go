package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1, the form whisper's --language expects
	code3   string   // ISO 639-2
	display string   // Human-readable name
	words   []string // Lowercase names users type in config files
}

var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
	{"bn", "ben", "Bengali", []string{"bengali", "bangla"}},
	{"ta", "tam", "Tamil", []string{"tamil"}},
	{"te", "tel", "Telugu", []string{"telugu"}},
	{"mr", "mar", "Marathi", []string{"marathi"}},
	{"gu", "guj", "Gujarati", []string{"gujarati"}},
	{"kn", "kan", "Kannada", []string{"kannada"}},
	{"ml", "mal", "Malayalam", []string{"malayalam"}},
	{"pa", "pan", "Punjabi", []string{"punjabi", "panjabi"}},
	{"ur", "urd", "Urdu", []string{"urdu"}},
	{"es", "spa", "Spanish", []string{"spanish"}},
	{"fr", "fra", "French", []string{"french"}},
	{"de", "deu", "German", []string{"german"}},
	{"it", "ita", "Italian", []string{"italian"}},
	{"pt", "por", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "Korean", []string{"korean"}},
	{"zh", "zho", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
	{"nl", "nld", "Dutch", []string{"dutch"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return byWord[code]
}

// ToISO2 converts a known code or language name to ISO 639-1. Unknown
// two-letter codes pass through so whisper can judge them; anything else
// yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable name. Empty input means whisper
// detects the language itself.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "auto-detect"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
