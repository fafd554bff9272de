package transcribe

import "unicode"

// DetectLanguage derives a language hint from a media title. CJK
// characters in the title select Chinese; anything else falls back to
// automatic detection by the engine. The hint only steers engine
// selection and engine-side decoding, so a wrong guess degrades
// quality rather than correctness.
func DetectLanguage(title string) string {
	for _, r := range title {
		if unicode.Is(unicode.Han, r) {
			return LanguageChinese
		}
	}
	return LanguageAuto
}
