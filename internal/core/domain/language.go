package domain

// Language identifies one of the two languages the assistant supports.
// English is the primary language and the default for undetectable input.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"

	// LanguageAuto is only valid as an inbound hint, never as a resolved value.
	LanguageAuto Language = "auto"
)

func (l Language) Supported() bool {
	return l == LanguageEnglish || l == LanguageArabic
}
