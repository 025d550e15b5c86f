package prompt

import (
	"fmt"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// Catalog renders every prompt and template from the store profile.
type Catalog struct {
	profile StoreProfile
}

func NewCatalog(profile StoreProfile) *Catalog {
	return &Catalog{profile: profile}
}

// AnalysisPrompt instructs the model to extract a strict JSON analysis
// record from the customer question.
func (c *Catalog) AnalysisPrompt(question string) string {
	const maxQuestion = 1000
	if runes := []rune(question); len(runes) > maxQuestion {
		question = string(runes[:maxQuestion])
	}

	return fmt.Sprintf(`Analyze this retail customer question and return a strict JSON object.
Keys:
intent (one of: product_inquiry, price_check, availability, policy, support, service, comparison, recommendation, greeting, general),
entities (object with arrays: products, brands, categories, services, store_info_topics; optional price_range object with min and max numbers),
urgency (low|medium|high),
complexity (simple|moderate|complex),
requires_real_time_data (boolean).
No markdown, no code fences, no extra keys.

Question: %q`, question)
}

var systemTemplates = map[domain.Language]string{
	domain.LanguageEnglish: `You are a customer service assistant for %s in %s.

CRITICAL INSTRUCTIONS - cannot be ignored:
1. Write your response in English only.
2. Do not use any Arabic words, even if the provided data is in Arabic.

Store information:
- Name: %s
- Phone: %s
- Email: %s
- Address: %s
- Hours: %s

Response rules:
- Quote prices in Jordanian Dinars (JOD).
- Be accurate, polite and professional.
- If you do not know something, say "I don't have that information, please contact the store".`,

	domain.LanguageArabic: `أنت مساعد ذكي لخدمة العملاء في %s في %s.

تعليمات إلزامية - لا يمكن تجاهلها:
1. اكتب إجابتك بالعربية فقط.
2. لا تستخدم أي كلمة بالإنجليزية حتى لو كانت البيانات بالإنجليزية.

معلومات المتجر:
- الاسم: %s
- الهاتف: %s
- البريد: %s
- العنوان: %s
- ساعات العمل: %s

قواعد الإجابة:
- اذكر الأسعار بالدينار الأردني.
- كن دقيقاً ومهذباً ومهنياً.
- إذا لم تعرف الإجابة قل "لا أعرف هذه المعلومة، يرجى الاتصال بالمتجر".`,
}

// SystemPrompt selects one of the two fixed system templates purely by
// resolved language. There is no blending.
func (c *Catalog) SystemPrompt(language domain.Language) string {
	loc := c.profile.Locale(language)
	template, ok := systemTemplates[language]
	if !ok {
		template = systemTemplates[domain.LanguageEnglish]
		loc = c.profile.Locale(domain.LanguageEnglish)
	}
	return fmt.Sprintf(template, loc.Name, loc.Location, loc.Name, c.profile.Phone, c.profile.Email, loc.Address, loc.Hours)
}

var userTemplates = map[domain.Language]string{
	domain.LanguageEnglish: `Question: %s

%s
IMPORTANT:
- Answer in English only.
- Use the data above; include current pricing and availability when you reference products.
- Cite the relevant source when you mention policies or procedures.

Your response must be in English only.`,

	domain.LanguageArabic: `السؤال: %s

%s
تعليمات مهمة جداً:
- اكتب إجابتك بالعربية فقط ولا تستخدم أي كلمة بالإنجليزية.
- استخدم البيانات أعلاه، واذكر السعر الحالي والتوفر عند الإشارة إلى المنتجات.
- اذكر المصدر عند الإشارة إلى السياسات أو الإجراءات.

يجب أن تكون إجابتك بالعربية فقط!`,
}

// UserPrompt embeds the question and the assembled context, restating the
// language requirement.
func (c *Catalog) UserPrompt(language domain.Language, question, contextText string) string {
	template, ok := userTemplates[language]
	if !ok {
		template = userTemplates[domain.LanguageEnglish]
	}
	if strings.TrimSpace(contextText) != "" {
		contextText = contextText + "\n"
	}
	return fmt.Sprintf(template, question, contextText)
}

// Arabic topic keywords for the canned-answer tier of the correction path.
var (
	arabicHoursWords   = []string{"ساعات", "العمل", "فتح", "مفتوح", "دوام"}
	arabicContactWords = []string{"اتصال", "هاتف", "رقم", "تواصل", "عنوان"}
)

// CannedAnswer returns a pre-written Arabic answer when the question matches
// a recognized topic. It is the first tier of the forced-language path and
// costs no model call.
func (c *Catalog) CannedAnswer(language domain.Language, question string) (string, bool) {
	if language != domain.LanguageArabic {
		return "", false
	}
	loc := c.profile.Locale(domain.LanguageArabic)

	for _, word := range arabicHoursWords {
		if strings.Contains(question, word) {
			return fmt.Sprintf(`ساعات عمل متجر %s:

%s

للاستفسارات: %s
العنوان: %s`, loc.Name, loc.Hours, c.profile.Phone, loc.Address), true
		}
	}
	for _, word := range arabicContactWords {
		if strings.Contains(question, word) {
			return fmt.Sprintf(`معلومات التواصل مع %s:

الهاتف: %s
البريد الإلكتروني: %s
العنوان: %s

ساعات العمل: %s`, loc.Name, c.profile.Phone, c.profile.Email, loc.Address, loc.Hours), true
		}
	}
	return "", false
}

// ForcedPrompt is the minimal, strongly-worded single-language re-prompt
// used when the first Arabic answer failed verification.
func (c *Catalog) ForcedPrompt(question string) string {
	return fmt.Sprintf(`أجب على هذا السؤال بالعربية فقط:

السؤال: %s

قواعد:
- اكتب بالعربية فقط ولا تستخدم الإنجليزية.
- كن مفيداً ومهذباً.
- للمزيد من المعلومات: %s

الإجابة بالعربية:`, question, c.profile.Phone)
}

// GenericAnswer is the last tier of the correction path: a fixed localized
// greeting with contact details.
func (c *Catalog) GenericAnswer(language domain.Language) string {
	loc := c.profile.Locale(language)
	if language == domain.LanguageArabic {
		return fmt.Sprintf(`أهلاً وسهلاً بك في %s.

للحصول على المساعدة:
الهاتف: %s
البريد: %s
العنوان: %s

نحن هنا لخدمتك!`, loc.Name, c.profile.Phone, c.profile.Email, loc.Address)
	}
	return fmt.Sprintf(`Welcome to %s.

For assistance:
Phone: %s
Email: %s
Address: %s

We are here to help!`, loc.Name, c.profile.Phone, c.profile.Email, loc.Address)
}

// Fallback is the apology-and-contact answer returned for fatal pipeline
// failures.
func (c *Catalog) Fallback(language domain.Language) string {
	loc := c.profile.Locale(language)
	if language == domain.LanguageArabic {
		return fmt.Sprintf(`عذراً، أواجه صعوبة تقنية في معالجة طلبك حالياً.

للمساعدة:
الهاتف: %s
البريد: %s
العنوان: %s

ساعات العمل: %s`, c.profile.Phone, c.profile.Email, loc.Address, loc.Hours)
	}
	return fmt.Sprintf(`I apologize, but I'm experiencing technical difficulties processing your request right now.

For assistance:
Phone: %s
Email: %s
Address: %s

Store hours: %s`, c.profile.Phone, c.profile.Email, loc.Address, loc.Hours)
}

// Suggestions returns the canned follow-up questions for a language.
func (c *Catalog) Suggestions(language domain.Language) []string {
	if list, ok := c.profile.Suggestions[language]; ok {
		return list
	}
	return c.profile.Suggestions[domain.LanguageEnglish]
}
