// Package prompt keeps every model prompt, canned answer and localized
// template in one place, keyed by resolved language. The two language
// variants are data, not branching logic.
package prompt

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/techmart/store-assistant/internal/core/domain"
)

//go:embed profile.yaml
var profileYAML []byte

// LocalizedStore is the per-language slice of the store profile.
type LocalizedStore struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Address  string `yaml:"address"`
	Hours    string `yaml:"hours"`
}

// StoreProfile carries the business facts injected into prompts, canned
// answers and the fallback template.
type StoreProfile struct {
	Phone       string                             `yaml:"phone"`
	Email       string                             `yaml:"email"`
	Locales     map[domain.Language]LocalizedStore `yaml:"locales"`
	Suggestions map[domain.Language][]string       `yaml:"suggestions"`
}

func (p StoreProfile) Locale(language domain.Language) LocalizedStore {
	if loc, ok := p.Locales[language]; ok {
		return loc
	}
	return p.Locales[domain.LanguageEnglish]
}

// LoadProfile parses the embedded store profile. It fails only on a broken
// build artifact, so callers treat an error as fatal at bootstrap.
func LoadProfile() (StoreProfile, error) {
	var profile StoreProfile
	if err := yaml.Unmarshal(profileYAML, &profile); err != nil {
		return StoreProfile{}, fmt.Errorf("parse store profile: %w", err)
	}
	for _, language := range []domain.Language{domain.LanguageEnglish, domain.LanguageArabic} {
		if _, ok := profile.Locales[language]; !ok {
			return StoreProfile{}, fmt.Errorf("store profile missing locale %q", language)
		}
	}
	return profile, nil
}
