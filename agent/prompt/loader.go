package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/welcome.txt
	welcomeRaw string
)

const restaurantPlaceholder = "{restaurant_name}"

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System  string
	Welcome string
}

// LoadPromptSet returns the embedded prompt content, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:  strings.TrimSpace(systemRaw),
		Welcome: strings.TrimSpace(welcomeRaw),
	}
}

// SystemFor renders the system instruction for a tenant.
func (p PromptSet) SystemFor(restaurantName string) string {
	return strings.ReplaceAll(p.System, restaurantPlaceholder, restaurantName)
}

// WelcomeFor renders the tenant-templated welcome message used when a
// session has no prior conversation.
func (p PromptSet) WelcomeFor(restaurantName string) string {
	return strings.ReplaceAll(p.Welcome, restaurantPlaceholder, restaurantName)
}
