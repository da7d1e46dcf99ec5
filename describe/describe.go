// Package describe turns an item name and ingredient notes into a menu
// description. Two implementations exist behind one interface: a Gemini
// client used when an API key is configured, and a deterministic template
// used otherwise and as the fallback when the remote call fails. Callers
// never branch on whether the key is present.
package describe

import "context"

// Enhancer produces a description for a menu item.
type Enhancer interface {
	Enhance(ctx context.Context, itemName, notes string) (string, error)
}

// New selects the implementation: Gemini when apiKey is set, the local
// template otherwise.
func New(apiKey, baseURL string) Enhancer {
	if apiKey == "" {
		return Template{}
	}
	return NewGemini(apiKey, baseURL)
}

// Fallback is the deterministic description used when enhancement is
// unavailable or fails.
func Fallback(itemName, notes string) string {
	return "Delicioso " + itemName + " feito com " + notes + "."
}

// Template is the no-configuration Enhancer: always the fallback wording.
type Template struct{}

func (Template) Enhance(_ context.Context, itemName, notes string) (string, error) {
	return Fallback(itemName, notes), nil
}
