package config

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Render substitutes {field} placeholders with stringified values from data.
// Unknown or nil fields render as the empty string; placeholders are never
// left literal and rendering never fails.
func Render(tpl string, data map[string]any) string {
	if tpl == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := data[key]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

// Template returns the template for a channel and tier, or "" when the
// channel or tier has no entry.
func (s *Settings) Template(channel, tier string) string {
	tiers, ok := s.Templates[channel]
	if !ok {
		return ""
	}
	return tiers[tier]
}
