package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"catalog-sync-service/internal/models"
)

// ParsedComponent is one component parsed out of a marketplace composition
// string, before its name is matched against the composition dictionary
type ParsedComponent struct {
	Name    string
	Percent int
}

var compositionPattern = regexp.MustCompile(`^(.*?)[\s]+(\d{1,3})\s*%$`)

// ParseComposition parses a list of "name percent%" strings as they appear in
// marketplace characteristics. Entries without a percent suffix are taken as
// name-only with percent zero.
func ParseComposition(raw []string) []ParsedComponent {
	out := make([]ParsedComponent, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if m := compositionPattern.FindStringSubmatch(entry); m != nil {
			percent, _ := strconv.Atoi(m[2])
			out = append(out, ParsedComponent{Name: strings.TrimSpace(m[1]), Percent: percent})
			continue
		}
		out = append(out, ParsedComponent{Name: strings.TrimSuffix(entry, "%")})
	}
	return out
}

// RenderComposition renders composition entries back into "name percent%"
// strings, resolving component names through the given title lookup
func RenderComposition(entries []models.CompositionEntry, titleOf func(models.CompositionEntry) string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		title := titleOf(e)
		if title == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s %d%%", title, e.Percent))
	}
	return out
}

// ClampPercent caps a component's percent so the product-wide sum never
// exceeds 100. existing is the sum of all other components already accepted.
func ClampPercent(existingSum, percent int) int {
	if percent < 0 {
		return 0
	}
	if room := 100 - existingSum; percent > room {
		if room < 0 {
			return 0
		}
		return room
	}
	return percent
}

// NormalizeComposition applies the percent clamp across an ordered component
// list, preserving order; earlier components win the remaining room.
func NormalizeComposition(components []ParsedComponent) []ParsedComponent {
	out := make([]ParsedComponent, 0, len(components))
	sum := 0
	for _, c := range components {
		c.Percent = ClampPercent(sum, c.Percent)
		sum += c.Percent
		out = append(out, c)
	}
	return out
}

// NormalizeTitle lowercases and collapses whitespace for dictionary matching
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
