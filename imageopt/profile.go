// Package imageopt converts PNG and JPEG assets to WebP and reports the
// bytes saved.
package imageopt

import (
	"fmt"
	"strings"
)

// Class names the compression profile a file was matched to.
type Class string

const (
	ClassLossless   Class = "lossless"
	ClassBackground Class = "background"
	ClassDefault    Class = "default"
)

// Profile is the encoder setting for one file. Quality is ignored when
// Lossless is set.
type Profile struct {
	Lossless bool
	Quality  int
}

func (p Profile) String() string {
	if p.Lossless {
		return "lossless"
	}
	return fmt.Sprintf("quality: %d", p.Quality)
}

// Rule maps filename keywords to a profile. A rule with no keywords matches
// every name.
type Rule struct {
	Class    Class
	Keywords []string
	Profile  Profile
}

func (r Rule) matches(lowerName string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// DefaultRules rank charts and screenshots over backgrounds over
// everything else. Numbers in screenshots must stay sharp, backgrounds
// tolerate heavy compression.
var DefaultRules = []Rule{
	{
		Class:    ClassLossless,
		Keywords: []string{"print", "dashboard", "resultado", "grafico"},
		Profile:  Profile{Lossless: true},
	},
	{
		Class:    ClassBackground,
		Keywords: []string{"bg", "fundo", "background"},
		Profile:  Profile{Quality: 65},
	},
	{
		Class:   ClassDefault,
		Profile: Profile{Quality: 80},
	},
}

// Classify returns the first rule whose keywords occur in filename, ignoring
// case. When nothing matches, including an empty table, it returns the
// default quality-80 rule.
func Classify(rules []Rule, filename string) Rule {
	lower := strings.ToLower(filename)
	for _, r := range rules {
		if r.matches(lower) {
			return r
		}
	}
	return DefaultRules[len(DefaultRules)-1]
}
