// Package archetype classifies decklists into named strategies using
// declarative, ordered rule sets.
package archetype

import (
	"fmt"

	"github.com/mtgtools/metagame/internal/deck"
)

// Classification is the pure derivation of a decklist's archetype label.
// It is never mutated after creation.
type Classification struct {
	DecklistID  string
	Archetype   string // base archetype name, "" when no rule matched
	Variant     string // matched variant name, "" when none
	ColorCode   string
	DisplayName string // composed label, "" when no rule matched
}

// Matched reports whether any archetype rule matched.
func (c Classification) Matched() bool {
	return c.Archetype != ""
}

// Classifier composes the rule set and color identifier into a single
// classify entry point. Classifiers are read-only after construction and
// safe for concurrent use.
type Classifier struct {
	rules  *RuleSet
	colors *ColorIdentifier
}

// NewClassifier creates a classifier over a loaded rule set.
func NewClassifier(rules *RuleSet) *Classifier {
	return &Classifier{
		rules:  rules,
		colors: NewColorIdentifier(),
	}
}

// NewClassifierWithColors creates a classifier with a custom color identifier.
func NewClassifierWithColors(rules *RuleSet, colors *ColorIdentifier) *Classifier {
	return &Classifier{rules: rules, colors: colors}
}

// Classify resolves a decklist to at most one archetype and variant.
// Identical decklist contents always yield an identical classification,
// independent of call order or prior calls.
func (c *Classifier) Classify(d *deck.Decklist) Classification {
	main := d.MainboardCounts()
	side := d.SideboardCounts()

	identity := c.colors.Identify(d)
	result := Classification{
		DecklistID: d.ID,
		ColorCode:  identity.Code,
	}

	def, variant := c.rules.Resolve(main, side)
	if def == nil {
		return result
	}

	result.Archetype = def.Name
	if variant != nil {
		result.Variant = variant.Name
	}
	result.DisplayName = composeName(def, variant, identity)
	return result
}

// composeName builds the display label: the color name is prefixed when
// the definition asks for it, and a matched variant is appended in
// parentheses.
func composeName(def *Definition, variant *Variant, identity Identity) string {
	name := def.Name
	if def.IncludeColorInName {
		name = fmt.Sprintf("%s %s", identity.Name, def.Name)
	}
	if variant != nil {
		name = fmt.Sprintf("%s (%s)", name, variant.Name)
	}
	return name
}
