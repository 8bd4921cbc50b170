package archetype

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/mtgtools/metagame/internal/deck"
)

// Variant is a finer-grained sub-classification within an archetype.
// Variants are tested in declared order after the parent archetype
// matches; the first variant whose conditions all hold wins.
type Variant struct {
	Name       string
	Conditions []Condition
}

// Definition is one archetype's declarative rule: AND-ed conditions plus
// ordered variants. Definitions are loaded once and never mutated.
type Definition struct {
	Name               string
	IncludeColorInName bool
	Conditions         []Condition
	Variants           []Variant
}

// Matches reports whether all top-level conditions hold for the given
// per-zone card counts. A definition with no conditions is vacuously true
// and will shadow every definition declared after it.
func (d *Definition) Matches(main, side deck.CardCounts) bool {
	return allHold(d.Conditions, main, side)
}

// MatchVariant returns the first variant whose conditions all hold, or
// nil when no variant matches.
func (d *Definition) MatchVariant(main, side deck.CardCounts) *Variant {
	for i := range d.Variants {
		if allHold(d.Variants[i].Conditions, main, side) {
			return &d.Variants[i]
		}
	}
	return nil
}

func allHold(conditions []Condition, main, side deck.CardCounts) bool {
	for _, c := range conditions {
		if !c.Evaluate(main, side) {
			return false
		}
	}
	return true
}

// RuleSet is an ordered collection of archetype definitions. The declared
// order is load-bearing: resolution is first-match-wins, so reordering
// the rules changes classification results.
type RuleSet struct {
	defs []Definition
}

// NewRuleSet builds a rule set from definitions in the given order.
func NewRuleSet(defs []Definition) *RuleSet {
	return &RuleSet{defs: defs}
}

// Definitions returns the definitions in resolution order.
func (rs *RuleSet) Definitions() []Definition {
	return rs.defs
}

// Len returns the number of definitions.
func (rs *RuleSet) Len() int {
	return len(rs.defs)
}

// Resolve returns the first definition whose top-level conditions hold
// for the given counts, plus its first matching variant if any. Both are
// nil when no archetype matches.
func (rs *RuleSet) Resolve(main, side deck.CardCounts) (*Definition, *Variant) {
	for i := range rs.defs {
		def := &rs.defs[i]
		if !def.Matches(main, side) {
			continue
		}
		return def, def.MatchVariant(main, side)
	}
	return nil, nil
}

// Rule file wire format. A rule file is a single TOML document whose
// [[archetype]] array order is the resolution order.
type ruleFile struct {
	Version    int            `toml:"version"`
	Archetypes []ruleArchetype `toml:"archetype"`
}

type ruleArchetype struct {
	Name               string          `toml:"name"`
	IncludeColorInName bool            `toml:"include_color_in_name"`
	Conditions         []ruleCondition `toml:"condition"`
	Variants           []ruleVariant   `toml:"variant"`
}

type ruleVariant struct {
	Name       string          `toml:"name"`
	Conditions []ruleCondition `toml:"condition"`
}

type ruleCondition struct {
	Kind  string   `toml:"kind"`
	Cards []string `toml:"cards"`
}

// ruleIndex is the directory form: an index.toml naming rule files in
// resolution order. Directory iteration order is never used.
type ruleIndex struct {
	Version int      `toml:"version"`
	Files   []string `toml:"files"`
}

// LoadRules loads an ordered rule set from a single TOML rule file.
// Any parse failure, unknown condition kind, or duplicate archetype name
// is fatal: classifying against partial rules would silently corrupt
// every downstream report.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	var file ruleFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}

	defs, err := buildDefinitions(file.Archetypes)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return NewRuleSet(defs), nil
}

// LoadRulesDir loads rules from a directory containing an index.toml that
// lists rule files in resolution order.
func LoadRulesDir(dir string) (*RuleSet, error) {
	indexPath := filepath.Join(dir, "index.toml")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read rule index: %w", err)
	}

	var index ruleIndex
	if err := toml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse rule index %s: %w", indexPath, err)
	}
	if len(index.Files) == 0 {
		return nil, fmt.Errorf("rule index %s lists no files", indexPath)
	}

	var all []Definition
	for _, name := range index.Files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule file: %w", err)
		}
		var file ruleFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse rule file %s: %w", path, err)
		}
		defs, err := buildDefinitions(file.Archetypes)
		if err != nil {
			return nil, fmt.Errorf("rule file %s: %w", path, err)
		}
		all = append(all, defs...)
	}

	if err := checkDuplicates(all); err != nil {
		return nil, err
	}
	return NewRuleSet(all), nil
}

func buildDefinitions(raw []ruleArchetype) ([]Definition, error) {
	defs := make([]Definition, 0, len(raw))
	for _, arch := range raw {
		if arch.Name == "" {
			return nil, fmt.Errorf("archetype %d has no name", len(defs)+1)
		}

		conditions, err := buildConditions(arch.Conditions)
		if err != nil {
			return nil, fmt.Errorf("archetype %q: %w", arch.Name, err)
		}

		variants := make([]Variant, 0, len(arch.Variants))
		for _, v := range arch.Variants {
			if v.Name == "" {
				return nil, fmt.Errorf("archetype %q has an unnamed variant", arch.Name)
			}
			vconds, err := buildConditions(v.Conditions)
			if err != nil {
				return nil, fmt.Errorf("archetype %q variant %q: %w", arch.Name, v.Name, err)
			}
			variants = append(variants, Variant{Name: v.Name, Conditions: vconds})
		}

		defs = append(defs, Definition{
			Name:               arch.Name,
			IncludeColorInName: arch.IncludeColorInName,
			Conditions:         conditions,
			Variants:           variants,
		})
	}

	if err := checkDuplicates(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func buildConditions(raw []ruleCondition) ([]Condition, error) {
	conditions := make([]Condition, 0, len(raw))
	for _, rc := range raw {
		kind, err := ParseConditionKind(rc.Kind)
		if err != nil {
			return nil, err
		}
		if len(rc.Cards) == 0 {
			return nil, fmt.Errorf("condition %s lists no cards", rc.Kind)
		}
		conditions = append(conditions, Condition{Kind: kind, Cards: rc.Cards})
	}
	return conditions, nil
}

func checkDuplicates(defs []Definition) error {
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if seen[def.Name] {
			return fmt.Errorf("duplicate archetype name %q", def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}
