package archetype

import (
	"fmt"

	"github.com/mtgtools/metagame/internal/deck"
)

// ConditionKind identifies one of the twelve supported rule checks.
// Conditions are data, not code: a rule file maps onto these kinds and a
// single evaluator per kind, so rule sets can change without rebuilds.
type ConditionKind int

const (
	// KindInMainboard matches when at least one listed card is in the mainboard.
	KindInMainboard ConditionKind = iota
	// KindInSideboard matches when at least one listed card is in the sideboard.
	KindInSideboard
	// KindInMainOrSideboard matches when at least one listed card is in either zone.
	KindInMainOrSideboard
	// KindOneOrMoreInMainboard matches when some listed card has >=1 copies in the mainboard.
	KindOneOrMoreInMainboard
	// KindOneOrMoreInSideboard matches when some listed card has >=1 copies in the sideboard.
	KindOneOrMoreInSideboard
	// KindOneOrMoreInMainOrSideboard matches when some listed card has >=1 copies combined.
	KindOneOrMoreInMainOrSideboard
	// KindTwoOrMoreInMainboard matches when some listed card has >=2 copies in the mainboard.
	KindTwoOrMoreInMainboard
	// KindTwoOrMoreInSideboard matches when some listed card has >=2 copies in the sideboard.
	KindTwoOrMoreInSideboard
	// KindTwoOrMoreInMainOrSideboard matches when some listed card has >=2 copies combined.
	KindTwoOrMoreInMainOrSideboard
	// KindDoesNotContain matches when none of the listed cards appear in either zone.
	KindDoesNotContain
	// KindDoesNotContainMainboard matches when none of the listed cards appear in the mainboard.
	KindDoesNotContainMainboard
	// KindDoesNotContainSideboard matches when none of the listed cards appear in the sideboard.
	KindDoesNotContainSideboard
)

var kindNames = map[ConditionKind]string{
	KindInMainboard:                "InMainboard",
	KindInSideboard:                "InSideboard",
	KindInMainOrSideboard:          "InMainOrSideboard",
	KindOneOrMoreInMainboard:       "OneOrMoreInMainboard",
	KindOneOrMoreInSideboard:       "OneOrMoreInSideboard",
	KindOneOrMoreInMainOrSideboard: "OneOrMoreInMainOrSideboard",
	KindTwoOrMoreInMainboard:       "TwoOrMoreInMainboard",
	KindTwoOrMoreInSideboard:       "TwoOrMoreInSideboard",
	KindTwoOrMoreInMainOrSideboard: "TwoOrMoreInMainOrSideboard",
	KindDoesNotContain:             "DoesNotContain",
	KindDoesNotContainMainboard:    "DoesNotContainMainboard",
	KindDoesNotContainSideboard:    "DoesNotContainSideboard",
}

var kindsByName = func() map[string]ConditionKind {
	m := make(map[string]ConditionKind, len(kindNames))
	for kind, name := range kindNames {
		m[name] = kind
	}
	return m
}()

// String returns the canonical rule-file name of the kind.
func (k ConditionKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ConditionKind(%d)", int(k))
}

// ParseConditionKind parses a rule-file kind name. Unknown names are a
// configuration error: rule loading must fail before any classification
// begins rather than proceed on partial rules.
func ParseConditionKind(name string) (ConditionKind, error) {
	if kind, ok := kindsByName[name]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unknown condition kind %q", name)
}

// IsNegation reports whether the kind requires the absence of all listed cards.
func (k ConditionKind) IsNegation() bool {
	switch k {
	case KindDoesNotContain, KindDoesNotContainMainboard, KindDoesNotContainSideboard:
		return true
	default:
		return false
	}
}

// Condition is one declarative check against a decklist's card counts.
// Positive kinds use OR semantics over Cards (at least one listed card
// satisfies the check); negation kinds require that none do.
type Condition struct {
	Kind  ConditionKind
	Cards []string
}

// Evaluate applies the condition to summed per-zone card counts. It is
// pure and total: every kind yields a boolean for every input.
func (c Condition) Evaluate(main, side deck.CardCounts) bool {
	switch c.Kind {
	case KindInMainboard, KindOneOrMoreInMainboard:
		return anyAtLeast(c.Cards, main, nil, 1)
	case KindInSideboard, KindOneOrMoreInSideboard:
		return anyAtLeast(c.Cards, side, nil, 1)
	case KindInMainOrSideboard, KindOneOrMoreInMainOrSideboard:
		return anyAtLeast(c.Cards, main, side, 1)
	case KindTwoOrMoreInMainboard:
		return anyAtLeast(c.Cards, main, nil, 2)
	case KindTwoOrMoreInSideboard:
		return anyAtLeast(c.Cards, side, nil, 2)
	case KindTwoOrMoreInMainOrSideboard:
		return anyAtLeast(c.Cards, main, side, 2)
	case KindDoesNotContain:
		return !anyAtLeast(c.Cards, main, side, 1)
	case KindDoesNotContainMainboard:
		return !anyAtLeast(c.Cards, main, nil, 1)
	case KindDoesNotContainSideboard:
		return !anyAtLeast(c.Cards, side, nil, 1)
	default:
		return false
	}
}

// anyAtLeast reports whether any listed card reaches the minimum count in
// the primary zone, or across primary+secondary when secondary is non-nil.
func anyAtLeast(cards []string, primary, secondary deck.CardCounts, min int) bool {
	for _, name := range cards {
		count := primary.Count(name)
		if secondary != nil {
			count += secondary.Count(name)
		}
		if count >= min {
			return true
		}
	}
	return false
}
