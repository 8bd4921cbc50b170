package archetype

import (
	"testing"

	"github.com/mtgtools/metagame/internal/deck"
)

func testCounts() (deck.CardCounts, deck.CardCounts) {
	main := deck.CardCounts{
		"Lightning Bolt": 4,
		"Mountain":       18,
		"Eidolon of the Great Revel": 1,
	}
	side := deck.CardCounts{
		"Smash to Smithereens": 2,
		"Eidolon of the Great Revel": 1,
	}
	return main, side
}

func TestConditionEvaluate(t *testing.T) {
	main, side := testCounts()

	tests := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{
			name:      "in mainboard present",
			condition: Condition{Kind: KindInMainboard, Cards: []string{"Lightning Bolt"}},
			want:      true,
		},
		{
			name:      "in mainboard absent",
			condition: Condition{Kind: KindInMainboard, Cards: []string{"Counterspell"}},
			want:      false,
		},
		{
			name:      "in mainboard OR semantics",
			condition: Condition{Kind: KindInMainboard, Cards: []string{"Counterspell", "Mountain"}},
			want:      true,
		},
		{
			name:      "in sideboard present",
			condition: Condition{Kind: KindInSideboard, Cards: []string{"Smash to Smithereens"}},
			want:      true,
		},
		{
			name:      "in sideboard does not see mainboard",
			condition: Condition{Kind: KindInSideboard, Cards: []string{"Lightning Bolt"}},
			want:      false,
		},
		{
			name:      "in main or sideboard",
			condition: Condition{Kind: KindInMainOrSideboard, Cards: []string{"Smash to Smithereens"}},
			want:      true,
		},
		{
			name:      "one or more in mainboard",
			condition: Condition{Kind: KindOneOrMoreInMainboard, Cards: []string{"Eidolon of the Great Revel"}},
			want:      true,
		},
		{
			name:      "one or more in sideboard absent",
			condition: Condition{Kind: KindOneOrMoreInSideboard, Cards: []string{"Mountain"}},
			want:      false,
		},
		{
			name:      "one or more in either zone",
			condition: Condition{Kind: KindOneOrMoreInMainOrSideboard, Cards: []string{"Smash to Smithereens"}},
			want:      true,
		},
		{
			name:      "two or more in mainboard satisfied",
			condition: Condition{Kind: KindTwoOrMoreInMainboard, Cards: []string{"Lightning Bolt"}},
			want:      true,
		},
		{
			name:      "two or more in mainboard single copy fails",
			condition: Condition{Kind: KindTwoOrMoreInMainboard, Cards: []string{"Eidolon of the Great Revel"}},
			want:      false,
		},
		{
			name:      "two or more in sideboard",
			condition: Condition{Kind: KindTwoOrMoreInSideboard, Cards: []string{"Smash to Smithereens"}},
			want:      true,
		},
		{
			name:      "two or more combined across zones",
			condition: Condition{Kind: KindTwoOrMoreInMainOrSideboard, Cards: []string{"Eidolon of the Great Revel"}},
			want:      true,
		},
		{
			name:      "does not contain satisfied",
			condition: Condition{Kind: KindDoesNotContain, Cards: []string{"Counterspell", "Island"}},
			want:      true,
		},
		{
			name:      "does not contain fails on sideboard presence",
			condition: Condition{Kind: KindDoesNotContain, Cards: []string{"Smash to Smithereens"}},
			want:      false,
		},
		{
			name:      "does not contain mainboard ignores sideboard",
			condition: Condition{Kind: KindDoesNotContainMainboard, Cards: []string{"Smash to Smithereens"}},
			want:      true,
		},
		{
			name:      "does not contain sideboard ignores mainboard",
			condition: Condition{Kind: KindDoesNotContainSideboard, Cards: []string{"Lightning Bolt"}},
			want:      true,
		},
		{
			name:      "negation requires none of the listed cards",
			condition: Condition{Kind: KindDoesNotContain, Cards: []string{"Counterspell", "Mountain"}},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.condition.Evaluate(main, side); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionEvaluateDeterministic(t *testing.T) {
	main, side := testCounts()
	cond := Condition{Kind: KindTwoOrMoreInMainOrSideboard, Cards: []string{"Eidolon of the Great Revel"}}

	first := cond.Evaluate(main, side)
	for i := 0; i < 100; i++ {
		if cond.Evaluate(main, side) != first {
			t.Fatal("evaluation result changed across repeated calls")
		}
	}
}

func TestParseConditionKind(t *testing.T) {
	t.Run("round trips every kind", func(t *testing.T) {
		for kind, name := range kindNames {
			parsed, err := ParseConditionKind(name)
			if err != nil {
				t.Fatalf("ParseConditionKind(%q): %v", name, err)
			}
			if parsed != kind {
				t.Errorf("ParseConditionKind(%q) = %v, want %v", name, parsed, kind)
			}
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		if _, err := ParseConditionKind("ContainsAtLeast"); err == nil {
			t.Error("expected error for unknown kind")
		}
	})
}
