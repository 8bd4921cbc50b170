package archetype

import (
	"strings"

	"github.com/mtgtools/metagame/internal/deck"
)

// wubrgOrder is the canonical color ordering used for identity codes.
const wubrgOrder = "WUBRG"

// comboNames maps a WUBRG-ordered color subset to its conventional name:
// the 10 guilds, the 10 shards and wedges, the 4-color nicknames, and
// five-color.
var comboNames = map[string]string{
	"WU": "Azorius",
	"UB": "Dimir",
	"BR": "Rakdos",
	"RG": "Gruul",
	"WG": "Selesnya",
	"WB": "Orzhov",
	"UR": "Izzet",
	"BG": "Golgari",
	"WR": "Boros",
	"UG": "Simic",

	"WUB": "Esper",
	"UBR": "Grixis",
	"BRG": "Jund",
	"WRG": "Naya",
	"WUG": "Bant",
	"WBG": "Abzan",
	"WUR": "Jeskai",
	"UBG": "Sultai",
	"WBR": "Mardu",
	"URG": "Temur",

	"WUBR": "Yore",
	"WUBG": "Witch",
	"WURG": "Ink",
	"WBRG": "Dune",
	"UBRG": "Glint",

	"WUBRG": "Five-Color",
}

// monoNames maps a single color to its mono-color display name.
var monoNames = map[string]string{
	"W": "Mono-White",
	"U": "Mono-Blue",
	"B": "Mono-Black",
	"R": "Mono-Red",
	"G": "Mono-Green",
}

// landColors is a fixed lookup of known color-bearing lands. Cards absent
// from the table contribute no color; this is a heuristic, not an
// exhaustive card database.
var landColors = map[string]string{
	// Basics and snow basics
	"Plains": "W", "Island": "U", "Swamp": "B", "Mountain": "R", "Forest": "G",
	"Snow-Covered Plains": "W", "Snow-Covered Island": "U", "Snow-Covered Swamp": "B",
	"Snow-Covered Mountain": "R", "Snow-Covered Forest": "G",

	// Shock lands
	"Hallowed Fountain": "WU", "Watery Grave": "UB", "Blood Crypt": "BR",
	"Stomping Ground": "RG", "Temple Garden": "WG", "Godless Shrine": "WB",
	"Steam Vents": "UR", "Overgrown Tomb": "BG", "Sacred Foundry": "WR",
	"Breeding Pool": "UG",

	// Fetch lands
	"Flooded Strand": "WU", "Polluted Delta": "UB", "Bloodstained Mire": "BR",
	"Wooded Foothills": "RG", "Windswept Heath": "WG", "Marsh Flats": "WB",
	"Scalding Tarn": "UR", "Verdant Catacombs": "BG", "Arid Mesa": "WR",
	"Misty Rainforest": "UG",

	// Fast lands
	"Seachrome Coast": "WU", "Darkslick Shores": "UB", "Blackcleave Cliffs": "BR",
	"Copperline Gorge": "RG", "Razorverge Thicket": "WG", "Concealed Courtyard": "WB",
	"Spirebluff Canal": "UR", "Blooming Marsh": "BG", "Inspiring Vantage": "WR",
	"Botanical Sanctum": "UG",

	// Pain lands
	"Adarkar Wastes": "WU", "Underground River": "UB", "Sulfurous Springs": "BR",
	"Karplusan Forest": "RG", "Brushland": "WG", "Caves of Koilos": "WB",
	"Shivan Reef": "UR", "Llanowar Wastes": "BG", "Battlefield Forge": "WR",
	"Yavimaya Coast": "UG",

	// Slow lands
	"Deserted Beach": "WU", "Shipwreck Marsh": "UB", "Haunted Ridge": "BR",
	"Rockfall Vale": "RG", "Overgrown Farmland": "WG", "Shattered Sanctum": "WB",
	"Stormcarved Coast": "UR", "Deathcap Glade": "BG", "Sundown Pass": "WR",
	"Dreamroot Cascade": "UG",

	// Original dual lands
	"Tundra": "WU", "Underground Sea": "UB", "Badlands": "BR",
	"Taiga": "RG", "Savannah": "WG", "Scrubland": "WB",
	"Volcanic Island": "UR", "Bayou": "BG", "Plateau": "WR",
	"Tropical Island": "UG",

	// Triomes
	"Raugrin Triome": "WUR", "Zagoth Triome": "UBG", "Savai Triome": "WBR",
	"Ketria Triome": "URG", "Indatha Triome": "WBG",
	"Spara's Headquarters": "WUG", "Raffine's Tower": "WUB", "Xander's Lounge": "UBR",
	"Ziatora's Proving Ground": "BRG", "Jetmir's Garden": "WRG",
}

// Identity holds a deck's derived color identity.
type Identity struct {
	Code string // WUBRG-ordered subset, or "C" for colorless
	Name string // Display name, e.g. "Azorius", "Mono-Red", "Five-Color"
}

// ColorIdentifier derives a canonical color identity from a decklist's
// known lands. The lookup table can be extended per environment.
type ColorIdentifier struct {
	lands map[string]string
}

// NewColorIdentifier returns an identifier backed by the default land table.
func NewColorIdentifier() *ColorIdentifier {
	return &ColorIdentifier{lands: landColors}
}

// NewColorIdentifierWithTable returns an identifier with extra card→color
// entries layered over the default table.
func NewColorIdentifierWithTable(extra map[string]string) *ColorIdentifier {
	merged := make(map[string]string, len(landColors)+len(extra))
	for name, colors := range landColors {
		merged[name] = colors
	}
	for name, colors := range extra {
		merged[name] = colors
	}
	return &ColorIdentifier{lands: merged}
}

// Identify derives the color identity of a decklist. It is pure and
// deterministic: the same card contents always produce the same identity.
func (ci *ColorIdentifier) Identify(d *deck.Decklist) Identity {
	present := make(map[rune]bool, 5)
	mark := func(entries []deck.CardEntry) {
		for _, entry := range entries {
			colors, known := ci.lands[entry.Name]
			if !known {
				continue
			}
			for _, c := range colors {
				present[c] = true
			}
		}
	}
	mark(d.Mainboard)
	mark(d.Sideboard)

	var code strings.Builder
	for _, c := range wubrgOrder {
		if present[c] {
			code.WriteRune(c)
		}
	}

	return identityFromCode(code.String())
}

func identityFromCode(code string) Identity {
	switch len(code) {
	case 0:
		return Identity{Code: "C", Name: "Colorless"}
	case 1:
		return Identity{Code: code, Name: monoNames[code]}
	default:
		if name, ok := comboNames[code]; ok {
			return Identity{Code: code, Name: name}
		}
		// Unreachable for WUBRG-ordered subsets, but keep a sane fallback.
		return Identity{Code: code, Name: code}
	}
}
