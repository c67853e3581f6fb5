// Package dictionaries holds the curated static lookup tables the
// normalizer and mapping cascade consult before ever reaching out to an
// ontology service: complex biological products, formula-to-common-name
// translations, and buffer-compound abbreviation expansions.
package dictionaries

import "strings"

// BiologicalProducts maps complex biological-product names (case-insensitive
// lookup key, lowercased) to their FOODON CURIE. A hit here is the cascade's
// highest-confidence stage (curated_dictionary, 0.98).
var BiologicalProducts = map[string]string{
	"yeast extract":     "FOODON:03315426",
	"beef extract":       "FOODON:03306229",
	"malt extract":        "FOODON:03315443",
	"peptone":             "FOODON:03315415",
	"tryptone":            "FOODON:03430079",
	"soy peptone":         "FOODON:03412116",
	"casein hydrolysate":  "FOODON:03420180",
	"skim milk":           "FOODON:00001234",
	"agar":                "FOODON:03412127",
	"bile salts":          "FOODON:03412133",
	"blood":               "FOODON:03412140",
	"fish meal":           "FOODON:03412151",
	"molasses":            "FOODON:03412162",
	"corn steep liquor":   "FOODON:03412173",
}

// FORMULA_TO_NAME-equivalent: FormulaToName maps exact chemical formula
// strings (case-sensitive) to common chemical names.
var FormulaToName = map[string]string{
	"NaCl":           "sodium chloride",
	"KCl":            "potassium chloride",
	"CaCl2":          "calcium chloride",
	"MgSO4":          "magnesium sulfate",
	"MgCl2":          "magnesium chloride",
	"K2HPO4":         "dipotassium phosphate",
	"KH2PO4":         "potassium dihydrogen phosphate",
	"Na2HPO4":        "disodium phosphate",
	"NaH2PO4":        "sodium dihydrogen phosphate",
	"NH4Cl":          "ammonium chloride",
	"(NH4)2SO4":      "ammonium sulfate",
	"FeSO4":          "iron(II) sulfate",
	"Fe2(SO4)3":      "iron(III) sulfate",
	"FeCl3":          "iron(III) chloride",
	"FeCl2":          "iron(II) chloride",
	"ZnSO4":          "zinc sulfate",
	"CuSO4":          "copper(II) sulfate",
	"MnSO4":          "manganese(II) sulfate",
	"CoCl2":          "cobalt(II) chloride",
	"NiCl2":          "nickel(II) chloride",
	"Na2CO3":         "sodium carbonate",
	"NaHCO3":         "sodium bicarbonate",
	"Ca(NO3)2":       "calcium nitrate",
	"KNO3":           "potassium nitrate",
	"NaNO3":          "sodium nitrate",
	"Na2MoO4":        "sodium molybdate",
	"Na2SeO3":        "sodium selenite",
	"H3BO3":          "boric acid",
	"CaCO3":          "calcium carbonate",
}

// BufferCompounds maps common buffer abbreviations to their IUPAC name.
var BufferCompounds = map[string]string{
	"HEPES": "4-(2-hydroxyethyl)-1-piperazineethanesulfonic acid",
	"MES":   "2-(N-morpholino)ethanesulfonic acid",
	"MOPS":  "3-(N-morpholino)propanesulfonic acid",
	"TRIS":  "tris(hydroxymethyl)aminomethane",
	"PIPES": "piperazine-N,N'-bis(2-ethanesulfonic acid)",
	"BIS-TRIS": "bis(2-hydroxyethyl)iminotris(hydroxymethyl)methane",
	"CHES":  "2-(cyclohexylamino)ethanesulfonic acid",
	"CAPS":  "3-(cyclohexylamino)-1-propanesulfonic acid",
	"TAPS":  "3-{[tris(hydroxymethyl)methyl]amino}propanesulfonic acid",
	"BICINE": "2-(bis(2-hydroxyethyl)amino)acetic acid",
	"TRICINE": "3-[tris(hydroxymethyl)methylamino]propanesulfonic acid",
}

// LookupBiologicalProduct performs the case-insensitive BiologicalProducts
// lookup the cascade's curated-dictionary stage uses.
func LookupBiologicalProduct(name string) (string, bool) {
	id, ok := BiologicalProducts[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// LookupFormulaName performs the exact, case-sensitive FormulaToName lookup.
func LookupFormulaName(formula string) (string, bool) {
	name, ok := FormulaToName[formula]
	return name, ok
}

// LookupBufferCompound performs a case-insensitive buffer-abbreviation
// lookup, returning the IUPAC expansion.
func LookupBufferCompound(abbreviation string) (string, bool) {
	name, ok := BufferCompounds[strings.ToUpper(strings.TrimSpace(abbreviation))]
	return name, ok
}
