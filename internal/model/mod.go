package model

import "strings"

type ModType int

const (
	ModTypeBasic ModType = iota
	ModTypePremium
)

// Mod is one selectable entry from the catalog store. The catalog record
// carries three display fields between the ID and the type which the bot
// never uses.
type Mod struct {
	ID   string
	Type ModType
}

// ParseCatalog maps raw catalog content into mods. Records are
// comma-separated, fields pipe-separated: modID|_|_|_|modType where type
// "1" marks a premium mod. IDs pass through CleanInput so they compare
// equal to sanitized user input. Malformed records are skipped.
func ParseCatalog(raw string) []Mod {
	mods := []Mod{}
	for _, record := range SplitRecords(raw, SeparatorRecord) {
		fields := strings.Split(record, "|")
		if len(fields) < 5 {
			continue
		}
		id := CleanInput(fields[0])
		if id == "" {
			continue
		}
		mod := Mod{ID: id, Type: ModTypeBasic}
		if CleanInput(fields[4]) == "1" {
			mod.Type = ModTypePremium
		}
		mods = append(mods, mod)
	}
	return mods
}

// AllModsSelection serializes the whole catalog as the tier 3/X selection:
// "all" followed by every catalog ID, underscore-joined.
func AllModsSelection(mods []Mod) string {
	sb := strings.Builder{}
	sb.WriteString("all")
	for _, mod := range mods {
		sb.WriteString("_")
		sb.WriteString(mod.ID)
	}
	return sb.String()
}
