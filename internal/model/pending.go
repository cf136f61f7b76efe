package model

import (
	"strings"
	"time"
)

// PremiumMarker tags a premium pick inside a pending record so a second
// premium can be refused. The marker never reaches the committed line.
const PremiumMarker = "PREMIUM"

// Pending is the ephemeral per-user record tracked between ID submission
// and commit. Selections holds the picked tokens concatenated in order,
// each with a trailing underscore, e.g. "hitbox_boostPREMIUM_".
type Pending struct {
	UserID     string     `db:"UserID"`
	CreatedAt  time.Time  `db:"CreatedAt"`
	ExternalID ExternalID `db:"ExternalID"`
	Selections string     `db:"Selections"`
}

// SelectionToken encodes one accepted pick for appending to Selections.
func SelectionToken(mod Mod) string {
	if mod.Type == ModTypePremium {
		return mod.ID + PremiumMarker + "_"
	}
	return mod.ID + "_"
}

func (p *Pending) Has(modID string) bool {
	return strings.Contains(p.Selections, modID)
}

func (p *Pending) HasPremium() bool {
	return strings.Contains(p.Selections, PremiumMarker)
}

func (p *Pending) SelectionCount() int {
	trimmed := strings.TrimSuffix(p.Selections, "_")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "_"))
}

// CommitSelection renders Selections as it appears in the committed
// identity line: premium markers stripped, trailing underscore trimmed.
func (p *Pending) CommitSelection() string {
	return strings.TrimSuffix(strings.ReplaceAll(p.Selections, PremiumMarker, ""), "_")
}
