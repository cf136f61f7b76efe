package model

import (
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

func CreateID() string {
	uuid, _ := uuid.NewRandom()
	return base58.Encode(uuid[:])
}

// CleanInput canonicalizes user input and catalog fields to lowercase
// alphanumerics, dropping a recognized ID-label prefix. Both sides of every
// mod/ID comparison go through this, so "Steam ID: 7656..." and a catalog
// row's " HitBox " meet on the same form.
func CleanInput(input string) string {
	cleaned := strings.ToLower(strings.TrimSpace(input))
	cleaned = strings.ReplaceAll(cleaned, "steam id:", "")
	cleaned = strings.ReplaceAll(cleaned, "id:", "")

	sb := strings.Builder{}
	for _, r := range cleaned {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
