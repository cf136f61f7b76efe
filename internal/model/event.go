package model

// Message is an inbound chat message as delivered by the gateway.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	AvatarHash string
	Text       string
	IsBot      bool
}

// RoleChange describes a member's role set before and after a guild
// member update.
type RoleChange struct {
	MemberID    string
	RolesBefore []string
	RolesAfter  []string
}

type Tier int

const (
	TierNone Tier = iota
	Tier1
	Tier2
	Tier3
	TierX
)
