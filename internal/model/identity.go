package model

import (
	"fmt"
	"strings"
)

// ExternalID is the game-platform account ID (Steam or Epic) bound to a
// community member. Steam IDs are 17 digits, Epic IDs 32 hex characters;
// length is the only validation applied.
type ExternalID string

func (id ExternalID) Valid() bool {
	return len(id) == 17 || len(id) == 32
}

// Record separators used by the remote stores. Identity records sit one per
// line; the user-info and catalog stores pack records comma-separated.
const (
	SeparatorLine   = "\n"
	SeparatorRecord = ","
)

// IdentityRecord is one committed line in the identity store:
// externalID|modSelection,
type IdentityRecord struct {
	ExternalID ExternalID
	Selection  string
}

func (r IdentityRecord) Encode() string {
	return fmt.Sprintf("%s|%s,", r.ExternalID, r.Selection)
}

// UserInfoRecord is one committed record in the user-info store:
// username|userID|avatarHash|role1.role2...,
type UserInfoRecord struct {
	Username   string
	UserID     string
	AvatarHash string
	RoleIDs    []string
}

func (r UserInfoRecord) Encode() string {
	return fmt.Sprintf("%s|%s|%s|%s,", r.Username, r.UserID, r.AvatarHash, strings.Join(r.RoleIDs, "."))
}

func DecodeUserInfo(record string) (UserInfoRecord, bool) {
	fields := strings.Split(strings.TrimSuffix(strings.TrimSpace(record), ","), "|")
	if len(fields) != 4 {
		return UserInfoRecord{}, false
	}
	info := UserInfoRecord{
		Username:   fields[0],
		UserID:     fields[1],
		AvatarHash: fields[2],
	}
	if fields[3] != "" {
		info.RoleIDs = strings.Split(fields[3], ".")
	}
	return info, true
}

// SplitRecords breaks raw store content into non-blank records.
func SplitRecords(raw, separator string) []string {
	records := []string{}
	for _, r := range strings.Split(raw, separator) {
		if strings.TrimSpace(r) == "" {
			continue
		}
		records = append(records, r)
	}
	return records
}
