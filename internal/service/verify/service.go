// Package verify drives a member from ID submission through tiered mod
// selection to a committed verification in the remote stores.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
	"github.com/NathanKirby/AlgoMod-Bot/internal/remotestore"
)

const CancelKeyword = "cancel"

type ContentStore interface {
	Read(ctx context.Context, repo string) (*remotestore.Document, error)
	Append(ctx context.Context, repo, text string) error
	RemoveMatching(ctx context.Context, repo, substring, separator string) error
}

type PendingStore interface {
	Create(userID string, externalID model.ExternalID) error
	Exists(userID string) (bool, error)
	Get(userID string) (*model.Pending, error)
	AppendSelection(userID, token string) error
	Discard(userID string) (bool, error)
}

type Catalog interface {
	List(ctx context.Context) ([]model.Mod, error)
}

type Responder interface {
	Reply(ctx context.Context, to model.Message, text string) error
	Send(ctx context.Context, channelID, text string) error
}

type RoleDirectory interface {
	RolesOf(ctx context.Context, memberID string) ([]string, error)
	Grant(ctx context.Context, memberID, roleID string) error
	Revoke(ctx context.Context, memberID, roleID string) error
}

// Notifier posts operational notices to the ops channel.
type Notifier interface {
	Notify(ctx context.Context, format string, args ...any)
}

type service struct {
	config   *boot.Config
	store    ContentStore
	pending  PendingStore
	catalog  Catalog
	chat     Responder
	roles    RoleDirectory
	notifier Notifier
}

func New(config *boot.Config, store ContentStore, pending PendingStore, catalog Catalog,
	chat Responder, roles RoleDirectory, notifier Notifier) *service {
	return &service{
		config:   config,
		store:    store,
		pending:  pending,
		catalog:  catalog,
		chat:     chat,
		roles:    roles,
		notifier: notifier,
	}
}

// HandleMessage routes one verification-channel message: cancellation, a
// mod pick when a pending record exists, or a fresh ID submission.
func (s *service) HandleMessage(ctx context.Context, msg model.Message) error {
	input := model.CleanInput(msg.Text)

	if input == CancelKeyword {
		return s.Cancel(ctx, msg)
	}

	exists, err := s.pending.Exists(msg.AuthorID)
	if err != nil {
		return fmt.Errorf("checking pending record: %w", err)
	}
	if !exists {
		return s.start(ctx, msg, input)
	}

	roleIDs, err := s.roles.RolesOf(ctx, msg.AuthorID)
	if err != nil {
		return fmt.Errorf("reading member roles: %w", err)
	}

	switch s.tierOf(roleIDs) {
	case model.Tier1:
		return s.chooseTier1(ctx, msg, input)
	case model.Tier2:
		return s.chooseTier2(ctx, msg, input)
	case model.Tier3, model.TierX:
		return s.commitAll(ctx, msg)
	default:
		log.Infof("user %s has a pending record but no tier role", msg.AuthorID)
		return nil
	}
}

// start validates a submitted external ID, refuses IDs already committed,
// then opens a pending record and presents the tier's options.
func (s *service) start(ctx context.Context, msg model.Message, input string) error {
	externalID := model.ExternalID(input)
	if !externalID.Valid() {
		text := fmt.Sprintf("Invalid ID input. Please provide a valid Steam/Epic ID. Instructions can be found here: <#%s>",
			s.config.Discord.InstructionsChannel)
		return s.chat.Reply(ctx, msg, text)
	}

	// A store that cannot be read is treated as empty rather than blocking
	// every submission.
	identities := s.contentOrEmpty(ctx, s.config.Store.Identity)
	userInfo := s.contentOrEmpty(ctx, s.config.Store.UserInfo)

	if strings.Contains(identities, input) || strings.Contains(userInfo, msg.AuthorID) {
		return s.chat.Reply(ctx, msg, "This ID has already been verified.")
	}

	if err := s.pending.Create(msg.AuthorID, externalID); err != nil {
		if errors.Is(err, model.ErrorPendingExists) {
			return nil
		}
		return fmt.Errorf("creating pending record: %w", err)
	}
	s.notifier.Notify(ctx, "Created pending record for <@%s> with ID %s", msg.AuthorID, externalID)

	return s.presentOptions(ctx, msg)
}

// Cancel discards an in-progress verification, if there is one.
func (s *service) Cancel(ctx context.Context, msg model.Message) error {
	removed, err := s.pending.Discard(msg.AuthorID)
	if err != nil {
		s.chat.Reply(ctx, msg, "Error canceling verification. Please try again.")
		return fmt.Errorf("discarding pending record: %w", err)
	}
	if !removed {
		return s.chat.Reply(ctx, msg, "No ongoing verification found for your Discord ID. Please submit your Steam/Epic ID.")
	}
	s.notifier.Notify(ctx, "Deleted pending verification for <@%s>", msg.AuthorID)
	return s.chat.Reply(ctx, msg, "Verification successfully canceled.")
}

// RemoveMember revokes the verified role and strips the member's committed
// records from both stores. Removing records that no longer exist is a
// no-op, so the whole operation is idempotent.
func (s *service) RemoveMember(ctx context.Context, memberID string) error {
	if err := s.roles.Revoke(ctx, memberID, s.config.Roles.Verified); err != nil {
		s.notifier.Notify(ctx, "Failed to revoke verified role from <@%s>: %v", memberID, err)
	}
	s.notifier.Notify(ctx, "Removing <@%s> from the stores", memberID)

	doc, err := s.store.Read(ctx, s.config.Store.UserInfo)
	if err != nil {
		return fmt.Errorf("reading user info store: %w", err)
	}

	// The leading field of the member's user-info record is the removal key
	// for the identity store.
	removalKey := ""
	for _, record := range model.SplitRecords(doc.Content, model.SeparatorRecord) {
		info, ok := model.DecodeUserInfo(record)
		if ok && info.UserID == memberID {
			removalKey = strings.TrimSpace(info.Username)
			break
		}
	}

	if err := s.store.RemoveMatching(ctx, s.config.Store.UserInfo, memberID, model.SeparatorRecord); err != nil {
		return fmt.Errorf("removing user info record: %w", err)
	}

	if removalKey == "" {
		s.notifier.Notify(ctx, "No committed record found for <@%s>; nothing to remove", memberID)
		return nil
	}

	if err := s.store.RemoveMatching(ctx, s.config.Store.Identity, removalKey, model.SeparatorLine); err != nil {
		return fmt.Errorf("removing identity record: %w", err)
	}
	s.notifier.Notify(ctx, "Removed <@%s> from both stores", memberID)
	return nil
}

// commit appends the identity line, grants the verified role and appends
// the user-info line. There is no cross-store transaction; a failure after
// the first append leaves the stores half-committed and is reported to ops
// for manual reconciliation.
func (s *service) commit(ctx context.Context, msg model.Message, record model.IdentityRecord) error {
	if err := s.store.Append(ctx, s.config.Store.Identity, record.Encode()); err != nil {
		s.notifier.Notify(ctx, "Commit failed for <@%s>; nothing was written: %v", msg.AuthorID, err)
		return fmt.Errorf("appending identity record: %w", err)
	}

	if err := s.roles.Grant(ctx, msg.AuthorID, s.config.Roles.Verified); err != nil {
		s.notifier.Notify(ctx, "Half-committed <@%s>: %s written, verified role not granted: %v",
			msg.AuthorID, s.config.Store.Identity, err)
		return fmt.Errorf("granting verified role: %w", err)
	}

	roleIDs, err := s.roles.RolesOf(ctx, msg.AuthorID)
	if err != nil {
		s.notifier.Notify(ctx, "Half-committed <@%s>: %s written, %s not: %v",
			msg.AuthorID, s.config.Store.Identity, s.config.Store.UserInfo, err)
		return fmt.Errorf("reading member roles: %w", err)
	}

	info := model.UserInfoRecord{
		Username:   msg.AuthorName,
		UserID:     msg.AuthorID,
		AvatarHash: msg.AvatarHash,
		RoleIDs:    roleIDs,
	}
	if err := s.store.Append(ctx, s.config.Store.UserInfo, info.Encode()); err != nil {
		s.notifier.Notify(ctx, "Half-committed <@%s>: %s written, %s not: %v",
			msg.AuthorID, s.config.Store.Identity, s.config.Store.UserInfo, err)
		return fmt.Errorf("appending user info record: %w", err)
	}

	s.notifier.Notify(ctx, "Committed verification for <@%s>: %s", msg.AuthorID, record.Encode())
	return s.chat.Reply(ctx, msg, "Verification complete!")
}

func (s *service) contentOrEmpty(ctx context.Context, repo string) string {
	doc, err := s.store.Read(ctx, repo)
	if err != nil {
		s.notifier.Notify(ctx, "Failed to read %s: %v", repo, err)
		return ""
	}
	return doc.Content
}

// tierOf resolves the member's tier from role membership. Tier 1 wins over
// tier 2 over tier 3 over tier X when a member somehow holds several.
func (s *service) tierOf(roleIDs []string) model.Tier {
	has := func(roleID string) bool {
		for _, r := range roleIDs {
			if r == roleID {
				return true
			}
		}
		return false
	}

	switch {
	case has(s.config.Roles.Tier1):
		return model.Tier1
	case has(s.config.Roles.Tier2):
		return model.Tier2
	case has(s.config.Roles.Tier3):
		return model.Tier3
	case has(s.config.Roles.TierX):
		return model.TierX
	}
	return model.TierNone
}
