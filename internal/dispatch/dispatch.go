// Package dispatch is the event-loop edge: it filters gateway events down
// to the ones the bot acts on and serializes handling per user so two fast
// messages from one member cannot race the same pending record.
package dispatch

import (
	"context"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

type Verifier interface {
	HandleMessage(ctx context.Context, msg model.Message) error
	RemoveMember(ctx context.Context, memberID string) error
}

type Notifier interface {
	Notify(ctx context.Context, format string, args ...any)
}

type Dispatcher struct {
	config   *boot.Config
	verifier Verifier
	notifier Notifier

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func New(config *boot.Config, verifier Verifier, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		config:    config,
		verifier:  verifier,
		notifier:  notifier,
		userLocks: map[string]*sync.Mutex{},
	}
}

// Message handles one inbound chat message. Bot authors and channels other
// than the verification channel are ignored.
func (d *Dispatcher) Message(ctx context.Context, msg model.Message) {
	if msg.IsBot || msg.ChannelID != d.config.Discord.VerifyChannel {
		return
	}

	eventID := cuid2.Generate()

	lock := d.userLock(msg.AuthorID)
	lock.Lock()
	defer lock.Unlock()

	if err := d.verifier.HandleMessage(ctx, msg); err != nil {
		log.Errorf("event %s: handling message from %s: %v", eventID, msg.AuthorID, err)
		d.notifier.Notify(ctx, "Error with messageCreate (%s): %v", eventID, err)
	}
}

// MemberUpdate reacts to a member losing the patron role.
func (d *Dispatcher) MemberUpdate(ctx context.Context, change model.RoleChange) {
	patron := d.config.Roles.Patron
	if hasRole(change.RolesBefore, patron) && !hasRole(change.RolesAfter, patron) {
		d.remove(ctx, change.MemberID)
	}
}

// MemberLeave reacts to a patron leaving the guild.
func (d *Dispatcher) MemberLeave(ctx context.Context, memberID string, roleIDs []string) {
	if hasRole(roleIDs, d.config.Roles.Patron) {
		d.remove(ctx, memberID)
	}
}

func (d *Dispatcher) remove(ctx context.Context, memberID string) {
	eventID := cuid2.Generate()

	lock := d.userLock(memberID)
	lock.Lock()
	defer lock.Unlock()

	if err := d.verifier.RemoveMember(ctx, memberID); err != nil {
		log.Errorf("event %s: removing member %s: %v", eventID, memberID, err)
		d.notifier.Notify(ctx, "Error with handleRemove (%s): %v", eventID, err)
	}
}

func (d *Dispatcher) userLock(userID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		d.userLocks[userID] = lock
	}
	return lock
}

func hasRole(roleIDs []string, roleID string) bool {
	for _, r := range roleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}
