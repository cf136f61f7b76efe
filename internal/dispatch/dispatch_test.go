package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

type recordingVerifier struct {
	mu       sync.Mutex
	messages []model.Message
	removed  []string
	err      error
}

func (r *recordingVerifier) HandleMessage(ctx context.Context, msg model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

func (r *recordingVerifier) RemoveMember(ctx context.Context, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, memberID)
	return r.err
}

type recordingNotifier struct {
	notes []string
}

func (r *recordingNotifier) Notify(ctx context.Context, format string, args ...any) {
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
}

func testConfig() *boot.Config {
	config := &boot.Config{}
	config.Discord.VerifyChannel = "verify-channel"
	config.Roles.Patron = "patron"
	return config
}

func TestMessageFiltering(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	verifier := &recordingVerifier{}
	dispatcher := New(testConfig(), verifier, &recordingNotifier{})

	t.Run("ignores other channels", func(t *testing.T) {
		dispatcher.Message(ctx, model.Message{ChannelID: "general", AuthorID: "u1", Text: "hi"})
		assert.Empty(verifier.messages)
	})

	t.Run("ignores bot authors", func(t *testing.T) {
		dispatcher.Message(ctx, model.Message{ChannelID: "verify-channel", AuthorID: "u1", Text: "hi", IsBot: true})
		assert.Empty(verifier.messages)
	})

	t.Run("forwards verification channel messages", func(t *testing.T) {
		dispatcher.Message(ctx, model.Message{ChannelID: "verify-channel", AuthorID: "u1", Text: "hi"})
		assert.Len(verifier.messages, 1)
	})
}

func TestHandlerErrorsReported(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	verifier := &recordingVerifier{err: errors.New("boom")}
	notifier := &recordingNotifier{}
	dispatcher := New(testConfig(), verifier, notifier)

	dispatcher.Message(ctx, model.Message{ChannelID: "verify-channel", AuthorID: "u1", Text: "hi"})
	assert.Len(notifier.notes, 1)
	assert.Contains(notifier.notes[0], "boom")
}

func TestMemberUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	verifier := &recordingVerifier{}
	dispatcher := New(testConfig(), verifier, &recordingNotifier{})

	t.Run("patron role kept", func(t *testing.T) {
		dispatcher.MemberUpdate(ctx, model.RoleChange{
			MemberID:    "u1",
			RolesBefore: []string{"patron", "tier2"},
			RolesAfter:  []string{"patron"},
		})
		assert.Empty(verifier.removed)
	})

	t.Run("patron role lost", func(t *testing.T) {
		dispatcher.MemberUpdate(ctx, model.RoleChange{
			MemberID:    "u1",
			RolesBefore: []string{"patron", "tier2"},
			RolesAfter:  []string{"tier2"},
		})
		assert.Equal([]string{"u1"}, verifier.removed)
	})

	t.Run("never had the patron role", func(t *testing.T) {
		dispatcher.MemberUpdate(ctx, model.RoleChange{
			MemberID:    "u2",
			RolesBefore: []string{"tier2"},
			RolesAfter:  []string{},
		})
		assert.Equal([]string{"u1"}, verifier.removed)
	})
}

func TestMemberLeave(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	verifier := &recordingVerifier{}
	dispatcher := New(testConfig(), verifier, &recordingNotifier{})

	dispatcher.MemberLeave(ctx, "u1", []string{"tier2"})
	assert.Empty(verifier.removed)

	dispatcher.MemberLeave(ctx, "u2", []string{"patron"})
	assert.Equal([]string{"u2"}, verifier.removed)
}

func TestSameUserSerialized(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	verifier := &recordingVerifier{}
	dispatcher := New(testConfig(), verifier, &recordingNotifier{})

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatcher.Message(ctx, model.Message{ChannelID: "verify-channel", AuthorID: "u1", Text: "hi"})
		}()
	}
	wg.Wait()

	assert.Len(verifier.messages, 10)
}
