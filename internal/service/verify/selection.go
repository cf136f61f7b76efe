package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

const tier2SelectionLimit = 3

const invalidModText = "Invalid input or you added more than 1 mod. Use the bold text to request. Please try again."

const tier1Instructions = "Now pick your mods. Message the mod you want. You are **Tier 1**. You get __1 Basic mod__."
const tier2Instructions = "Now pick your mods. Message the mods you want __one at a time__. You are **Tier 2**. " +
	"You get __1 Premium mod__ and __2 Basic mods__. :star: = Basic, :star2: = Premium"

// presentOptions shows the tier-filtered catalog after a successful ID
// submission. Tier 3/X members skip selection entirely and are committed
// with the full catalog.
func (s *service) presentOptions(ctx context.Context, msg model.Message) error {
	roleIDs, err := s.roles.RolesOf(ctx, msg.AuthorID)
	if err != nil {
		return fmt.Errorf("reading member roles: %w", err)
	}

	tier := s.tierOf(roleIDs)
	switch tier {
	case model.Tier1, model.Tier2:
		mods, err := s.catalog.List(ctx)
		if err != nil {
			return fmt.Errorf("listing catalog: %w", err)
		}
		if err := s.chat.Send(ctx, msg.ChannelID, s.modListText(tier, mods)); err != nil {
			return fmt.Errorf("sending mod list: %w", err)
		}
		instructions := tier1Instructions
		if tier == model.Tier2 {
			instructions = tier2Instructions
		}
		return s.chat.Send(ctx, msg.ChannelID, instructions)
	case model.Tier3, model.TierX:
		return s.commitAll(ctx, msg)
	default:
		log.Infof("user %s has no tier roles", msg.AuthorID)
		return nil
	}
}

// chooseTier1 accepts exactly one basic mod and commits on the first valid
// pick.
func (s *service) chooseTier1(ctx context.Context, msg model.Message, input string) error {
	mod, found, err := s.findMod(ctx, input)
	if err != nil {
		return err
	}
	if !found {
		return s.chat.Reply(ctx, msg, invalidModText)
	}
	if mod.Type == model.ModTypePremium {
		return s.chat.Reply(ctx, msg, fmt.Sprintf("**%s** is a Premium mod! Please choose a Basic mod.", mod.ID))
	}

	pending, err := s.pending.Get(msg.AuthorID)
	if err != nil {
		return fmt.Errorf("fetching pending record: %w", err)
	}
	if _, err := s.pending.Discard(msg.AuthorID); err != nil {
		return fmt.Errorf("discarding pending record: %w", err)
	}

	return s.commit(ctx, msg, model.IdentityRecord{ExternalID: pending.ExternalID, Selection: mod.ID})
}

// chooseTier2 accepts up to three mods, at most one of them premium and no
// duplicates, committing once the third selection lands.
func (s *service) chooseTier2(ctx context.Context, msg model.Message, input string) error {
	mod, found, err := s.findMod(ctx, input)
	if err != nil {
		return err
	}
	if !found {
		return s.chat.Reply(ctx, msg, invalidModText)
	}

	pending, err := s.pending.Get(msg.AuthorID)
	if err != nil {
		return fmt.Errorf("fetching pending record: %w", err)
	}
	if pending.Has(mod.ID) {
		return s.chat.Reply(ctx, msg, "You already have this mod!")
	}
	if mod.Type == model.ModTypePremium && pending.HasPremium() {
		return s.chat.Reply(ctx, msg, "You already have a Premium mod selected. Please choose a Basic mod.")
	}

	if err := s.pending.AppendSelection(msg.AuthorID, model.SelectionToken(mod)); err != nil {
		return fmt.Errorf("appending selection: %w", err)
	}

	added := fmt.Sprintf("Basic mod added: **%s**.", mod.ID)
	if mod.Type == model.ModTypePremium {
		added = fmt.Sprintf("Premium mod added: **%s**.", mod.ID)
	}
	if err := s.chat.Reply(ctx, msg, added); err != nil {
		return fmt.Errorf("confirming selection: %w", err)
	}

	return s.checkComplete(ctx, msg)
}

// checkComplete commits a tier 2 record once it holds three selections.
func (s *service) checkComplete(ctx context.Context, msg model.Message) error {
	pending, err := s.pending.Get(msg.AuthorID)
	if err != nil {
		return fmt.Errorf("fetching pending record: %w", err)
	}
	if pending.SelectionCount() < tier2SelectionLimit {
		return nil
	}

	if _, err := s.pending.Discard(msg.AuthorID); err != nil {
		return fmt.Errorf("discarding pending record: %w", err)
	}
	return s.commit(ctx, msg, model.IdentityRecord{ExternalID: pending.ExternalID, Selection: pending.CommitSelection()})
}

// commitAll commits the whole catalog for tier 3/X members.
func (s *service) commitAll(ctx context.Context, msg model.Message) error {
	mods, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}
	pending, err := s.pending.Get(msg.AuthorID)
	if err != nil {
		return fmt.Errorf("fetching pending record: %w", err)
	}
	if _, err := s.pending.Discard(msg.AuthorID); err != nil {
		return fmt.Errorf("discarding pending record: %w", err)
	}

	return s.commit(ctx, msg, model.IdentityRecord{ExternalID: pending.ExternalID, Selection: model.AllModsSelection(mods)})
}

func (s *service) findMod(ctx context.Context, id string) (model.Mod, bool, error) {
	mods, err := s.catalog.List(ctx)
	if err != nil {
		return model.Mod{}, false, fmt.Errorf("listing catalog: %w", err)
	}
	for _, mod := range mods {
		if mod.ID == id {
			return mod, true, nil
		}
	}
	return model.Mod{}, false, nil
}

func (s *service) modListText(tier model.Tier, mods []model.Mod) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("__See full mod list here -> <#%s>__\n", s.config.Discord.ModListChannel))
	for _, mod := range mods {
		switch {
		case mod.Type == model.ModTypeBasic:
			sb.WriteString(":star: **" + mod.ID + "**\n")
		case tier == model.Tier2:
			sb.WriteString(":star2: **" + mod.ID + "**\n")
		}
	}
	return sb.String()
}
