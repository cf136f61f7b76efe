// Package catalog exposes the selectable mod list held in the remote
// catalog store. The store is re-read on every call so edits to the
// catalog take effect without a restart.
package catalog

import (
	"context"
	"fmt"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
	"github.com/NathanKirby/AlgoMod-Bot/internal/remotestore"
)

type ContentReader interface {
	Read(ctx context.Context, repo string) (*remotestore.Document, error)
}

type accessor struct {
	store ContentReader
	repo  string
}

func New(store ContentReader, config *boot.Config) *accessor {
	return &accessor{store: store, repo: config.Store.Catalog}
}

func (a *accessor) List(ctx context.Context) ([]model.Mod, error) {
	doc, err := a.store.Read(ctx, a.repo)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return model.ParseCatalog(doc.Content), nil
}
