package desk

import (
	"context"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/store"
)

// JournalPatch updates an order's journal metadata. Nil fields untouched.
type JournalPatch struct {
	Notes         *string
	Tags          *string
	ScreenshotURL *string
}

// UpdateJournal attaches notes/tags/screenshot to an order. Journal
// metadata is writable on open and closed orders alike; it never touches
// the accounting fields.
func (d *Desk) UpdateJournal(ctx context.Context, challengeID, orderID string, patch JournalPatch) (account.Order, error) {
	o, err := d.store.GetOrder(ctx, orderID)
	if err != nil {
		return account.Order{}, err
	}
	if o.ChallengeID != challengeID {
		return account.Order{}, store.ErrOrderNotFound
	}

	err = d.store.UpdateOrder(ctx, orderID, store.OrderPatch{
		Notes:         patch.Notes,
		Tags:          patch.Tags,
		ScreenshotURL: patch.ScreenshotURL,
	})
	if err != nil {
		return account.Order{}, err
	}
	return d.store.GetOrder(ctx, orderID)
}
