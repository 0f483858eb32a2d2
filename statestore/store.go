// Package statestore persists per-chat dialog state between updates.
package statestore

import "context"

// Store keeps the dialog state for each chat. Get reports found=false
// when the chat has no stored state yet.
type Store interface {
	Get(ctx context.Context, chatID int64) (state string, found bool, err error)
	Set(ctx context.Context, chatID int64, state string) error
}
