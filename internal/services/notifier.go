package services

import (
	"context"
	"errors"
)

// Notifier delivers a plain-text message to a user outside of the dialog
// they are currently in. Delivery is best-effort.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
}

// MultiNotifier fans a message out to every channel and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyUser(ctx context.Context, userID int64, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyUser(ctx, userID, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
