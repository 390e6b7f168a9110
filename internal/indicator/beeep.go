package indicator

import (
	"context"

	"github.com/gen2brain/beeep"
)

// beeepSender posts through the platform notification service. It cannot
// replace or close an earlier notification, so dismiss is a no-op.
type beeepSender struct {
	appName string
}

func (b beeepSender) notify(ctx context.Context, _ int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return beeep.Notify(b.appName, text, "")
}

func (beeepSender) dismiss(context.Context) error {
	return nil
}
