package middleware

import (
	"context"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/outbox"
)

// OutboxFlush flushes buffered event records after a command succeeds.
// Ordered inside Transaction so the flush shares the commit fate.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
