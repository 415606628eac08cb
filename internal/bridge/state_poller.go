package bridge

import (
	"context"

	"github.com/ybarkan/wagate/internal/greenapi"
)

// checkState polls the remote authorization state once and feeds it into
// the machine. Failures never cross the authorization boundary: a rate
// limit preserves the machine untouched, any other error only marks the
// current state for observability.
func (b *Bridge) checkState(ctx context.Context) {
	raw, err := b.provider.GetStateInstance(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if greenapi.IsRateLimit(err) {
			b.log.Warn().Msg("state check rate limited, keeping current status")
			b.machine.ApplyRateLimited()
			return
		}
		b.log.Error().Err(err).Msg("state check failed")
		b.machine.ApplyError()
		return
	}

	b.log.Debug().Str("state", raw).Msg("state checked")
	tr := b.machine.Apply(raw)
	b.emitTransition(tr)
}
