package bridge

import (
	"context"
	"time"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/greenapi"
)

// runNotifLoop drains the provider's notification inbox while the
// instance is authorized. The drain cadence is nominal until the provider
// pushes back: a 429 or a 5xx elevates the interval, and it stays
// elevated until a receive succeeds again. The loop never terminates on
// its own; only boundary crossings or shutdown stop it.
func (b *Bridge) runNotifLoop(ctx context.Context) {
	log := b.log.Sub("notifications")
	log.Info().Msg("notification polling started")
	defer log.Info().Msg("notification polling stopped")

	delay := b.cfg.NotifInterval()

	for {
		n, err := b.provider.ReceiveNotification(ctx)
		if ctx.Err() != nil {
			return
		}
		delay = nextNotifDelay(b.cfg, err, delay)

		switch {
		case greenapi.IsRateLimit(err):
			log.Warn().Dur("backoff", delay).Msg("rate limited receiving notifications")
		case greenapi.IsServerError(err):
			log.Warn().Err(err).Dur("backoff", delay).Msg("provider error receiving notifications")
		case err != nil:
			log.Error().Err(err).Msg("receive failed")
		case n != nil:
			b.dispatch(ctx, n)
			// Ack unconditionally: a notification the dispatcher could
			// not use would otherwise clog the inbox forever.
			if err := b.provider.DeleteNotification(ctx, n.ReceiptID); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Int64("receiptId", n.ReceiptID).Msg("failed to ack notification")
			}
		}

		if sleepCtx(ctx, delay) != nil {
			return
		}
	}
}

// nextNotifDelay picks the next drain pause from one receive outcome. A
// 429 or 5xx elevates the cadence, any other failure keeps the pace in
// force, and a successful round trip (empty inbox included) restores the
// nominal interval.
func nextNotifDelay(cfg config.PollingConfig, err error, current time.Duration) time.Duration {
	switch {
	case err == nil:
		return cfg.NotifInterval()
	case greenapi.IsRateLimit(err):
		return cfg.NotifRateLimitInterval()
	case greenapi.IsServerError(err):
		return cfg.NotifServerErrInterval()
	default:
		return current
	}
}
