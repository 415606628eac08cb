package bridge

import (
	"context"
	"os"
	"time"

	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/qr"
)

const (
	// qrMaxMisses is how many consecutive polls may come back without a
	// usable QR before the instance is presumed wedged and rebooted.
	qrMaxMisses = 10

	// rebootPause gives the instance time to come back before polling
	// resumes.
	rebootPause = 10 * time.Second
)

// QR endpoint response types.
const (
	qrTypeCode          = "qrCode"
	qrTypeAlreadyLogged = "alreadyLogged"
	qrTypeError         = "error"
)

// runQRLoop polls the QR endpoint while the instance is unauthorized and
// renders fresh codes to the terminal. The first poll is immediate. Each
// tick confirms the instance state; once authorized the loop stops itself
// and wakes the Run loop so the notification poller takes over.
func (b *Bridge) runQRLoop(ctx context.Context) {
	log := b.log.Sub("qr")
	log.Info().Msg("qr polling started")
	defer log.Info().Msg("qr polling stopped")

	out := b.qrOut
	if out == nil {
		out = os.Stderr
	}

	dedup := qr.NewDeduper(b.cfg.QRDedupWindow())
	misses := 0

	for {
		// The QR endpoint lags the instance state, so each tick confirms
		// the state first; a successful scan is noticed within one
		// interval instead of waiting for the slow state poller.
		state, serr := b.provider.GetStateInstance(ctx)
		switch {
		case serr != nil:
			if ctx.Err() != nil {
				return
			}
			if greenapi.IsRateLimit(serr) {
				b.machine.ApplyRateLimited()
			} else {
				b.machine.ApplyError()
			}
			log.Warn().Err(serr).Msg("state check failed during qr polling")
		default:
			b.emitTransition(b.machine.Apply(state))
			if b.machine.Connected() {
				log.Info().Msg("instance authorized, stopping qr polling")
				b.signalRecheck()
				return
			}
		}

		resp, err := b.provider.GetQR(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			// Transport failures say nothing about the instance, so they
			// do not count toward the reboot threshold.
			log.Warn().Err(err).Msg("qr fetch failed")

		case resp == nil:
			misses++

		case resp.Type == qrTypeAlreadyLogged:
			log.Info().Msg("qr endpoint reports instance already authorized")
			misses = 0
			b.signalRecheck()

		case resp.Type == qrTypeError:
			misses++
			log.Warn().Str("message", resp.Message).Int("misses", misses).Msg("qr endpoint error")

		default:
			payload := resp.Message
			if payload == "" {
				payload = resp.QR
			}
			if payload == "" {
				misses++
				log.Warn().Int("misses", misses).Msg("qr response carried no code")
				break
			}
			misses = 0

			// Decode before consulting the deduper: a payload that fails
			// to decode must not count as displayed, or it would be
			// suppressed for the whole dedup window.
			token, terr := qr.ExtractToken(payload)
			if terr != nil {
				log.Error().Err(terr).Msg("failed to decode qr payload")
			} else if dedup.ShouldDisplay(payload) {
				qr.Render(token, out)
				log.Info().Msg("qr code displayed, scan with WhatsApp")
			}
		}

		if misses > qrMaxMisses {
			log.Warn().Int("misses", misses).Msg("qr unavailable too long, rebooting instance")
			if err := b.provider.Reboot(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("reboot failed")
			}
			misses = 0
			if sleepCtx(ctx, rebootPause) != nil {
				return
			}
			continue
		}

		if sleepCtx(ctx, b.cfg.QRInterval()) != nil {
			return
		}
	}
}
