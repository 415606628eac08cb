// Package bridge runs the polling loops that keep the local session view
// reconciled with the remote WhatsApp-gateway instance and forward
// monitored messages to the host.
//
// Three loops with independent cadences share one rate limiter and one
// state machine: a state check every 30 seconds, a QR refresh every 3
// seconds while unauthorized, and a notification drain every 500ms while
// authorized. All loop starts and stops happen on the Run goroutine;
// the loops themselves only signal.
package bridge

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/events"
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/host"
	"github.com/ybarkan/wagate/internal/logging"
	"github.com/ybarkan/wagate/internal/session"
	"github.com/ybarkan/wagate/internal/store"
)

// Provider is the remote-instance surface the loops poll against.
// *greenapi.Client satisfies it.
type Provider interface {
	GetStateInstance(ctx context.Context) (string, error)
	GetQR(ctx context.Context) (*greenapi.QRResponse, error)
	ReceiveNotification(ctx context.Context) (*greenapi.Notification, error)
	DeleteNotification(ctx context.Context, receiptID int64) error
	DownloadFile(ctx context.Context, chatID, idMessage, directURL string) ([]byte, error)
	Reboot(ctx context.Context) error
}

// GroupLister resolves the get_groups command. *groups.Service satisfies it.
type GroupLister interface {
	Fetch(ctx context.Context) ([]events.Group, error)
}

// Bridge owns the polling loops and the command surface.
type Bridge struct {
	cfg      config.PollingConfig
	provider Provider
	groups   GroupLister
	machine  *session.Machine
	monitor  *session.Monitor
	emit     host.Emitter
	archive  *store.Archive // optional
	qrOut    io.Writer
	log      *logging.Logger

	// recheck wakes the Run loop for an immediate state check when a
	// loop observes an out-of-band authorization signal.
	recheck chan struct{}

	// fetchingGroups keeps at most one group fetch in flight; a host
	// hammering get_groups gets one answer, not a retry pile-up.
	fetchingGroups atomic.Bool

	mu    sync.Mutex
	qr    *loopHandle
	notif *loopHandle
}

// Options carries the optional collaborators.
type Options struct {
	Archive *store.Archive // nil disables archiving
	QROut   io.Writer      // QR render target, stderr when nil
}

// New wires a bridge. The emitter receives every host-bound event; the
// QR render target must not be the host wire writer.
func New(cfg config.PollingConfig, provider Provider, groups GroupLister,
	machine *session.Machine, monitor *session.Monitor,
	emit host.Emitter, opts Options, log *logging.Logger) *Bridge {
	return &Bridge{
		cfg:      cfg,
		provider: provider,
		groups:   groups,
		machine:  machine,
		monitor:  monitor,
		emit:     emit,
		archive:  opts.Archive,
		qrOut:    opts.QROut,
		log:      log.Sub("bridge"),
		recheck:  make(chan struct{}, 1),
	}
}

// Run executes the reconciliation loop until the context is cancelled.
// The first state check happens immediately.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info().Msg("bridge starting")
	defer b.log.Info().Msg("bridge stopped")
	defer b.stopLoop(&b.qr)
	defer b.stopLoop(&b.notif)

	for {
		b.checkState(ctx)
		b.reconcile(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.recheck:
		case <-time.After(b.cfg.StateInterval()):
		}
	}
}

// HandleCommand processes one host command. Lifecycle commands (logout)
// are the caller's concern; everything else lands here.
func (b *Bridge) HandleCommand(ctx context.Context, cmd host.Command) {
	switch cmd.Type {
	case host.CmdGetGroups:
		if !b.fetchingGroups.CompareAndSwap(false, true) {
			b.log.Warn().Msg("group fetch already in flight, ignoring")
			return
		}
		// Group listing retries for up to 30 seconds; never block the
		// command reader on it.
		go func() {
			defer b.fetchingGroups.Store(false)
			groups, err := b.groups.Fetch(ctx)
			var msg string
			if err != nil {
				b.log.Error().Err(err).Msg("group fetch failed")
				msg = "Failed to fetch groups: " + err.Error()
			}
			b.emit.Emit(events.NewGroups(groups, msg))
		}()

	case host.CmdMonitorGroup:
		if cmd.GroupID == "" {
			b.emit.Emit(events.NewError("monitor_group requires a groupId"))
			return
		}
		b.monitor.Set(cmd.GroupID)
		b.log.Info().Str("group", cmd.GroupID).Msg("monitoring group")
		b.emit.Emit(events.NewMonitoring(true))

	case host.CmdStopMonitoring:
		b.monitor.Clear()
		b.log.Info().Msg("monitoring stopped")
		b.emit.Emit(events.NewMonitoring(false))

	default:
		b.log.Warn().Str("type", cmd.Type).Msg("unknown command")
		b.emit.Emit(events.NewError("unknown command: " + cmd.Type))
	}
}

// noteStateHint feeds an out-of-band state observation (a webhook or a QR
// endpoint response) into the machine and wakes the Run loop so the
// polling topology catches up. Loop management never happens here: the
// notification loop must not join on its own shutdown.
func (b *Bridge) noteStateHint(raw string) {
	tr := b.machine.Apply(raw)
	b.emitTransition(tr)
	b.signalRecheck()
}

func (b *Bridge) signalRecheck() {
	select {
	case b.recheck <- struct{}{}:
	default:
	}
}

func (b *Bridge) emitTransition(tr session.Transition) {
	switch tr {
	case session.TransitionConnected:
		b.log.Info().Msg("instance authorized")
		b.emit.Emit(events.NewStatus(true))
	case session.TransitionDisconnected:
		b.log.Warn().Msg("instance deauthorized")
		b.emit.Emit(events.NewStatus(false))
		// Deauthorization ends monitoring; the host must re-select a
		// group after the next pairing rather than silently resume.
		if b.monitor.Current().Active {
			b.monitor.Clear()
			b.emit.Emit(events.NewMonitoring(false))
		}
	}
}

// loopHandle tracks one running sub-loop.
type loopHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startLoop launches fn under a child context if the slot is empty.
func (b *Bridge) startLoop(ctx context.Context, slot **loopHandle, fn func(context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if *slot != nil {
		// The QR loop exits on its own after observing authorization; a
		// handle whose loop already finished must not block a restart.
		select {
		case <-(*slot).done:
			*slot = nil
		default:
			return
		}
	}
	lctx, cancel := context.WithCancel(ctx)
	h := &loopHandle{cancel: cancel, done: make(chan struct{})}
	*slot = h
	go func() {
		defer close(h.done)
		fn(lctx)
	}()
}

// stopLoop cancels the slot's loop and waits for it to exit.
func (b *Bridge) stopLoop(slot **loopHandle) {
	b.mu.Lock()
	h := *slot
	*slot = nil
	b.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// reconcile aligns the running sub-loops with the effective state. Only
// the Run goroutine calls this.
func (b *Bridge) reconcile(ctx context.Context) {
	if b.machine.Connected() {
		b.stopLoop(&b.qr)
		b.startLoop(ctx, &b.notif, b.runNotifLoop)
		return
	}

	b.stopLoop(&b.notif)
	// Any unauthorized remote state wants a scan, including a remote
	// wedged in "starting": QR polling is also what earns it the reboot
	// rescue. Only a failed local poll (Error) holds off until the next
	// good state read.
	if b.machine.Current() != session.StateError {
		b.startLoop(ctx, &b.qr, b.runQRLoop)
	} else {
		b.stopLoop(&b.qr)
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
