package forward

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tternquist/conduit-proxy/internal/config"
	"github.com/tternquist/conduit-proxy/internal/metrics"
)

// Forwarder relays every connection accepted on a listener to a fixed target.
type Forwarder struct {
	ln       net.Listener
	target   config.Addr
	dialer   net.Dialer
	recorder *metrics.Recorder
	logger   *slog.Logger
	// failLog throttles connect-failure logging; failures are still counted.
	failLog *rate.Limiter

	wg sync.WaitGroup
}

// New returns a Forwarder from ln to target. A nil connectTimeout dials
// without a timeout.
func New(ln net.Listener, target config.Addr, connectTimeout *time.Duration, recorder *metrics.Recorder, logger *slog.Logger) *Forwarder {
	f := &Forwarder{
		ln:       ln,
		target:   target,
		recorder: recorder,
		logger:   logger,
		failLog:  rate.NewLimiter(rate.Every(10*time.Second), 3),
	}
	if connectTimeout != nil {
		f.dialer.Timeout = *connectTimeout
	}
	return f
}

// Serve accepts until ctx is done or the listener fails, then waits for open
// connections to finish. It closes the listener when ctx is done.
func (f *Forwarder) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = f.ln.Close() })
	defer stop()
	defer f.wg.Wait()

	for {
		conn, err := f.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		f.record(metrics.Event{Kind: metrics.EventAccepted})
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.handle(ctx, conn)
		}()
	}
}

func (f *Forwarder) handle(ctx context.Context, in net.Conn) {
	defer in.Close()

	out, err := f.dialer.DialContext(ctx, "tcp", f.target.String())
	if err != nil {
		f.record(metrics.Event{Kind: metrics.EventConnectFailed})
		if f.logger != nil && f.failLog.Allow() {
			f.logger.Warn("forward connect failed", "target", f.target.String(), "remote", in.RemoteAddr().String(), "err", err)
		}
		return
	}
	defer out.Close()

	// unblock both copies if the proxy is shutting down
	stop := context.AfterFunc(ctx, func() {
		_ = in.Close()
		_ = out.Close()
	})
	defer stop()

	var total int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	pipe := func(dst, src net.Conn) {
		defer wg.Done()
		n, _ := io.Copy(dst, src)
		closeWrite(dst)
		mu.Lock()
		total += n
		mu.Unlock()
	}
	wg.Add(2)
	go pipe(out, in)
	go pipe(in, out)
	wg.Wait()

	f.record(metrics.Event{Kind: metrics.EventClosed, Bytes: total})
}

func (f *Forwarder) record(ev metrics.Event) {
	if f.recorder != nil {
		f.recorder.Record(ev)
	}
}

func closeWrite(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
		return
	}
	_ = c.Close()
}
