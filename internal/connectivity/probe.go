// ABOUTME: Reachability probers and a poller that turns them into readings.
// ABOUTME: Probes are advisory; the sync engine still handles per-entry failures.
package connectivity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// Prober checks whether the remote store is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Check runs one probe and reports reachability.
func Check(ctx context.Context, p Prober) bool {
	if p == nil {
		return false
	}
	return p.Probe(ctx) == nil
}

// HTTPProber sends a HEAD request to a health URL.
// Any response below 500 counts as reachable.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.URL, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe %s: status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// TCPProber dials an address.
type TCPProber struct {
	Addr    string
	Timeout time.Duration
}

func (p TCPProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.Addr, err)
	}
	return conn.Close()
}

// StaticProber always reports the same answer. Used for --offline.
type StaticProber bool

func (p StaticProber) Probe(context.Context) error {
	if p {
		return nil
	}
	return fmt.Errorf("forced offline")
}

// Poller probes on an interval and emits readings.
type Poller struct {
	Prober   Prober
	Interval time.Duration
	Logger   *zap.Logger
}

// Readings starts polling and returns the reading channel.
// The first reading is taken immediately. The channel closes when ctx is done.
func (p *Poller) Readings(ctx context.Context) <-chan bool {
	out := make(chan bool)
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			probeCtx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
			err := p.Prober.Probe(probeCtx)
			cancel()
			if err != nil {
				logger.Debug("probe failed", zap.Error(err))
			}

			select {
			case out <- err == nil:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
