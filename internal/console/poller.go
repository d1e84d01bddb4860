package console

import (
	"context"
	"sync"
	"time"

	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
)

const DefaultPollInterval = 10 * time.Second

// PendingPoller periodically counts transactions awaiting billing. It only reports;
// it never changes what the operator is looking at.
type PendingPoller struct {
	api      PendingLister
	interval time.Duration
	onCount  func(int)

	mu      sync.Mutex
	count   int
	known   bool
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewPendingPoller(api PendingLister, interval time.Duration, onCount func(int)) *PendingPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PendingPoller{api: api, interval: interval, onCount: onCount}
}

// Start polls once right away and then every interval until Stop.
func (p *PendingPoller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(stop)
		for {
			select {
			case <-ticker.C:
				p.poll(stop)
			case <-stop:
				return
			}
		}
	}()
}

func (p *PendingPoller) poll(stop chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	page, err := p.api.PendingTransactions(ctx, 0, 1)
	if err != nil {
		logger.Debug("pending poll failed", "error", err)
		return
	}

	p.mu.Lock()
	p.count = page.TotalElements
	p.known = true
	p.mu.Unlock()

	prom.SetPendingBacklog("console", page.TotalElements)
	if p.onCount != nil {
		p.onCount(page.TotalElements)
	}
}

// Count returns the last polled pending count and whether any poll succeeded yet.
func (p *PendingPoller) Count() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, p.known
}

// Stop halts polling and waits for an in-flight poll to finish. Safe to call twice.
func (p *PendingPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()
	p.wg.Wait()
}
