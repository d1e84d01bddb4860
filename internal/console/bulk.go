package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
	"github.com/gfconnector/billing-console/pkg/worker"
)

// Selection is the set of transaction ids ticked in the list.
type Selection struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSelection(ids ...string) *Selection {
	s := &Selection{ids: map[string]struct{}{}}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = map[string]struct{}{}
}

// BulkResult is the outcome of one bulk confirmation run.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    map[string]error
}

func (r BulkResult) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed", r.Succeeded, r.Failed)
}

// BulkConfirmer confirms billing for every selected transaction. Each id is attempted
// independently; one failure never stops the rest.
type BulkConfirmer struct {
	api      BillingConfirmer
	workers  int
	notifier Notifier
	refresh  []func()
}

// NewBulkConfirmer runs confirmations on workers goroutines, 1 meaning strictly
// sequential. refresh callbacks run after every bulk run, whatever the outcome.
func NewBulkConfirmer(api BillingConfirmer, workers int, notifier Notifier, refresh ...func()) *BulkConfirmer {
	if workers < 1 {
		workers = 1
	}
	return &BulkConfirmer{api: api, workers: workers, notifier: notifier, refresh: refresh}
}

type bulkJob struct {
	id string
}

func (b *BulkConfirmer) Run(ctx context.Context, sel *Selection) BulkResult {
	ids := sel.IDs()
	res := BulkResult{Errors: map[string]error{}}
	if len(ids) == 0 {
		return res
	}

	var (
		mu   sync.Mutex
		done sync.WaitGroup
	)
	pool := worker.NewWorkerManager(len(ids), b.workers, nil)
	pool.SetWorker(func(workerIndex int, v interface{}) {
		defer done.Done()
		j := v.(bulkJob)
		var err error
		if ctx.Err() != nil {
			err = ctx.Err()
		} else {
			_, err = b.api.ConfirmBilling(ctx, j.id)
		}
		prom.RecordBulkItem(prom.Result(err))

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Warn("bulk confirmation item failed", "worker", workerIndex, "transaction_id", j.id, "error", err)
			res.Failed++
			res.Errors[j.id] = err
			return
		}
		res.Succeeded++
	})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := pool.Start(); err != nil && !errors.Is(err, worker.ErrWorkersTerminated) {
			logger.Error("bulk worker pool stopped", "error", err)
		}
	}()

	done.Add(len(ids))
	for _, id := range ids {
		pool.Enqueue(bulkJob{id: id})
	}
	done.Wait()
	pool.Exit()
	<-stopped

	sel.Clear()
	logger.Info("bulk confirmation finished", "succeeded", res.Succeeded, "failed", res.Failed)
	if b.notifier != nil {
		kind := ToastSuccess
		if res.Failed > 0 {
			kind = ToastWarning
		}
		b.notifier.Notify(kind, res.Summary())
	}
	for _, fn := range b.refresh {
		fn()
	}
	return res
}
