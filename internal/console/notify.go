// Package console holds the operator-facing state machines: the transaction list,
// the pending-billing review queue, bulk confirmation and the text renderers.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gfconnector/billing-console/pkg/logger"
)

type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastWarning ToastKind = "warning"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Kind    ToastKind
	Message string
	At      time.Time
}

// Notifier surfaces transient messages for operator actions.
type Notifier interface {
	Notify(kind ToastKind, message string)
}

// ToastLog keeps every toast and echoes it to out when set.
type ToastLog struct {
	mu     sync.Mutex
	out    io.Writer
	toasts []Toast
}

func NewToastLog(out io.Writer) *ToastLog {
	return &ToastLog{out: out}
}

func (l *ToastLog) Notify(kind ToastKind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toasts = append(l.toasts, Toast{Kind: kind, Message: message, At: time.Now()})
	if l.out != nil {
		fmt.Fprintf(l.out, "[%s] %s\n", kind, message)
	}
	logger.Debug("toast", "kind", kind, "message", message)
}

func (l *ToastLog) Toasts() []Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Toast, len(l.toasts))
	copy(out, l.toasts)
	return out
}

// Last returns the most recent toast, or a zero Toast.
func (l *ToastLog) Last() Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.toasts) == 0 {
		return Toast{}
	}
	return l.toasts[len(l.toasts)-1]
}
