// Package notify fires an optional desktop notification when a run
// completes, adapted from the teacher's internal/notifications toast
// path (ToastNotifier). Always falls back to a log line on platforms
// where toast notifications are unsupported, so a run never depends on
// the notification succeeding.
package notify

import (
	"fmt"
	"log"
	"runtime"

	"github.com/go-toast/toast"
)

// Notifier fires a single notification announcing a run's outcome.
type Notifier struct {
	appID string
	log   *log.Logger
}

// New builds a Notifier. logger may be nil, in which case the standard
// logger is used.
func New(logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{appID: "ai-coscientist", log: logger}
}

// RunCompleted announces that a run finished with the given status and
// hypothesis count. On unsupported platforms, or if the toast push
// itself fails, it logs instead of returning an error — a notification
// failure must never be mistaken for a run failure.
func (n *Notifier) RunCompleted(status string, topHypotheses int) {
	title := "Research run completed"
	message := fmt.Sprintf("status=%s top_hypotheses=%d", status, topHypotheses)

	if runtime.GOOS != "windows" {
		n.log.Printf("[notify] %s: %s", title, message)
		return
	}

	notification := toast.Notification{
		AppID:   n.appID,
		Title:   title,
		Message: message,
		Audio:   toast.Default,
	}
	if err := notification.Push(); err != nil {
		n.log.Printf("[notify] toast push failed, %s: %s (%v)", title, message, err)
	}
}
