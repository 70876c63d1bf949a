package recovery

import (
	"time"
)

// ActionKind is the recovery decision for one failure.
type ActionKind int

const (
	ActionRetryBackoff ActionKind = iota
	ActionReduceBatch
	ActionFallbackOriginal
	ActionSkipEntries
	ActionSwitchProvider
	ActionContinuePartial
	ActionAbort
)

func (a ActionKind) String() string {
	switch a {
	case ActionRetryBackoff:
		return "retry_with_backoff"
	case ActionReduceBatch:
		return "reduce_batch_and_retry"
	case ActionFallbackOriginal:
		return "fallback_to_original"
	case ActionSkipEntries:
		return "skip_entries"
	case ActionSwitchProvider:
		return "switch_provider"
	case ActionContinuePartial:
		return "continue_with_partial"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Decision is one recovery choice: the action plus its parameters.
type Decision struct {
	Action    ActionKind
	Kind      Kind
	Delay     time.Duration
	BatchSize int
	Reason    string
}

// Strategy is a named recovery profile controlling retry budgets, fallback
// use and partial-completion tolerance.
type Strategy struct {
	Name            string
	MaxTotalRetries int
	UseFallback     bool
	AllowPartial    bool
	BatchFloor      int
}

// DefaultStrategy balances persistence against run time.
func DefaultStrategy() Strategy {
	return Strategy{
		Name:            "default",
		MaxTotalRetries: 10,
		UseFallback:     true,
		AllowPartial:    true,
		BatchFloor:      2,
	}
}

// AggressiveStrategy retries hard and never gives up a batch early.
func AggressiveStrategy() Strategy {
	return Strategy{
		Name:            "aggressive",
		MaxTotalRetries: 25,
		UseFallback:     true,
		AllowPartial:    true,
		BatchFloor:      1,
	}
}

// FastFailStrategy aborts at the first non-trivial trouble.
func FastFailStrategy() Strategy {
	return Strategy{
		Name:            "fast-fail",
		MaxTotalRetries: 2,
		UseFallback:     false,
		AllowPartial:    false,
		BatchFloor:      4,
	}
}

// StrategyByName resolves a profile name, defaulting to the default
// profile for unknown names.
func StrategyByName(name string) Strategy {
	switch name {
	case "aggressive":
		return AggressiveStrategy()
	case "fast-fail", "fastfail":
		return FastFailStrategy()
	default:
		return DefaultStrategy()
	}
}

// Handler chooses one recovery action per error. It is an explicit state
// machine over (per-kind retry counts, total retries, current batch size)
// so decisions are deterministic and unit-testable without real I/O.
type Handler struct {
	strategy  Strategy
	retries   map[Kind]int
	total     int
	batchSize int
}

// NewHandler creates a handler for one document run.
func NewHandler(strategy Strategy, batchSize int) *Handler {
	if strategy.BatchFloor < 1 {
		strategy.BatchFloor = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Handler{
		strategy:  strategy,
		retries:   make(map[Kind]int),
		batchSize: batchSize,
	}
}

// BatchSize returns the current (possibly reduced) batch size.
func (h *Handler) BatchSize() int {
	return h.batchSize
}

// TotalRetries returns the cumulative retry count.
func (h *Handler) TotalRetries() int {
	return h.total
}

// ResetBatchSize restores the batch size after a successful stretch.
func (h *Handler) ResetBatchSize(size int) {
	if size >= h.strategy.BatchFloor {
		h.batchSize = size
	}
}

// Decide classifies the error and returns the next action. Calling Decide
// mutates the handler's cumulative state exactly when it grants a retry.
func (h *Handler) Decide(err error) Decision {
	kind := Classify(err)

	if kind.Fatal() {
		return Decision{Action: ActionAbort, Kind: kind, Reason: "fatal error kind"}
	}

	switch kind {
	case KindParseError, KindInvalidResponse:
		// Structural errors: smaller requests are less likely to exceed
		// model output limits, so halve before burning retries.
		if h.batchSize > h.strategy.BatchFloor {
			h.batchSize = max(h.batchSize/2, h.strategy.BatchFloor)
			return Decision{
				Action:    ActionReduceBatch,
				Kind:      kind,
				BatchSize: h.batchSize,
				Reason:    "structural error, reducing batch size",
			}
		}
		if granted, delay := h.grantRetry(kind); granted {
			return Decision{Action: ActionRetryBackoff, Kind: kind, Delay: delay, Reason: "retrying at batch floor"}
		}
		return h.exhausted(kind)

	case KindValidationFailed:
		// Content-quality failures are never auto-retried here; they
		// surface as issues for repair or feedback-informed retries.
		if h.strategy.AllowPartial {
			return Decision{Action: ActionContinuePartial, Kind: kind, Reason: "content-quality failure surfaced in report"}
		}
		return Decision{Action: ActionAbort, Kind: kind, Reason: "validation failed and partial results disallowed"}

	case KindProviderError:
		if granted, delay := h.grantRetry(kind); granted {
			return Decision{Action: ActionRetryBackoff, Kind: kind, Delay: delay, Reason: "provider error, backing off"}
		}
		return Decision{Action: ActionSwitchProvider, Kind: kind, Reason: "provider retries exhausted"}

	default:
		if !kind.Retryable() {
			return h.exhausted(kind)
		}
		if granted, delay := h.grantRetry(kind); granted {
			return Decision{Action: ActionRetryBackoff, Kind: kind, Delay: delay, Reason: "transient error, backing off"}
		}
		return h.exhausted(kind)
	}
}

// grantRetry consumes one retry for the kind if budget remains and returns
// the exponential backoff delay: base × 2^retry_count.
func (h *Handler) grantRetry(kind Kind) (bool, time.Duration) {
	if h.retries[kind] >= kind.MaxRetries() || h.total >= h.strategy.MaxTotalRetries {
		return false, 0
	}
	delay := kind.BaseDelay() * (1 << h.retries[kind])
	h.retries[kind]++
	h.total++
	return true, delay
}

// exhausted picks the terminal action once retries are spent.
func (h *Handler) exhausted(kind Kind) Decision {
	if h.strategy.UseFallback {
		return Decision{Action: ActionFallbackOriginal, Kind: kind, Reason: "retries exhausted, falling back to original text"}
	}
	if h.strategy.AllowPartial {
		return Decision{Action: ActionSkipEntries, Kind: kind, Reason: "retries exhausted, skipping entries"}
	}
	return Decision{Action: ActionAbort, Kind: kind, Reason: "retries exhausted"}
}
