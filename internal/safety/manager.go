package safety

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Decision is the outcome of evaluating an operation against the policy
// matrix. Callers branch on the value; the error form only appears at the
// boundary via ValidateOperation.
type Decision struct {
	Allowed              bool
	RequiresConfirmation bool
	Risk                 RiskLevel
	Mode                 Mode
	Reason               string
}

// Manager holds the current mode per surface and the confirmation store.
// One Manager is constructed at process start and handed to every component
// that needs it; mode changes happen only through SetMode.
type Manager struct {
	mu    sync.Mutex
	modes map[Surface]Mode

	confirmations *confirmationStore
	logger        *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the confirmation store's time source. Tests use this
// to exercise expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.confirmations.Close()
		m.confirmations = newConfirmationStore(now)
	}
}

// NewManager creates a Manager with every surface in safe mode.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		modes:         make(map[Surface]Mode),
		confirmations: newConfirmationStore(time.Now),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close stops the confirmation sweeper.
func (m *Manager) Close() {
	m.confirmations.Close()
}

// Mode returns the current mode for a surface. Unset surfaces are safe.
func (m *Manager) Mode(surface Surface) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode, ok := m.modes[surface]; ok {
		return mode
	}
	return SafeMode
}

// SetMode switches a surface's mode. This is the only sanctioned way mode
// changes; it is never a side effect of executing an operation.
func (m *Manager) SetMode(surface Surface, mode Mode) {
	m.mu.Lock()
	prev, ok := m.modes[surface]
	if !ok {
		prev = SafeMode
	}
	m.modes[surface] = mode
	m.mu.Unlock()

	m.logger.Info("safety mode changed",
		zap.String("surface", string(surface)),
		zap.String("from", string(prev)),
		zap.String("to", string(mode)),
	)
}

// Evaluate applies the policy matrix. Pure with respect to the confirmation
// store: it never mints or consumes ids.
//
//	LOW      always allowed
//	MEDIUM   allowed only in unsafe mode
//	HIGH     allowed only in unsafe mode, and only with confirmation
//	EXTREME  never allowed
func (m *Manager) Evaluate(surface Surface, risk RiskLevel, hasConfirmation bool) Decision {
	mode := m.Mode(surface)
	d := Decision{Risk: risk, Mode: mode}

	switch {
	case risk <= RiskLow:
		d.Allowed = true
	case risk == RiskMedium:
		if mode == UnsafeMode {
			d.Allowed = true
		} else {
			d.Reason = "medium-risk operations require unsafe mode"
		}
	case risk == RiskHigh:
		if mode != UnsafeMode {
			d.Reason = "high-risk operations require unsafe mode"
		} else if !hasConfirmation {
			d.RequiresConfirmation = true
			d.Reason = "high-risk operations require explicit confirmation"
		} else {
			d.Allowed = true
		}
	default:
		d.Reason = "extreme-risk operations are never allowed"
	}
	return d
}

// ValidateOperation evaluates an operation and converts a non-allowed
// decision into the matching typed error. On the needs-confirmation path the
// operation is stored verbatim and the returned error carries the new id;
// nothing has been executed at that point.
func (m *Manager) ValidateOperation(surface Surface, risk RiskLevel, hasConfirmation bool, op PendingOperation) error {
	d := m.Evaluate(surface, risk, hasConfirmation)
	if d.Allowed {
		return nil
	}
	if d.RequiresConfirmation {
		id := m.confirmations.Store(op)
		m.logger.Info("confirmation required",
			zap.String("surface", string(surface)),
			zap.String("risk", risk.String()),
			zap.String("confirmation_id", id),
		)
		return &ConfirmationRequiredError{
			Surface:        surface,
			Risk:           risk,
			ConfirmationID: id,
		}
	}
	return &OperationNotAllowedError{
		Surface: surface,
		Risk:    risk,
		Mode:    d.Mode,
		Reason:  d.Reason,
	}
}

// StoreConfirmation registers an operation awaiting confirmation and returns
// its id.
func (m *Manager) StoreConfirmation(op PendingOperation) string {
	return m.confirmations.Store(op)
}

// ConsumeConfirmation returns and removes the pending operation for an id.
// Unknown and expired ids report ok=false. Consumption is atomic: a replay
// after the first success finds nothing.
func (m *Manager) ConsumeConfirmation(id string) (PendingOperation, bool) {
	return m.confirmations.Consume(id)
}

// PendingCount reports how many confirmations are currently stored.
func (m *Manager) PendingCount() int {
	return m.confirmations.Len()
}
