package safety

import "fmt"

// OperationNotAllowedError reports an operation whose risk level is
// forbidden under the current mode: MEDIUM or HIGH while safe, or EXTREME in
// any mode. Terminal for the call.
type OperationNotAllowedError struct {
	Surface Surface
	Risk    RiskLevel
	Mode    Mode
	Reason  string
}

func (e *OperationNotAllowedError) Error() string {
	return fmt.Sprintf("operation not allowed on %s surface (risk %s, mode %s): %s",
		e.Surface, e.Risk, e.Mode, e.Reason)
}

// ConfirmationRequiredError reports a HIGH-risk operation attempted in
// unsafe mode without a prior confirmation. It carries the freshly minted
// confirmation id; the caller is expected to re-submit through the
// confirmation path.
type ConfirmationRequiredError struct {
	Surface        Surface
	Risk           RiskLevel
	ConfirmationID string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("operation on %s surface requires confirmation (risk %s); "+
		"re-submit with confirmation id %s within %s",
		e.Surface, e.Risk, e.ConfirmationID, ConfirmationTTL)
}

// Error is the catch-all for policy-store inconsistencies, such as a
// confirmation id that is unknown or already expired.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }
