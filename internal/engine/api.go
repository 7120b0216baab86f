package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/querygate/internal/apirisk"
	"github.com/triage-ai/querygate/internal/safety"
	"github.com/triage-ai/querygate/internal/storage"
	"go.uber.org/zap"
)

// APIManager mirrors QueryManager for the management-API surface: classify
// the path, enforce policy, delegate. There is no ledger step on this
// surface.
type APIManager struct {
	client     APIClient
	safety     *safety.Manager
	classifier *apirisk.Classifier
	writer     storage.EventWriter
	logger     *zap.Logger
}

func NewAPIManager(
	client APIClient,
	safetyMgr *safety.Manager,
	classifier *apirisk.Classifier,
	writer storage.EventWriter,
	logger *zap.Logger,
) *APIManager {
	return &APIManager{
		client:     client,
		safety:     safetyMgr,
		classifier: classifier,
		writer:     writer,
		logger:     logger,
	}
}

// HandleRequest classifies and executes one management-API request.
func (m *APIManager) HandleRequest(ctx context.Context, method, path string, query map[string]string, body map[string]any, hasConfirmation bool) (any, error) {
	start := time.Now()
	requestID := uuid.NewString()
	operation := strings.ToUpper(method) + " " + path

	risk := m.classifier.ClassifyRequest(method, path)

	err := m.safety.ValidateOperation(
		safety.SurfaceAPI,
		risk,
		hasConfirmation,
		safety.PendingOperation{
			Surface:     safety.SurfaceAPI,
			Method:      method,
			Path:        path,
			QueryParams: query,
			Body:        body,
		},
	)
	if err != nil {
		verdict := "denied"
		confirmationID := ""
		var confirmErr *safety.ConfirmationRequiredError
		if errors.As(err, &confirmErr) {
			verdict = "needs_confirmation"
			confirmationID = confirmErr.ConfirmationID
		}
		m.audit(requestID, operation, risk.String(), confirmationID, verdict, err.Error(), hasConfirmation, start)
		return nil, err
	}

	result, err := m.client.Execute(ctx, method, path, query, body)
	if err != nil {
		m.audit(requestID, operation, risk.String(), "", "error", err.Error(), hasConfirmation, start)
		return nil, err
	}

	m.audit(requestID, operation, risk.String(), "", "allowed", "", hasConfirmation, start)
	return result, nil
}

// HandleConfirmation replays a stored API request by its confirmation id,
// through the same HandleRequest path.
func (m *APIManager) HandleConfirmation(ctx context.Context, confirmationID string) (any, error) {
	op, ok := m.safety.ConsumeConfirmation(confirmationID)
	if !ok || op.Surface != safety.SurfaceAPI {
		return nil, &safety.Error{Message: fmt.Sprintf("invalid or expired confirmation id: %s", confirmationID)}
	}

	m.logger.Debug("replaying confirmed API request",
		zap.String("confirmation_id", confirmationID),
	)
	return m.HandleRequest(ctx, op.Method, op.Path, op.QueryParams, op.Body, true)
}

// SafetyRules summarizes the API-surface policy for caller introspection,
// derived from the static path tables.
func (m *APIManager) SafetyRules() string {
	mode := m.safety.Mode(safety.SurfaceAPI)

	var b strings.Builder
	b.WriteString("Management API safety rules:\n\n")
	b.WriteString("EXTREME risk (never allowed):\n")
	writeOperations(&b, apirisk.OperationsByRisk(safety.RiskExtreme))
	b.WriteString("\nHIGH risk (require unsafe mode plus confirmation):\n")
	writeOperations(&b, apirisk.OperationsByRisk(safety.RiskHigh))
	b.WriteString("\nMEDIUM risk (require unsafe mode):\n")
	writeOperations(&b, apirisk.OperationsByRisk(safety.RiskMedium))
	b.WriteString("\nPaths not listed above also default to MEDIUM risk. This is deliberate: ")
	b.WriteString("unknown endpoints, including read-only ones, are blocked in safe mode until whitelisted.\n")
	fmt.Fprintf(&b, "\nCurrent mode: %s\n", mode)
	return b.String()
}

func writeOperations(b *strings.Builder, ops map[string][]string) {
	if len(ops) == 0 {
		b.WriteString("- none\n")
		return
	}
	methods := make([]string, 0, len(ops))
	for method := range ops {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for _, method := range methods {
		for _, path := range ops[method] {
			fmt.Fprintf(b, "- %s %s\n", method, path)
		}
	}
}

func (m *APIManager) audit(requestID, operation, risk, confirmationID, verdict, reason string, hadConfirm bool, start time.Time) {
	if m.writer == nil {
		return
	}
	m.writer.Write(&storage.DecisionEvent{
		RequestID:      requestID,
		Timestamp:      time.Now(),
		Surface:        string(safety.SurfaceAPI),
		Kind:           "api_request",
		Operation:      truncateOp(operation),
		Risk:           risk,
		Mode:           string(m.safety.Mode(safety.SurfaceAPI)),
		Verdict:        verdict,
		Reason:         reason,
		ConfirmationID: confirmationID,
		HadConfirm:     hadConfirm,
		LatencyMs:      float32(time.Since(start).Seconds() * 1000),
	})
}
