package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/querygate/internal/migration"
	"github.com/triage-ai/querygate/internal/safety"
	"github.com/triage-ai/querygate/internal/storage"
	"github.com/triage-ai/querygate/internal/validator"
	"go.uber.org/zap"
)

// QueryManager is the single entry point for SQL operations: it classifies,
// enforces policy, catalogues ledger-worthy statements, and delegates
// execution.
type QueryManager struct {
	client     DatabaseClient
	safety     *safety.Manager
	classifier *validator.Classifier
	migrations *migration.Manager
	writer     storage.EventWriter
	logger     *zap.Logger
}

// NewQueryManager wires the orchestrator. All dependencies are injected;
// nothing here is a singleton.
func NewQueryManager(
	client DatabaseClient,
	safetyMgr *safety.Manager,
	classifier *validator.Classifier,
	migrations *migration.Manager,
	writer storage.EventWriter,
	logger *zap.Logger,
) *QueryManager {
	return &QueryManager{
		client:     client,
		safety:     safetyMgr,
		classifier: classifier,
		migrations: migrations,
		writer:     writer,
		logger:     logger,
	}
}

// readonly reports whether execution must use read-only transaction
// semantics. Safe mode always does, regardless of the statements' risk.
func (m *QueryManager) readonly() bool {
	return m.safety.Mode(safety.SurfaceDatabase) == safety.SafeMode
}

// HandleQuery validates sqlText, enforces the safety policy, catalogues the
// batch in the migration ledger when required, and executes it.
// migrationName, when non-empty, overrides the derived ledger name.
//
// A HIGH-risk batch without confirmation returns a
// ConfirmationRequiredError carrying the id of the stored, unexecuted
// query; nothing has run at that point.
func (m *QueryManager) HandleQuery(ctx context.Context, sqlText string, hasConfirmation bool, migrationName string) (*QueryResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	validation, err := m.classifier.Classify(sqlText)
	if err != nil {
		m.audit(requestID, "query", sqlText, "", "", "error", err.Error(), hasConfirmation, start)
		return nil, err
	}

	err = m.safety.ValidateOperation(
		safety.SurfaceDatabase,
		validation.HighestRisk,
		hasConfirmation,
		safety.PendingOperation{Surface: safety.SurfaceDatabase, Query: sqlText},
	)
	if err != nil {
		verdict := "denied"
		confirmationID := ""
		var confirmErr *safety.ConfirmationRequiredError
		if errors.As(err, &confirmErr) {
			verdict = "needs_confirmation"
			confirmationID = confirmErr.ConfirmationID
		}
		m.audit(requestID, "query", sqlText, validation.HighestRisk.String(), confirmationID, verdict, err.Error(), hasConfirmation, start)
		return nil, err
	}

	if validation.NeedsLedger() {
		if err := m.catalogue(ctx, validation, sqlText, migrationName); err != nil {
			// Fail closed: the caller's statements do not run uncatalogued.
			m.audit(requestID, "query", sqlText, validation.HighestRisk.String(), "", "error", err.Error(), hasConfirmation, start)
			return nil, err
		}
	}

	result, err := m.execute(ctx, validation)
	if err != nil {
		m.audit(requestID, "query", sqlText, validation.HighestRisk.String(), "", "error", err.Error(), hasConfirmation, start)
		return nil, err
	}

	m.audit(requestID, "query", sqlText, validation.HighestRisk.String(), "", "allowed", "", hasConfirmation, start)
	return result, nil
}

// HandleConfirmation resolves a confirmation id back into the original
// query and replays it through HandleQuery. The same codepath runs both
// ways, so confirmed execution cannot drift from the normal path.
func (m *QueryManager) HandleConfirmation(ctx context.Context, confirmationID string) (*QueryResult, error) {
	op, ok := m.safety.ConsumeConfirmation(confirmationID)
	if !ok || op.Surface != safety.SurfaceDatabase {
		return nil, &safety.Error{Message: fmt.Sprintf("invalid or expired confirmation id: %s", confirmationID)}
	}

	m.logger.Debug("replaying confirmed query",
		zap.String("confirmation_id", confirmationID),
	)
	return m.HandleQuery(ctx, op.Query, true, "")
}

// catalogue writes the ledger insert for the batch before the batch itself
// runs. The insert goes through the same execution client as everything
// else.
func (m *QueryManager) catalogue(ctx context.Context, validation *validator.QueryValidationResult, originalQuery, migrationName string) error {
	ledgerSQL, name := m.migrations.Prepare(validation, originalQuery, migrationName)

	if _, err := m.client.Execute(ctx, []string{ledgerSQL}, false); err != nil {
		m.logger.Error("migration ledger insert failed",
			zap.String("migration", name),
			zap.Error(err),
		)
		return fmt.Errorf("migration ledger insert failed, operation aborted: %w", err)
	}

	m.logger.Info("catalogued migration", zap.String("migration", name))
	return nil
}

func (m *QueryManager) execute(ctx context.Context, validation *validator.QueryValidationResult) (*QueryResult, error) {
	statements := make([]string, 0, len(validation.Statements))
	for _, stmt := range validation.Statements {
		if stmt.Text != "" {
			statements = append(statements, stmt.Text)
		}
	}

	rowSets, err := m.client.Execute(ctx, statements, m.readonly())
	if err != nil {
		return nil, err
	}
	return &QueryResult{Results: rowSets}, nil
}

// SafetyRules summarizes the database-surface policy for caller
// introspection, derived from the static statement table.
func (m *QueryManager) SafetyRules() string {
	rules := validator.Rules()
	mode := m.safety.Mode(safety.SurfaceDatabase)

	var b strings.Builder
	b.WriteString("Database safety rules:\n\n")
	b.WriteString("Always allowed (low risk):\n")
	writeCommands(&b, rules.AlwaysAllowed)
	b.WriteString("\nRequire unsafe mode (medium risk):\n")
	writeCommands(&b, rules.RequireUnsafe)
	b.WriteString("\nRequire unsafe mode plus confirmation (high risk):\n")
	writeCommands(&b, rules.RequireConfirmation)
	b.WriteString("\nCatalogued in the migration ledger before execution:\n")
	writeCommands(&b, rules.Catalogued)
	b.WriteString("\nTransaction control statements (BEGIN/COMMIT/ROLLBACK/SAVEPOINT) are rejected; ")
	b.WriteString("the gateway manages transactions itself.\n")
	b.WriteString("Unrecognized statements are treated as medium risk.\n")
	fmt.Fprintf(&b, "\nCurrent mode: %s\n", mode)
	if mode == safety.SafeMode {
		b.WriteString("In safe mode all statements run inside a read-only transaction.\n")
	}
	return b.String()
}

func writeCommands(b *strings.Builder, commands []validator.Command) {
	sorted := make([]string, 0, len(commands))
	for _, cmd := range commands {
		sorted = append(sorted, string(cmd))
	}
	sort.Strings(sorted)
	for _, cmd := range sorted {
		fmt.Fprintf(b, "- %s\n", cmd)
	}
}

func (m *QueryManager) audit(requestID, kind, operation, risk, confirmationID, verdict, reason string, hadConfirm bool, start time.Time) {
	if m.writer == nil {
		return
	}
	m.writer.Write(&storage.DecisionEvent{
		RequestID:      requestID,
		Timestamp:      time.Now(),
		Surface:        string(safety.SurfaceDatabase),
		Kind:           kind,
		Operation:      truncateOp(operation),
		Risk:           risk,
		Mode:           string(m.safety.Mode(safety.SurfaceDatabase)),
		Verdict:        verdict,
		Reason:         reason,
		ConfirmationID: confirmationID,
		HadConfirm:     hadConfirm,
		LatencyMs:      float32(time.Since(start).Seconds() * 1000),
	})
}
