// Package validator parses raw SQL text with the PostgreSQL grammar and
// tags every statement with a category, command, risk level, and whether it
// must be catalogued in the migration ledger. It is a pure function of its
// input; all state lives in static tables.
package validator

import (
	"fmt"

	"github.com/triage-ai/querygate/internal/safety"
)

// Category is the coarse SQL taxonomy used for reporting and for excluding
// transaction-control statements from ledger naming.
type Category string

const (
	CategoryDQL            Category = "DQL"
	CategoryDML            Category = "DML"
	CategoryDDL            Category = "DDL"
	CategoryDCL            Category = "DCL"
	CategoryTCL            Category = "TCL"
	CategoryEngineSpecific Category = "ENGINE_SPECIFIC"
	CategoryOther          Category = "OTHER"
)

// Command is the verb of a single SQL statement.
type Command string

const (
	CmdSelect     Command = "SELECT"
	CmdInsert     Command = "INSERT"
	CmdUpdate     Command = "UPDATE"
	CmdDelete     Command = "DELETE"
	CmdMerge      Command = "MERGE"
	CmdCreate     Command = "CREATE"
	CmdAlter      Command = "ALTER"
	CmdDrop       Command = "DROP"
	CmdTruncate   Command = "TRUNCATE"
	CmdComment    Command = "COMMENT"
	CmdRename     Command = "RENAME"
	CmdGrant      Command = "GRANT"
	CmdRevoke     Command = "REVOKE"
	CmdBegin      Command = "BEGIN"
	CmdCommit     Command = "COMMIT"
	CmdRollback   Command = "ROLLBACK"
	CmdSavepoint  Command = "SAVEPOINT"
	CmdVacuum     Command = "VACUUM"
	CmdAnalyze    Command = "ANALYZE"
	CmdExplain    Command = "EXPLAIN"
	CmdCopy       Command = "COPY"
	CmdListen     Command = "LISTEN"
	CmdNotify     Command = "NOTIFY"
	CmdPrepare    Command = "PREPARE"
	CmdExecute    Command = "EXECUTE"
	CmdDeallocate Command = "DEALLOCATE"
	CmdCluster    Command = "CLUSTER"
	CmdCheckpoint Command = "CHECKPOINT"
	CmdUnknown    Command = "UNKNOWN"
)

// ValidatedStatement is one parsed SQL statement with its classification and
// the exact source-text span it came from, so the original text can be
// re-extracted verbatim for ledger cataloguing and re-execution.
type ValidatedStatement struct {
	Category    Category
	Command     Command
	Risk        safety.RiskLevel
	NeedsLedger bool

	// SchemaName and ObjectName identify the primary relation the statement
	// targets. Empty when the statement touches no single relation.
	SchemaName string
	ObjectName string

	// Text is the statement's exact span of the original input.
	Text string
}

// QueryValidationResult is the outcome for an entire input string.
type QueryValidationResult struct {
	OriginalQuery         string
	Statements            []ValidatedStatement
	HighestRisk           safety.RiskLevel
	HasTransactionControl bool
}

// NeedsLedger reports whether any statement in the batch must be catalogued.
func (r *QueryValidationResult) NeedsLedger() bool {
	for _, stmt := range r.Statements {
		if stmt.NeedsLedger {
			return true
		}
	}
	return false
}

// ValidationError reports malformed SQL syntax, empty input, or a
// disallowed transaction-control statement. Always terminal for the call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
