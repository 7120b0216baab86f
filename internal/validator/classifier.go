package validator

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/triage-ai/querygate/internal/safety"
)

// Classifier turns raw SQL text into a QueryValidationResult. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify parses the input with the PostgreSQL grammar and classifies every
// statement. It fails with a ValidationError on empty input, syntax errors,
// and transaction-control statements; the gateway owns transaction
// boundaries and never lets a caller straddle one.
func (c *Classifier) Classify(sqlText string) (*QueryValidationResult, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, validationErrorf("query cannot be empty")
	}

	parsed, err := pg_query.Parse(sqlText)
	if err != nil {
		return nil, validationErrorf("SQL syntax error: %v", err)
	}

	result := &QueryValidationResult{OriginalQuery: sqlText}

	for _, raw := range parsed.Stmts {
		if raw.Stmt == nil {
			continue
		}

		kind, node := kindOf(raw.Stmt)
		cls := classify(kind)
		cmd := commandForKind(kind)

		// COPY is bidirectional: the statement's own from/to flag decides
		// whether it reads or writes, not the table name.
		if copyStmt, ok := node.(*pg_query.CopyStmt); ok {
			if copyStmt.IsFrom {
				cls = classification{CategoryDML, safety.RiskMedium, false}
			} else {
				cls = classification{CategoryDQL, safety.RiskLow, false}
			}
		}

		// GRANT and REVOKE share one node type, told apart by a flag.
		switch g := node.(type) {
		case *pg_query.GrantStmt:
			if !g.IsGrant {
				cmd = CmdRevoke
			}
		case *pg_query.GrantRoleStmt:
			if !g.IsGrant {
				cmd = CmdRevoke
			}
		}

		stmt := ValidatedStatement{
			Category:    cls.category,
			Command:     cmd,
			Risk:        cls.risk,
			NeedsLedger: cls.needsLedger,
			Text:        statementSpan(sqlText, raw),
		}
		stmt.SchemaName, stmt.ObjectName = relationOf(node)

		if kind == KindTransaction {
			result.HasTransactionControl = true
			stmt.Command = transactionCommand(node)
		}

		result.Statements = append(result.Statements, stmt)
		if stmt.Risk > result.HighestRisk {
			result.HighestRisk = stmt.Risk
		}
	}

	if len(result.Statements) == 0 {
		return nil, validationErrorf("no statements were parsed - please check correctness of your query")
	}

	for _, stmt := range result.Statements {
		if stmt.Category == CategoryTCL {
			return nil, validationErrorf(
				"transaction control statement %s is not allowed; queries are wrapped in transactions by the gateway",
				stmt.Command)
		}
	}

	return result, nil
}

// statementSpan re-extracts a statement's exact source text. A zero length
// means the statement runs to the end of the input.
func statementSpan(sqlText string, raw *pg_query.RawStmt) string {
	start := int(raw.StmtLocation)
	if start < 0 || start > len(sqlText) {
		return strings.TrimSpace(sqlText)
	}
	end := len(sqlText)
	if raw.StmtLen > 0 && start+int(raw.StmtLen) <= len(sqlText) {
		end = start + int(raw.StmtLen)
	}
	return strings.TrimSpace(sqlText[start:end])
}

// kindOf maps a parse-tree node to its StatementKind and unwraps the inner
// node for relation extraction.
func kindOf(node *pg_query.Node) (StatementKind, any) {
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return KindSelect, n.SelectStmt
	case *pg_query.Node_ExplainStmt:
		return KindExplain, n.ExplainStmt
	case *pg_query.Node_InsertStmt:
		return KindInsert, n.InsertStmt
	case *pg_query.Node_UpdateStmt:
		return KindUpdate, n.UpdateStmt
	case *pg_query.Node_DeleteStmt:
		return KindDelete, n.DeleteStmt
	case *pg_query.Node_MergeStmt:
		return KindMerge, n.MergeStmt
	case *pg_query.Node_CreateStmt:
		return KindCreateTable, n.CreateStmt
	case *pg_query.Node_CreateTableAsStmt:
		return KindCreateTableAs, n.CreateTableAsStmt
	case *pg_query.Node_CreateSchemaStmt:
		return KindCreateSchema, n.CreateSchemaStmt
	case *pg_query.Node_CreateExtensionStmt:
		return KindCreateExtension, n.CreateExtensionStmt
	case *pg_query.Node_AlterTableStmt:
		return KindAlterTable, n.AlterTableStmt
	case *pg_query.Node_AlterDomainStmt:
		return KindAlterDomain, n.AlterDomainStmt
	case *pg_query.Node_CreateFunctionStmt:
		return KindCreateFunction, n.CreateFunctionStmt
	case *pg_query.Node_IndexStmt:
		return KindCreateIndex, n.IndexStmt
	case *pg_query.Node_CreateTrigStmt:
		return KindCreateTrigger, n.CreateTrigStmt
	case *pg_query.Node_ViewStmt:
		return KindCreateView, n.ViewStmt
	case *pg_query.Node_CommentStmt:
		return KindComment, n.CommentStmt
	case *pg_query.Node_RenameStmt:
		return KindRename, n.RenameStmt
	case *pg_query.Node_DropStmt:
		return KindDrop, n.DropStmt
	case *pg_query.Node_TruncateStmt:
		return KindTruncate, n.TruncateStmt
	case *pg_query.Node_GrantStmt:
		return KindGrant, n.GrantStmt
	case *pg_query.Node_GrantRoleStmt:
		return KindGrantRole, n.GrantRoleStmt
	case *pg_query.Node_CreateRoleStmt:
		return KindCreateRole, n.CreateRoleStmt
	case *pg_query.Node_AlterRoleStmt:
		return KindAlterRole, n.AlterRoleStmt
	case *pg_query.Node_DropRoleStmt:
		return KindDropRole, n.DropRoleStmt
	case *pg_query.Node_TransactionStmt:
		return KindTransaction, n.TransactionStmt
	case *pg_query.Node_VacuumStmt:
		// VACUUM and ANALYZE share one node type; the flag tells them apart.
		if n.VacuumStmt.IsVacuumcmd {
			return KindVacuum, n.VacuumStmt
		}
		return KindAnalyze, n.VacuumStmt
	case *pg_query.Node_ClusterStmt:
		return KindCluster, n.ClusterStmt
	case *pg_query.Node_CheckPointStmt:
		return KindCheckpoint, n.CheckPointStmt
	case *pg_query.Node_PrepareStmt:
		return KindPrepare, n.PrepareStmt
	case *pg_query.Node_ExecuteStmt:
		return KindExecute, n.ExecuteStmt
	case *pg_query.Node_DeallocateStmt:
		return KindDeallocate, n.DeallocateStmt
	case *pg_query.Node_ListenStmt:
		return KindListen, n.ListenStmt
	case *pg_query.Node_NotifyStmt:
		return KindNotify, n.NotifyStmt
	case *pg_query.Node_CopyStmt:
		return KindCopy, n.CopyStmt
	default:
		return KindUnknown, nil
	}
}

// relationOf extracts the schema and primary object name a statement
// targets, from its single-relation field or the first entry of a
// multi-relation list (TRUNCATE). Statements without a single relation
// target report empty names.
func relationOf(node any) (schema, object string) {
	var rel *pg_query.RangeVar
	switch n := node.(type) {
	case *pg_query.CreateStmt:
		rel = n.Relation
	case *pg_query.AlterTableStmt:
		rel = n.Relation
	case *pg_query.IndexStmt:
		rel = n.Relation
	case *pg_query.CreateTrigStmt:
		rel = n.Relation
	case *pg_query.InsertStmt:
		rel = n.Relation
	case *pg_query.UpdateStmt:
		rel = n.Relation
	case *pg_query.DeleteStmt:
		rel = n.Relation
	case *pg_query.MergeStmt:
		rel = n.Relation
	case *pg_query.CopyStmt:
		rel = n.Relation
	case *pg_query.ViewStmt:
		rel = n.View
	case *pg_query.CreateTableAsStmt:
		if n.Into != nil {
			rel = n.Into.Rel
		}
	case *pg_query.TruncateStmt:
		for _, r := range n.Relations {
			if rv := r.GetRangeVar(); rv != nil {
				rel = rv
				break
			}
		}
	}
	if rel == nil {
		return "", ""
	}
	return rel.Schemaname, rel.Relname
}

// transactionCommand refines the reported verb for a transaction-control
// statement so the rejection message names what the caller actually wrote.
func transactionCommand(node any) Command {
	stmt, ok := node.(*pg_query.TransactionStmt)
	if !ok {
		return CmdBegin
	}
	switch stmt.Kind {
	case pg_query.TransactionStmtKind_TRANS_STMT_BEGIN,
		pg_query.TransactionStmtKind_TRANS_STMT_START:
		return CmdBegin
	case pg_query.TransactionStmtKind_TRANS_STMT_COMMIT,
		pg_query.TransactionStmtKind_TRANS_STMT_COMMIT_PREPARED,
		pg_query.TransactionStmtKind_TRANS_STMT_PREPARE:
		return CmdCommit
	case pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK,
		pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK_TO,
		pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK_PREPARED:
		return CmdRollback
	case pg_query.TransactionStmtKind_TRANS_STMT_SAVEPOINT,
		pg_query.TransactionStmtKind_TRANS_STMT_RELEASE:
		return CmdSavepoint
	default:
		return CmdBegin
	}
}
