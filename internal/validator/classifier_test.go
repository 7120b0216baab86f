package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/triage-ai/querygate/internal/safety"
)

func TestClassify_Select(t *testing.T) {
	c := NewClassifier()
	result, err := c.Classify("SELECT id, name FROM users WHERE active = true")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(result.Statements))
	}
	stmt := result.Statements[0]
	if stmt.Category != CategoryDQL {
		t.Errorf("expected DQL, got %s", stmt.Category)
	}
	if stmt.Command != CmdSelect {
		t.Errorf("expected SELECT, got %s", stmt.Command)
	}
	if stmt.Risk != safety.RiskLow {
		t.Errorf("expected low risk, got %s", stmt.Risk)
	}
	if stmt.NeedsLedger {
		t.Error("SELECT must not need the ledger")
	}
	if result.HighestRisk != safety.RiskLow {
		t.Errorf("expected low highest risk, got %s", result.HighestRisk)
	}
}

func TestClassify_WriteStatements(t *testing.T) {
	tests := []struct {
		sql      string
		category Category
		command  Command
		risk     safety.RiskLevel
		ledger   bool
	}{
		{"INSERT INTO users (name) VALUES ('a')", CategoryDML, CmdInsert, safety.RiskMedium, false},
		{"UPDATE users SET name = 'b' WHERE id = 1", CategoryDML, CmdUpdate, safety.RiskMedium, false},
		{"DELETE FROM users WHERE id = 1", CategoryDML, CmdDelete, safety.RiskMedium, false},
		{"CREATE TABLE items (id serial PRIMARY KEY)", CategoryDDL, CmdCreate, safety.RiskMedium, true},
		{"CREATE INDEX idx_users_name ON users (name)", CategoryDDL, CmdCreate, safety.RiskMedium, true},
		{"CREATE VIEW active_users AS SELECT * FROM users WHERE active", CategoryDDL, CmdCreate, safety.RiskMedium, true},
		{"ALTER TABLE users ADD COLUMN age int", CategoryDDL, CmdAlter, safety.RiskMedium, true},
		{"COMMENT ON TABLE users IS 'people'", CategoryDDL, CmdComment, safety.RiskMedium, true},
		{"DROP TABLE users", CategoryDDL, CmdDrop, safety.RiskHigh, true},
		{"TRUNCATE users", CategoryDDL, CmdTruncate, safety.RiskHigh, true},
		{"GRANT SELECT ON users TO reporting", CategoryDCL, CmdGrant, safety.RiskMedium, true},
		{"REVOKE SELECT ON users FROM reporting", CategoryDCL, CmdRevoke, safety.RiskMedium, true},
		{"CREATE ROLE reporting", CategoryDCL, CmdCreate, safety.RiskMedium, true},
		{"DROP ROLE reporting", CategoryDCL, CmdDrop, safety.RiskHigh, true},
	}
	c := NewClassifier()
	for _, tt := range tests {
		result, err := c.Classify(tt.sql)
		if err != nil {
			t.Fatalf("%s: %v", tt.sql, err)
		}
		stmt := result.Statements[0]
		if stmt.Category != tt.category {
			t.Errorf("%s: expected category %s, got %s", tt.sql, tt.category, stmt.Category)
		}
		if stmt.Command != tt.command {
			t.Errorf("%s: expected command %s, got %s", tt.sql, tt.command, stmt.Command)
		}
		if stmt.Risk != tt.risk {
			t.Errorf("%s: expected risk %s, got %s", tt.sql, tt.risk, stmt.Risk)
		}
		if stmt.NeedsLedger != tt.ledger {
			t.Errorf("%s: expected ledger=%v, got %v", tt.sql, tt.ledger, stmt.NeedsLedger)
		}
	}
}

func TestClassify_TransactionControlRejected(t *testing.T) {
	c := NewClassifier()
	for _, sql := range []string{
		"BEGIN",
		"COMMIT",
		"ROLLBACK",
		"BEGIN; SELECT 1; COMMIT",
	} {
		_, err := c.Classify(sql)
		if err == nil {
			t.Fatalf("%s: expected rejection", sql)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %T", sql, err)
		}
		if !strings.Contains(vErr.Message, "transaction control") {
			t.Errorf("%s: unexpected message %q", sql, vErr.Message)
		}
	}
}

func TestClassify_CopyDirection(t *testing.T) {
	c := NewClassifier()

	out, err := c.Classify("COPY users TO STDOUT")
	if err != nil {
		t.Fatal(err)
	}
	if out.Statements[0].Category != CategoryDQL || out.Statements[0].Risk != safety.RiskLow {
		t.Errorf("COPY TO should be a read: %+v", out.Statements[0])
	}

	in, err := c.Classify("COPY users FROM STDIN")
	if err != nil {
		t.Fatal(err)
	}
	if in.Statements[0].Category != CategoryDML || in.Statements[0].Risk != safety.RiskMedium {
		t.Errorf("COPY FROM should be a write: %+v", in.Statements[0])
	}
}

func TestClassify_VacuumAnalyzeSplit(t *testing.T) {
	c := NewClassifier()

	vac, err := c.Classify("VACUUM users")
	if err != nil {
		t.Fatal(err)
	}
	if vac.Statements[0].Command != CmdVacuum {
		t.Errorf("expected VACUUM, got %s", vac.Statements[0].Command)
	}

	ana, err := c.Classify("ANALYZE users")
	if err != nil {
		t.Fatal(err)
	}
	if ana.Statements[0].Command != CmdAnalyze {
		t.Errorf("expected ANALYZE, got %s", ana.Statements[0].Command)
	}
}

func TestClassify_RelationExtraction(t *testing.T) {
	tests := []struct {
		sql    string
		schema string
		object string
	}{
		{"CREATE TABLE public.users (id int)", "public", "users"},
		{"CREATE TABLE audit.events (id int)", "audit", "events"},
		{"CREATE TABLE orders (id int)", "", "orders"},
		{"ALTER TABLE billing.invoices ADD COLUMN total numeric", "billing", "invoices"},
		{"DROP TABLE public.sessions", "", ""},
	}
	c := NewClassifier()
	for _, tt := range tests {
		result, err := c.Classify(tt.sql)
		if err != nil {
			t.Fatalf("%s: %v", tt.sql, err)
		}
		stmt := result.Statements[0]
		if stmt.SchemaName != tt.schema || stmt.ObjectName != tt.object {
			t.Errorf("%s: expected %q.%q, got %q.%q",
				tt.sql, tt.schema, tt.object, stmt.SchemaName, stmt.ObjectName)
		}
	}
}

func TestClassify_MultiStatementHighestRisk(t *testing.T) {
	c := NewClassifier()
	result, err := c.Classify("SELECT 1; INSERT INTO t VALUES (1); DROP TABLE t;")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(result.Statements))
	}
	if result.HighestRisk != safety.RiskHigh {
		t.Errorf("expected high risk, got %s", result.HighestRisk)
	}
	if !result.NeedsLedger() {
		t.Error("batch with DDL must need the ledger")
	}
	if got := result.Statements[2].Text; got != "DROP TABLE t" {
		t.Errorf("unexpected statement span %q", got)
	}
}

func TestClassify_StatementTextSpans(t *testing.T) {
	c := NewClassifier()
	sql := "SELECT 1;\nSELECT 2"
	result, err := c.Classify(sql)
	if err != nil {
		t.Fatal(err)
	}
	if result.Statements[0].Text != "SELECT 1" {
		t.Errorf("first span %q", result.Statements[0].Text)
	}
	if result.Statements[1].Text != "SELECT 2" {
		t.Errorf("second span %q", result.Statements[1].Text)
	}
}

func TestClassify_SyntaxError(t *testing.T) {
	c := NewClassifier()
	_, err := c.Classify("SELEKT * FROM users")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	c := NewClassifier()
	for _, sql := range []string{"", "   ", "\n\t"} {
		if _, err := c.Classify(sql); err == nil {
			t.Fatalf("%q: expected rejection", sql)
		}
	}
}

func TestClassify_UnknownStatementDefaultsMedium(t *testing.T) {
	c := NewClassifier()
	result, err := c.Classify("ALTER TABLE users RENAME TO people")
	if err != nil {
		t.Fatal(err)
	}
	stmt := result.Statements[0]
	if stmt.Risk != safety.RiskMedium {
		t.Errorf("expected medium risk for unlisted statement, got %s", stmt.Risk)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := NewClassifier()
	sql := "CREATE TABLE public.users (id int); DROP TABLE old_users"
	first, err := c.Classify(sql)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Classify(sql)
	if err != nil {
		t.Fatal(err)
	}
	if first.HighestRisk != second.HighestRisk || len(first.Statements) != len(second.Statements) {
		t.Error("classification is not stable across calls")
	}
	for i := range first.Statements {
		if first.Statements[i] != second.Statements[i] {
			t.Errorf("statement %d differs between runs", i)
		}
	}
}
