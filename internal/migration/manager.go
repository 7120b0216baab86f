// Package migration derives ledger names for schema-changing SQL and
// renders the insert statement that catalogues them. It never executes
// anything itself; the rendered SQL goes back to the orchestrator.
package migration

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/triage-ai/querygate/internal/validator"
)

// DefaultLedgerTable is where catalogued statements land. The schema and
// table are assumed to pre-exist; the gateway never creates them.
const DefaultLedgerTable = "supabase_migrations.schema_migrations"

const maxNameLen = 100

// randomWords pads the defensive fallback name when no statement in a batch
// is eligible for naming.
var randomWords = []string{
	"apple", "banana", "cherry", "date", "elder", "fig", "grape", "honey",
	"iris", "jade", "kiwi", "lemon", "mango", "navy", "olive", "peach",
	"quartz", "ruby", "silver", "teal", "umber", "violet", "wheat",
	"yellow", "zinc",
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Manager prepares ledger inserts. Versions are second-precision timestamps
// and never decrease within a process, even if the wall clock does.
type Manager struct {
	ledgerTable string
	now         func() time.Time

	mu          sync.Mutex
	lastVersion string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLedgerTable overrides the ledger target table.
func WithLedgerTable(table string) Option {
	return func(m *Manager) {
		if table != "" {
			m.ledgerTable = table
		}
	}
}

// WithClock overrides the version clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		ledgerTable: DefaultLedgerTable,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prepare renders the ledger insert for a validated batch and returns it
// with the derived name. nameOverride, when non-empty, is sanitized and used
// instead of the derived name.
func (m *Manager) Prepare(validation *validator.QueryValidationResult, originalQuery string, nameOverride string) (migrationSQL, name string) {
	if nameOverride != "" {
		name = SanitizeName(nameOverride)
	} else {
		name = DescriptiveName(validation)
	}

	version := m.nextVersion()
	escaped := strings.ReplaceAll(originalQuery, "'", "''")

	migrationSQL = fmt.Sprintf(
		"INSERT INTO %s (version, name, statements) VALUES ('%s', '%s', ARRAY['%s']);",
		m.ledgerTable, version, name, escaped,
	)
	return migrationSQL, name
}

// DescriptiveName builds command_schema_object from the first non-TCL
// statement flagged for the ledger. Schema defaults to "public" and object
// to "unknown". A batch with no eligible statement gets migration_<word>,
// which should not occur given the invocation precondition but guarantees a
// legible name.
func DescriptiveName(validation *validator.QueryValidationResult) string {
	var picked *validator.ValidatedStatement
	for i := range validation.Statements {
		stmt := &validation.Statements[i]
		if stmt.Category == validator.CategoryTCL {
			continue
		}
		if stmt.NeedsLedger {
			picked = stmt
			break
		}
	}
	if picked == nil {
		return "migration_" + randomWords[rand.Intn(len(randomWords))]
	}

	schema := strings.ToLower(picked.SchemaName)
	if schema == "" {
		schema = "public"
	}
	object := strings.ToLower(picked.ObjectName)
	if object == "" {
		object = "unknown"
	}
	command := strings.ToLower(string(picked.Command))

	return SanitizeName(command + "_" + schema + "_" + object)
}

// SanitizeName strips everything but word characters and whitespace,
// collapses whitespace runs to single underscores, lowercases, and caps the
// length at 100.
func SanitizeName(name string) string {
	s := nonWordRe.ReplaceAllString(name, "")
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, "_")
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	return s
}

// nextVersion formats the clock as YYYYMMDDHHMMSS and clamps it to be
// non-decreasing. Collisions across rapid-fire calls are tolerated by the
// ledger itself.
func (m *Manager) nextVersion() string {
	version := m.now().Format("20060102150405")

	m.mu.Lock()
	defer m.mu.Unlock()
	if version < m.lastVersion {
		version = m.lastVersion
	}
	m.lastVersion = version
	return version
}
