package validator

import "github.com/triage-ai/querygate/internal/safety"

// StatementKind is the closed set of parse-tree node types the classifier
// recognizes. Anything the parser produces outside this set takes the
// default arm: category OTHER, medium risk, no ledger entry. Unknown
// statements fail toward "ask for more privilege", never toward silently
// allowing.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindSelect
	KindExplain
	KindInsert
	KindUpdate
	KindDelete
	KindMerge
	KindCreateTable
	KindCreateTableAs
	KindCreateSchema
	KindCreateExtension
	KindAlterTable
	KindAlterDomain
	KindCreateFunction
	KindCreateIndex
	KindCreateTrigger
	KindCreateView
	KindComment
	KindRename
	KindDrop
	KindTruncate
	KindGrant
	KindGrantRole
	KindCreateRole
	KindAlterRole
	KindDropRole
	KindTransaction
	KindVacuum
	KindAnalyze
	KindCluster
	KindCheckpoint
	KindPrepare
	KindExecute
	KindDeallocate
	KindListen
	KindNotify
	KindCopy
)

type classification struct {
	category    Category
	risk        safety.RiskLevel
	needsLedger bool
}

// statementTable fixes category, default risk, and ledger requirement per
// recognized statement kind. Adding a statement kind means adding a row
// here; there is no fallthrough besides the explicit default.
var statementTable = map[StatementKind]classification{
	// DQL
	KindSelect:  {CategoryDQL, safety.RiskLow, false},
	KindExplain: {CategoryEngineSpecific, safety.RiskLow, false},

	// DML
	KindInsert: {CategoryDML, safety.RiskMedium, false},
	KindUpdate: {CategoryDML, safety.RiskMedium, false},
	KindDelete: {CategoryDML, safety.RiskMedium, false},
	KindMerge:  {CategoryDML, safety.RiskMedium, false},

	// DDL, catalogued in the ledger
	KindCreateTable:     {CategoryDDL, safety.RiskMedium, true},
	KindCreateTableAs:   {CategoryDDL, safety.RiskMedium, true},
	KindCreateSchema:    {CategoryDDL, safety.RiskMedium, true},
	KindCreateExtension: {CategoryDDL, safety.RiskMedium, true},
	KindAlterTable:      {CategoryDDL, safety.RiskMedium, true},
	KindAlterDomain:     {CategoryDDL, safety.RiskMedium, true},
	KindCreateFunction:  {CategoryDDL, safety.RiskMedium, true},
	KindCreateIndex:     {CategoryDDL, safety.RiskMedium, true},
	KindCreateTrigger:   {CategoryDDL, safety.RiskMedium, true},
	KindCreateView:      {CategoryDDL, safety.RiskMedium, true},
	KindComment:         {CategoryDDL, safety.RiskMedium, true},

	// Destructive DDL: high risk, needs confirmation on top of unsafe mode
	KindDrop:     {CategoryDDL, safety.RiskHigh, true},
	KindTruncate: {CategoryDDL, safety.RiskHigh, true},

	// DCL, catalogued in the ledger
	KindGrant:      {CategoryDCL, safety.RiskMedium, true},
	KindGrantRole:  {CategoryDCL, safety.RiskMedium, true},
	KindCreateRole: {CategoryDCL, safety.RiskMedium, true},
	KindAlterRole:  {CategoryDCL, safety.RiskMedium, true},
	KindDropRole:   {CategoryDCL, safety.RiskHigh, true},

	// TCL is never allowed as top-level input; classified so the rejection
	// can name it.
	KindTransaction: {CategoryTCL, safety.RiskLow, false},

	// PostgreSQL-specific
	KindVacuum:     {CategoryEngineSpecific, safety.RiskMedium, false},
	KindAnalyze:    {CategoryEngineSpecific, safety.RiskLow, false},
	KindCluster:    {CategoryEngineSpecific, safety.RiskMedium, false},
	KindCheckpoint: {CategoryEngineSpecific, safety.RiskMedium, false},
	KindPrepare:    {CategoryEngineSpecific, safety.RiskLow, false},
	KindExecute:    {CategoryEngineSpecific, safety.RiskMedium, false},
	KindDeallocate: {CategoryEngineSpecific, safety.RiskLow, false},
	KindListen:     {CategoryEngineSpecific, safety.RiskLow, false},
	KindNotify:     {CategoryEngineSpecific, safety.RiskMedium, false},
}

// defaultClassification is the explicit arm for unrecognized statements.
var defaultClassification = classification{CategoryOther, safety.RiskMedium, false}

func classify(kind StatementKind) classification {
	if c, ok := statementTable[kind]; ok {
		return c
	}
	return defaultClassification
}

// RuleSet summarizes the static statement table for caller introspection:
// which commands are always allowed, which require unsafe mode, and which
// additionally require confirmation.
type RuleSet struct {
	AlwaysAllowed       []Command
	RequireUnsafe       []Command
	RequireConfirmation []Command
	Catalogued          []Command
}

// Rules derives the introspection summary from the statement table.
func Rules() RuleSet {
	var rs RuleSet
	seen := map[Command]safety.RiskLevel{}
	ledger := map[Command]bool{}
	for kind, c := range statementTable {
		if c.category == CategoryTCL {
			continue
		}
		cmd := commandForKind(kind)
		if prev, ok := seen[cmd]; !ok || c.risk > prev {
			seen[cmd] = c.risk
		}
		if c.needsLedger {
			ledger[cmd] = true
		}
	}
	for cmd, risk := range seen {
		switch {
		case risk <= safety.RiskLow:
			rs.AlwaysAllowed = append(rs.AlwaysAllowed, cmd)
		case risk == safety.RiskMedium:
			rs.RequireUnsafe = append(rs.RequireUnsafe, cmd)
		default:
			rs.RequireConfirmation = append(rs.RequireConfirmation, cmd)
		}
	}
	for cmd := range ledger {
		rs.Catalogued = append(rs.Catalogued, cmd)
	}
	return rs
}

// commandForKind maps a statement kind to the verb reported for it.
// Transaction statements are refined separately from the node's own kind.
func commandForKind(kind StatementKind) Command {
	switch kind {
	case KindSelect:
		return CmdSelect
	case KindExplain:
		return CmdExplain
	case KindInsert:
		return CmdInsert
	case KindUpdate:
		return CmdUpdate
	case KindDelete:
		return CmdDelete
	case KindMerge:
		return CmdMerge
	case KindCreateTable, KindCreateTableAs, KindCreateSchema, KindCreateExtension,
		KindCreateFunction, KindCreateIndex, KindCreateTrigger, KindCreateView, KindCreateRole:
		return CmdCreate
	case KindAlterTable, KindAlterDomain, KindAlterRole:
		return CmdAlter
	case KindComment:
		return CmdComment
	case KindRename:
		return CmdRename
	case KindDrop, KindDropRole:
		return CmdDrop
	case KindTruncate:
		return CmdTruncate
	case KindGrant, KindGrantRole:
		return CmdGrant
	case KindTransaction:
		return CmdBegin
	case KindVacuum:
		return CmdVacuum
	case KindAnalyze:
		return CmdAnalyze
	case KindCluster:
		return CmdCluster
	case KindCheckpoint:
		return CmdCheckpoint
	case KindPrepare:
		return CmdPrepare
	case KindExecute:
		return CmdExecute
	case KindDeallocate:
		return CmdDeallocate
	case KindListen:
		return CmdListen
	case KindNotify:
		return CmdNotify
	case KindCopy:
		return CmdCopy
	default:
		return CmdUnknown
	}
}
