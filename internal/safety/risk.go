// Package safety holds the shared risk vocabulary, the per-surface safety
// mode, the policy evaluator, and the confirmation store. Every classifier
// in the gateway speaks in terms of this package's RiskLevel.
package safety

// RiskLevel orders operations from harmless to forbidden. The ordering is
// load-bearing: policy rules compare levels, and a batch's effective risk is
// the maximum across its statements.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
	RiskExtreme
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// Mode is the operating state of a single client surface.
// Surfaces always start in SafeMode.
type Mode string

const (
	SafeMode   Mode = "safe"
	UnsafeMode Mode = "unsafe"
)

// Surface identifies one of the independently-moded targets the gateway
// protects.
type Surface string

const (
	SurfaceDatabase Surface = "database"
	SurfaceAPI      Surface = "api"
)
