// Package apirisk maps (HTTP method, path) pairs on the project-management
// API to risk levels using ordered pattern tables. The tables are static
// configuration: adding an endpoint means adding a table entry.
package apirisk

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/triage-ai/querygate/internal/safety"
)

// placeholderRe matches named placeholders such as {ref} or {function_slug}
// in a path template.
var placeholderRe = regexp.MustCompile(`\{[a-zA-Z_]+\}`)

// Classifier evaluates path templates from EXTREME down to MEDIUM; the first
// match wins. Unmatched paths default to MEDIUM; unknown operations are
// never treated as low risk, which deliberately means unlisted read-only
// GET endpoints are blocked in safe mode.
type Classifier struct {
	compileOnce sync.Once
	compiled    map[safety.RiskLevel]map[string][]*regexp.Regexp
}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// ClassifyRequest returns the risk level for a concrete method and path.
func (c *Classifier) ClassifyRequest(method, path string) safety.RiskLevel {
	c.compileOnce.Do(c.compile)

	method = strings.ToUpper(method)
	for _, risk := range []safety.RiskLevel{safety.RiskExtreme, safety.RiskHigh, safety.RiskMedium} {
		for _, re := range c.compiled[risk][method] {
			if re.MatchString(path) {
				return risk
			}
		}
	}
	return safety.RiskMedium
}

// OperationsByRisk returns the raw template tables for a risk level, keyed
// by method, for caller introspection.
func OperationsByRisk(risk safety.RiskLevel) map[string][]string {
	table, ok := pathRiskTable[risk]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(table))
	for method, paths := range table {
		cp := make([]string, len(paths))
		copy(cp, paths)
		sort.Strings(cp)
		out[method] = cp
	}
	return out
}

func (c *Classifier) compile() {
	c.compiled = make(map[safety.RiskLevel]map[string][]*regexp.Regexp, len(pathRiskTable))
	for risk, methods := range pathRiskTable {
		c.compiled[risk] = make(map[string][]*regexp.Regexp, len(methods))
		for method, templates := range methods {
			res := make([]*regexp.Regexp, 0, len(templates))
			for _, tmpl := range templates {
				res = append(res, compileTemplate(tmpl))
			}
			c.compiled[risk][method] = res
		}
	}
}

// compileTemplate turns a path template into an anchored regexp where each
// placeholder matches exactly one path segment.
func compileTemplate(template string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		b.WriteString(`[^/]+`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
