package decision

import (
	"sort"

	"lendgate/internal/policy"
)

// maxRejectionReasons bounds the disclosed rejection list; the audit
// record keeps the full set.
const maxRejectionReasons = 3

// assembleReasons deduplicates reason tuples by rule key and orders
// them for disclosure: hard cap violations first, then adjustments and
// soft flags in evaluation order. For a rejection only the leading
// hard reasons are disclosed.
func assembleReasons(reasons []policy.Reason, decision policy.Decision) []policy.Reason {
	seen := make(map[string]bool, len(reasons))
	out := make([]policy.Reason, 0, len(reasons))
	for _, r := range reasons {
		if seen[r.RuleKey] {
			continue
		}
		seen[r.RuleKey] = true
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hard && !out[j].Hard
	})

	if decision == policy.DecisionRejected && len(out) > maxRejectionReasons {
		out = out[:maxRejectionReasons]
	}
	return out
}
