package domain

// Plan is a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanElite Plan = "elite"
)

// Action is a metered feature a subject spends quota on.
type Action string

const (
	ActionDownload Action = "download"
	ActionExtract  Action = "extract"
	ActionSummary  Action = "summary"
)

// ValidAction reports whether s names a known metered action.
func ValidAction(s string) bool {
	switch Action(s) {
	case ActionDownload, ActionExtract, ActionSummary:
		return true
	}
	return false
}

// Unlimited is the ceiling used for paid tiers. It is a plain large number,
// not a flag: every allowance check is `count < ceiling`, no special cases.
const Unlimited = 1_000_000_000

// PlanLimits holds the per-action ceilings for one plan.
type PlanLimits struct {
	Download int `json:"download"`
	Extract  int `json:"extract"`
	Summary  int `json:"summary"`
}

// Ceiling returns the limit for a single action.
func (l PlanLimits) Ceiling(action Action) int {
	switch action {
	case ActionDownload:
		return l.Download
	case ActionExtract:
		return l.Extract
	case ActionSummary:
		return l.Summary
	}
	return 0
}

// Registry maps plans to their ceilings. It is immutable after construction
// and injected wherever limits are needed, so tests can substitute fixtures.
type Registry struct {
	limits map[Plan]PlanLimits
}

// NewRegistry builds a Registry from an explicit limits table.
func NewRegistry(limits map[Plan]PlanLimits) *Registry {
	m := make(map[Plan]PlanLimits, len(limits))
	for p, l := range limits {
		m[p] = l
	}
	return &Registry{limits: m}
}

// DefaultRegistry returns the production limits table.
func DefaultRegistry() *Registry {
	return NewRegistry(map[Plan]PlanLimits{
		PlanFree:  {Download: 3, Extract: 3, Summary: 2},
		PlanPro:   {Download: Unlimited, Extract: Unlimited, Summary: Unlimited},
		PlanElite: {Download: Unlimited, Extract: Unlimited, Summary: Unlimited},
	})
}

// LimitsFor returns the ceilings for a plan. Unknown plans get FREE limits.
func (r *Registry) LimitsFor(plan Plan) PlanLimits {
	if l, ok := r.limits[plan]; ok {
		return l
	}
	return r.limits[PlanFree]
}

// Plans lists the known tiers in ascending order, for the public plans endpoint.
func (r *Registry) Plans() []PlanInfo {
	out := make([]PlanInfo, 0, 3)
	for _, p := range []Plan{PlanFree, PlanPro, PlanElite} {
		if l, ok := r.limits[p]; ok {
			out = append(out, PlanInfo{Plan: p, Limits: l})
		}
	}
	return out
}

// PlanInfo is the public representation of one tier.
type PlanInfo struct {
	Plan   Plan       `json:"plan"`
	Limits PlanLimits `json:"limits"`
}
