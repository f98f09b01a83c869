package domain

// Plan is the shop's subscription tier. Billing logic lives elsewhere; the sync
// layer only consumes the resource limits derived from it.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// IncludeAllImages reports whether product syncs for this plan persist every
// product image or only the featured one.
func (p Plan) IncludeAllImages() bool {
	switch p {
	case PlanPremium:
		return true
	default:
		return false
	}
}
