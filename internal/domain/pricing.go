package domain

// PlanPrice is one purchasable SKU: the plan it grants, the charge in USD
// cents, and how many months of access it buys.
type PlanPrice struct {
	Plan        Plan
	AmountCents int64
	Months      int
	DisplayName string
}

// PriceTable maps SKU strings to prices. Like Registry it is immutable and
// injected into the payment service at construction.
type PriceTable struct {
	prices map[string]PlanPrice
}

// NewPriceTable builds a PriceTable from an explicit SKU table.
func NewPriceTable(prices map[string]PlanPrice) *PriceTable {
	m := make(map[string]PlanPrice, len(prices))
	for sku, p := range prices {
		m[sku] = p
	}
	return &PriceTable{prices: m}
}

// DefaultPriceTable returns the production SKU table.
func DefaultPriceTable() *PriceTable {
	return NewPriceTable(map[string]PlanPrice{
		"plan_pro_monthly":   {Plan: PlanPro, AmountCents: 999, Months: 1, DisplayName: "Pro Monthly"},
		"plan_pro_yearly":    {Plan: PlanPro, AmountCents: 5999, Months: 12, DisplayName: "Pro Yearly"},
		"plan_elite_monthly": {Plan: PlanElite, AmountCents: 1999, Months: 1, DisplayName: "Elite Monthly"},
		"plan_elite_yearly":  {Plan: PlanElite, AmountCents: 11999, Months: 12, DisplayName: "Elite Yearly"},
	})
}

// Resolve looks up a SKU. Unknown SKUs are a validation error; resolution
// happens before any gateway call is made.
func (t *PriceTable) Resolve(sku string) (PlanPrice, error) {
	p, ok := t.prices[sku]
	if !ok {
		return PlanPrice{}, ErrBadRequest("unknown plan type: " + sku)
	}
	return p, nil
}
