package availability

import "time"

type RuleType string

const (
	RuleEarlyBird     RuleType = "early_bird"
	RuleLastMinute    RuleType = "last_minute"
	RuleGroupDiscount RuleType = "group_discount"
	RuleSeasonal      RuleType = "seasonal"
	RulePromotional   RuleType = "promotional"
)

func (r RuleType) IsValid() bool {
	switch r {
	case RuleEarlyBird, RuleLastMinute, RuleGroupDiscount, RuleSeasonal, RulePromotional:
		return true
	}
	return false
}

// PricingRule is one discount policy in an availability's ordered rule list.
// A rule carries either a percentage or an absolute discount; when both are
// set the percentage wins, matching how prices were computed historically.
type PricingRule struct {
	Type               RuleType   `json:"rule_type"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `json:"discount_amount,omitempty"`
	MinParticipants    *int       `json:"min_participants,omitempty"`
	MaxParticipants    *int       `json:"max_participants,omitempty"`
	ValidFrom          *time.Time `json:"valid_from,omitempty"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	Description        string     `json:"description,omitempty"`
}

// IsApplicable checks the rule's participant and date windows. Absent bounds
// impose no constraint.
func (r *PricingRule) IsApplicable(participants int, at time.Time) bool {
	if r.MinParticipants != nil && participants < *r.MinParticipants {
		return false
	}
	if r.MaxParticipants != nil && participants > *r.MaxParticipants {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return false
	}
	return true
}

// AppliedDiscount records one rule that fired during a price computation, for
// the booking's audit trail and total recomputation.
type AppliedDiscount struct {
	Type               RuleType `json:"discount_type"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty"`
	Description        string   `json:"description,omitempty"`
}

// ComputePrice computes the total price for a group of participants booking
// at bookingTime. Rules apply in list order and stack cumulatively: each
// applicable rule acts on the already-discounted running price, so rule order
// changes the result. That is intentional policy, kept for compatibility with
// existing providers' rule lists. The result never goes below zero.
func ComputePrice(basePrice float64, participants int, bookingTime time.Time, rules []PricingRule) float64 {
	price := basePrice * float64(participants)

	for i := range rules {
		rule := &rules[i]
		if !rule.IsApplicable(participants, bookingTime) {
			continue
		}
		if rule.DiscountPercentage != nil {
			price *= 1 - *rule.DiscountPercentage/100
		} else if rule.DiscountAmount != nil {
			price -= *rule.DiscountAmount
		}
	}

	if price < 0 {
		return 0
	}
	return price
}

// Quote computes the total price and reports which rules fired. The total is
// identical to ComputePrice for the same inputs.
func Quote(basePrice float64, participants int, bookingTime time.Time, rules []PricingRule) (float64, []AppliedDiscount) {
	price := basePrice * float64(participants)
	var applied []AppliedDiscount

	for i := range rules {
		rule := &rules[i]
		if !rule.IsApplicable(participants, bookingTime) {
			continue
		}
		if rule.DiscountPercentage != nil {
			price *= 1 - *rule.DiscountPercentage/100
		} else if rule.DiscountAmount != nil {
			price -= *rule.DiscountAmount
		} else {
			continue
		}
		applied = append(applied, AppliedDiscount{
			Type:               rule.Type,
			DiscountPercentage: rule.DiscountPercentage,
			DiscountAmount:     rule.DiscountAmount,
			Description:        rule.Description,
		})
	}

	if price < 0 {
		price = 0
	}
	return price, applied
}

// StackDiscounts reapplies a booking's recorded discounts to a raw total,
// using the same cumulative semantics as ComputePrice. Bookings use this to
// recompute total_amount whenever price, participant count, or the discount
// list changes.
func StackDiscounts(total float64, discounts []AppliedDiscount) float64 {
	for i := range discounts {
		d := &discounts[i]
		if d.DiscountPercentage != nil {
			total *= 1 - *d.DiscountPercentage/100
		} else if d.DiscountAmount != nil {
			total -= *d.DiscountAmount
		}
	}
	if total < 0 {
		return 0
	}
	return total
}
