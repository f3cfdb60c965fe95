package domain

// CheckoutStep identifies a position in the ordered checkout workflow.
type CheckoutStep int

const (
	StepNone     CheckoutStep = 0
	StepContact  CheckoutStep = 1
	StepShipping CheckoutStep = 2
	StepBilling  CheckoutStep = 3
	StepReview   CheckoutStep = 4
	StepAccount  CheckoutStep = 5
)

func (s CheckoutStep) String() string {
	switch s {
	case StepContact:
		return "contact"
	case StepShipping:
		return "shipping"
	case StepBilling:
		return "billing"
	case StepReview:
		return "review"
	case StepAccount:
		return "create-account"
	default:
		return "none"
	}
}

// CheckoutState is the workflow record serialized into the session.
type CheckoutState struct {
	HighestCompletedStep CheckoutStep `json:"highestCompletedStep"`
	Contact              *Contact     `json:"contact,omitempty"`
	ShippingAddress      *Address     `json:"shippingAddress,omitempty"`
	ShippingNickname     string       `json:"shippingNickname,omitempty"`
	BillingAddress       *Address     `json:"billingAddress,omitempty"`
	GiftCardNumbers      []string     `json:"giftCards,omitempty"`
	PayAttempts          int          `json:"payAttempts,omitempty"`
	SubmittedOrderID     string       `json:"submittedOrderId,omitempty"`
}

// Submitted reports whether the workflow has already produced an order,
// which freezes every step up to and including review.
func (cs *CheckoutState) Submitted() bool {
	return cs.SubmittedOrderID != ""
}

// MarkComplete raises HighestCompletedStep; it never lowers it.
func (cs *CheckoutState) MarkComplete(step CheckoutStep) {
	if step > cs.HighestCompletedStep {
		cs.HighestCompletedStep = step
	}
}

// CanEnter applies the no-skipping rule: step N may only be entered when
// N <= highest completed + 1.
func (cs *CheckoutState) CanEnter(step CheckoutStep) bool {
	return step <= cs.HighestCompletedStep+1
}

// NextStep is where a redirect should land after the current progress.
func (cs *CheckoutState) NextStep() CheckoutStep {
	if cs.Submitted() {
		return StepAccount
	}
	next := cs.HighestCompletedStep + 1
	if next > StepAccount {
		next = StepAccount
	}
	return next
}

// HasGiftCard reports whether the normalized number is already applied.
func (cs *CheckoutState) HasGiftCard(number string) bool {
	for _, n := range cs.GiftCardNumbers {
		if n == number {
			return true
		}
	}
	return false
}
