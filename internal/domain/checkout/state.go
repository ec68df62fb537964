package checkout

import "github.com/shopflow-io/shopflow/internal/domain/order"

type Stage string

const (
	StageShipping   Stage = "shipping"
	StagePayment    Stage = "payment"
	StageReview     Stage = "review"
	StageSubmitting Stage = "submitting"
	StageConfirmed  Stage = "confirmed"
	StageFailed     Stage = "failed"
)

// sessionState implements the state pattern for the checkout flow.
// Each transition returns the next state, or an error when the action is
// not legal from the current stage.
type sessionState interface {
	Stage() Stage
	SubmitShipping(s *Session, addr order.ShippingAddress) (sessionState, error)
	SelectPayment(s *Session, method order.PaymentMethod) (sessionState, error)
	BeginSubmit(s *Session) (sessionState, error)
	Complete(s *Session, orderID string) (sessionState, error)
	Fail(s *Session, reason string) (sessionState, error)
}

func stateFor(stage Stage) sessionState {
	switch stage {
	case StagePayment:
		return paymentState{}
	case StageReview:
		return reviewState{}
	case StageSubmitting:
		return submittingState{}
	case StageConfirmed:
		return confirmedState{}
	case StageFailed:
		return failedState{}
	default:
		return shippingState{}
	}
}

type shippingState struct{}

func (shippingState) Stage() Stage { return StageShipping }

func (shippingState) SubmitShipping(s *Session, addr order.ShippingAddress) (sessionState, error) {
	s.Shipping = &addr
	return paymentState{}, nil
}

func (shippingState) SelectPayment(*Session, order.PaymentMethod) (sessionState, error) {
	return nil, ErrShippingRequired
}

func (shippingState) BeginSubmit(*Session) (sessionState, error) {
	return nil, ErrShippingRequired
}

func (shippingState) Complete(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (shippingState) Fail(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type paymentState struct{}

func (paymentState) Stage() Stage { return StagePayment }

// Re-submitting shipping from the payment step stays on the payment step;
// the customer edited the address before picking a method.
func (paymentState) SubmitShipping(s *Session, addr order.ShippingAddress) (sessionState, error) {
	s.Shipping = &addr
	return paymentState{}, nil
}

func (paymentState) SelectPayment(s *Session, method order.PaymentMethod) (sessionState, error) {
	s.Method = method
	return reviewState{}, nil
}

func (paymentState) BeginSubmit(*Session) (sessionState, error) {
	return nil, ErrPaymentMethodRequired
}

func (paymentState) Complete(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (paymentState) Fail(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type reviewState struct{}

func (reviewState) Stage() Stage { return StageReview }

func (reviewState) SubmitShipping(s *Session, addr order.ShippingAddress) (sessionState, error) {
	s.Shipping = &addr
	return reviewState{}, nil
}

func (reviewState) SelectPayment(s *Session, method order.PaymentMethod) (sessionState, error) {
	s.Method = method
	return reviewState{}, nil
}

func (reviewState) BeginSubmit(s *Session) (sessionState, error) {
	if s.Shipping == nil {
		return shippingState{}, ErrShippingRequired
	}
	return submittingState{}, nil
}

func (reviewState) Complete(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (reviewState) Fail(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type submittingState struct{}

func (submittingState) Stage() Stage { return StageSubmitting }

func (submittingState) SubmitShipping(*Session, order.ShippingAddress) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (submittingState) SelectPayment(*Session, order.PaymentMethod) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (submittingState) BeginSubmit(*Session) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (submittingState) Complete(*Session, string) (sessionState, error) {
	return confirmedState{}, nil
}

func (submittingState) Fail(*Session, string) (sessionState, error) {
	return failedState{}, nil
}

// failedState keeps the staged shipping and payment data so the customer
// retries from review without re-entering anything.
type failedState struct{}

func (failedState) Stage() Stage { return StageFailed }

func (failedState) SubmitShipping(s *Session, addr order.ShippingAddress) (sessionState, error) {
	s.Shipping = &addr
	return failedState{}, nil
}

func (failedState) SelectPayment(s *Session, method order.PaymentMethod) (sessionState, error) {
	s.Method = method
	return failedState{}, nil
}

func (failedState) BeginSubmit(s *Session) (sessionState, error) {
	if s.Shipping == nil {
		return shippingState{}, ErrShippingRequired
	}
	return submittingState{}, nil
}

func (failedState) Complete(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (failedState) Fail(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type confirmedState struct{}

func (confirmedState) Stage() Stage { return StageConfirmed }

func (confirmedState) SubmitShipping(*Session, order.ShippingAddress) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (confirmedState) SelectPayment(*Session, order.PaymentMethod) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (confirmedState) BeginSubmit(*Session) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (confirmedState) Complete(s *Session, orderID string) (sessionState, error) {
	if s.OrderID == orderID {
		return confirmedState{}, nil
	}
	return nil, ErrInvalidStateTransition
}

func (confirmedState) Fail(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}
