package gateway

// softDeclineReasons are decline codes worth retrying on a later pass.
var softDeclineReasons = map[string]bool{
	ReasonInvalidPaymentMethod: true,
	ReasonTransactionTimedOut:  true,
}

// Validator classifies authorization details as accepted, soft-declined or
// hard-declined.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil when the authorization is acceptable (pending or
// successfully settled), a SoftDeclineError for transient declines, and a
// HardDeclineError for permanent ones.
func (v *Validator) Validate(details *AuthorizationDetails) error {
	switch details.State {
	case AuthStatePending, AuthStateOpen:
		return nil
	case AuthStateDeclined:
		if softDeclineReasons[details.ReasonCode] {
			return NewSoftDecline(details.ReasonCode, "authorization declined by gateway")
		}
		return NewHardDecline(details.ReasonCode, nil)
	case AuthStateClosed:
		// A closed authorization with a capture settled normally. Closed
		// without one means it expired before capture.
		if details.CaptureOccurred() || details.ReasonCode == ReasonMaxCapturesProcessed {
			return nil
		}
		return NewHardDecline(ReasonExpired, nil)
	default:
		return NewHardDecline(details.ReasonCode, nil)
	}
}
