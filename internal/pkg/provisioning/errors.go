package provisioning

import (
	"errors"
	"fmt"
)

// Step identifies where a provisioning run failed. The ledger stores this
// alongside the failure so an operator replay knows what to expect.
type Step string

const (
	StepExtract      Step = "extract"
	StepFindTenant   Step = "find_tenant"
	StepGenerateKey  Step = "generate_key"
	StepUpsertTenant Step = "upsert_tenant"
	StepLinkOwner    Step = "link_owner"
)

// Error wraps a provisioning failure with the handle and step it happened
// at, plus the retry classification the webhook entry point needs to pick
// the right HTTP status. Retryable failures (store unreachable, timeout)
// get a 5xx so the provider redelivers; everything else is acknowledged
// with the failure recorded.
type Error struct {
	Handle    string
	Step      Step
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Handle == "" {
		return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("provisioning %q failed at %s: %v", e.Handle, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error should be surfaced as a 5xx so the
// provider redelivers the event. Unknown errors count as retryable; a lost
// delivery is worse than a redundant one, and the ledger dedupes anyway.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return true
}
