package githubapi

import (
	"errors"
	"fmt"
)

const (
	accountNameRequiredMessageConstant         = "account name required"
	unknownAccountKindTemplateConstant         = "unknown account kind: %s"
	accountNotFoundTemplateConstant            = "the %s %s could not be found; make sure the account kind is correct"
	transportErrorTemplateConstant             = "%s request failed: %s"
	transportErrorWithoutCauseTemplateConstant = "%s request failed"
)

// ErrAccountNameRequired indicates an AccountTarget without a name.
var ErrAccountNameRequired = errors.New(accountNameRequiredMessageConstant)

// UnknownAccountKindError reports an AccountTarget carrying an unsupported kind.
type UnknownAccountKindError struct {
	Kind AccountKind
}

// Error describes the unsupported kind.
func (kindError UnknownAccountKindError) Error() string {
	return fmt.Sprintf(unknownAccountKindTemplateConstant, kindError.Kind)
}

// AccountNotFoundError reports that the organization or user does not exist.
// The condition is terminal for a run; callers abort rather than retry.
type AccountNotFoundError struct {
	AccountName string
	Kind        AccountKind
}

// Error describes the missing account.
func (notFoundError AccountNotFoundError) Error() string {
	return fmt.Sprintf(accountNotFoundTemplateConstant, notFoundError.Kind, notFoundError.AccountName)
}

// TransportError wraps HTTP or network failures raised during enumeration.
// Enumeration is never retried; the caller reports the failure and exits.
type TransportError struct {
	Operation string
	Cause     error
}

// Error describes the failed request.
func (transportError TransportError) Error() string {
	if transportError.Cause == nil {
		return fmt.Sprintf(transportErrorWithoutCauseTemplateConstant, transportError.Operation)
	}
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Operation, transportError.Cause)
}

// Unwrap exposes the underlying transport failure.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}
