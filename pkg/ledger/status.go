/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed ledger operation so that callers can tell failure
// causes apart without parsing messages.
type Kind int32

const (
	// Unknown is used for errors that were not produced by this package
	Unknown Kind = iota

	// BadProposal the endorsement was missing or its first response status was not 200
	BadProposal

	// BroadcastFailed the endorsed transaction could not be sent to the ordering service
	BroadcastFailed

	// CommitTimeout no commit event was received for the transaction in time
	CommitTimeout

	// CommitInvalid the transaction was committed with a validation code other than VALID
	CommitInvalid

	// EmptyQueryResult the query returned no payloads
	EmptyQueryResult

	// QueryFailed the query proposal was answered with an error
	QueryFailed

	// MalformedResponse a ledger response did not have the expected shape
	MalformedResponse

	// IdentityFailed the signing identity could not be created
	IdentityFailed
)

var kindName = map[Kind]string{
	Unknown:           "Unknown",
	BadProposal:       "BadProposal",
	BroadcastFailed:   "BroadcastFailed",
	CommitTimeout:     "CommitTimeout",
	CommitInvalid:     "CommitInvalid",
	EmptyQueryResult:  "EmptyQueryResult",
	QueryFailed:       "QueryFailed",
	MalformedResponse: "MalformedResponse",
	IdentityFailed:    "IdentityFailed",
}

func (k Kind) String() string {
	if s, ok := kindName[k]; ok {
		return s
	}
	return kindName[Unknown]
}

const (
	legacyProposalFailure = "failed"
	legacyCommitFailure   = "Failed to send transaction and get notifications within the timeout period."
)

// Status is the error returned by ledger operations.
type Status struct {
	// Kind failure category
	Kind Kind
	// Message human readable description
	Message string
	// Cause underlying error, if any
	Cause error
	// Details additional information (endorser, validation code, ...)
	Details []interface{}
}

// NewStatus returns a Status with the given parameters
func NewStatus(kind Kind, msg string, cause error, details ...interface{}) *Status {
	return &Status{Kind: kind, Message: msg, Cause: cause, Details: details}
}

func (s *Status) Error() string {
	if s.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", s.Kind, s.Message, s.Cause)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

// FromError returns the Status carried by err, if any.
func FromError(err error) (*Status, bool) {
	if err == nil {
		return nil, false
	}
	if s, ok := err.(*Status); ok {
		return s, true
	}
	if s, ok := errors.Cause(err).(*Status); ok {
		return s, true
	}
	return nil, false
}

// KindOf returns the Kind of err, Unknown if err was not produced by this package.
func KindOf(err error) Kind {
	if s, ok := FromError(err); ok {
		return s.Kind
	}
	return Unknown
}

// LegacyMessage returns the plain-text response body REST clients expect for err.
// Bad proposals yield "failed" and commit failures yield the timeout-period message;
// everything else falls back to the error text.
func LegacyMessage(err error) string {
	switch KindOf(err) {
	case BadProposal:
		return legacyProposalFailure
	case BroadcastFailed, CommitTimeout, CommitInvalid:
		return legacyCommitFailure
	default:
		return err.Error()
	}
}
