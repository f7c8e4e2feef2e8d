package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// Error codes returned in APIError.Code.
const (
	CodeProjectNotFound     = "PROJECT_NOT_FOUND"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeQuoteNotFound       = "QUOTE_NOT_FOUND"
	CodeProjectArchived     = "PROJECT_ARCHIVED"
	CodeForbiddenTransition = "FORBIDDEN_TRANSITION"
	CodeForbiddenRole       = "FORBIDDEN_ROLE"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// TransitionDetails explains a rejected phase transition.
type TransitionDetails struct {
	From   phase.Phase  `json:"from"`
	To     phase.Phase  `json:"to"`
	Role   phase.Role   `json:"role"`
	Reason phase.Reason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

func invalidInput(message string) *APIError {
	return &APIError{Code: CodeInvalidInput, Message: message, RecoveryHint: "Check the parameters against the tool schema"}
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var transitionErr *phase.TransitionError
	if errors.As(err, &transitionErr) {
		return &APIError{
			Code:    CodeForbiddenTransition,
			Message: transitionErr.Error(),
			Details: TransitionDetails{
				From:   transitionErr.From,
				To:     transitionErr.To,
				Role:   transitionErr.Role,
				Reason: transitionErr.Reason,
				Detail: transitionErr.Detail,
			},
			RecoveryHint: transitionHint(transitionErr.Reason),
		}
	}

	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: CodeProjectNotFound, Message: "project not found", RecoveryHint: "Check ID spelling or call list_projects"}
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrProofNotFound),
		errors.Is(err, order.ErrInvoiceNotFound),
		errors.Is(err, order.ErrShipmentNotFound):
		return &APIError{Code: CodeOrderNotFound, Message: err.Error(), RecoveryHint: "Check the order and child IDs"}
	case errors.Is(err, quote.ErrQuoteNotFound):
		return &APIError{Code: CodeQuoteNotFound, Message: "quote not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, order.ErrUnknownProject), errors.Is(err, quote.ErrUnknownProject):
		return &APIError{Code: CodeProjectNotFound, Message: "linked project not found", RecoveryHint: "Create the project first or check its ID"}
	case errors.Is(err, project.ErrProjectArchived):
		return &APIError{Code: CodeProjectArchived, Message: "project is archived", RecoveryHint: "Archived projects can be read but not re-phased"}
	case errors.Is(err, phase.ErrForbiddenRole):
		return &APIError{Code: CodeForbiddenRole, Message: err.Error(), RecoveryHint: "Ask a staff member to make this change"}
	case errors.Is(err, phase.ErrUnknownPhase), errors.Is(err, phase.ErrUnknownRole):
		return invalidInput(err.Error())
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, quote.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return invalidInput(err.Error())
	default:
		return nil
	}
}

func transitionHint(reason phase.Reason) string {
	switch reason {
	case phase.ReasonSystemPhase:
		return "needs_attention is set by the system; resolve the proof or invoice instead"
	case phase.ReasonNoop:
		return "The project is already in that phase"
	case phase.ReasonRoleNotPermitted:
		return "Read phaseboard://docs/transitions for what your role may set"
	case phase.ReasonPrerequisiteUnmet:
		return "Link an order or quote first"
	}
	return ""
}
