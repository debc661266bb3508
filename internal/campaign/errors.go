package campaign

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a rejected transition.
type ErrorKind string

const (
	KindPreconditionNotMet ErrorKind = "PRECONDITION_NOT_MET"
	KindValidationFailed   ErrorKind = "VALIDATION_FAILED"
	KindAccessDenied       ErrorKind = "ACCESS_DENIED"
	KindNotFound           ErrorKind = "NOT_FOUND"
)

const (
	codeBlockMissing         = "BLOCK_MISSING"
	codeBlockLocked          = "BLOCK_LOCKED"
	codeAlreadyLocked        = "ALREADY_LOCKED"
	codeNotLocked            = "NOT_LOCKED"
	codeBackgroundNotLocked  = "BACKGROUND_NOT_LOCKED"
	codeCharactersNotLocked  = "CHARACTERS_NOT_LOCKED"
	codeCharactersEmpty      = "CHARACTERS_EMPTY"
	codeCharactersMissing    = "CHARACTERS_NOT_GENERATED"
	codeCharactersStale      = "CHARACTERS_STALE"
	codeCharacterNotFound    = "CHARACTER_NOT_FOUND"
	codeCharacterIDRequired  = "CHARACTER_ID_REQUIRED"
	codeChainMissing         = "CHAIN_MISSING"
	codeChainLocked          = "CHAIN_LOCKED"
	codeChainNotLocked       = "CHAIN_NOT_LOCKED"
	codeChainEmpty           = "CHAIN_EMPTY"
	codeSceneNotFound        = "SCENE_NOT_FOUND"
	codeSceneNotAccessible   = "SCENE_NOT_ACCESSIBLE"
	codeSceneLocked          = "SCENE_LOCKED"
	codeUnknownBlockKind     = "BLOCK_KIND_INVALID"
	codeAbilityStepLocked    = "ABILITY_STEP_LOCKED"
	codeAbilityStepUntouched = "ABILITY_STEP_UNTOUCHED"
	codeAbilityScoreInvalid  = "ABILITY_SCORE_INVALID"
	codeSheetInvalid         = "SHEET_INVALID"
)

// Error is a rejected transition. It never represents a fault: the caller
// keeps its current state and may present it again.
type Error struct {
	Kind     ErrorKind
	Code     string
	Message  string
	Messages []string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Messages, "; "))
}

func preconditionError(code, message string) *Error {
	return &Error{Kind: KindPreconditionNotMet, Code: code, Message: message}
}

func notFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func validationError(code, message string, messages []string) *Error {
	return &Error{Kind: KindValidationFailed, Code: code, Message: message, Messages: messages}
}

func accessDeniedError(code, message string) *Error {
	return &Error{Kind: KindAccessDenied, Code: code, Message: message}
}

// IsKind reports whether err is a campaign Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var campaignErr *Error
	if !errors.As(err, &campaignErr) {
		return false
	}
	return campaignErr.Kind == kind
}
