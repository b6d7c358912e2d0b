// Package apperr defines the typed error taxonomy shared by every stage of
// the pipeline: input errors, LLM errors, stage errors, transcode errors,
// admission errors, and storage errors. Each kind wraps an underlying cause
// (when one exists) so callers can use errors.As/errors.Is instead of
// matching on strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories from the error taxonomy.
type Kind string

const (
	KindSubtitlesMissing     Kind = "subtitles_missing"
	KindSubtitlesUnavailable Kind = "subtitles_unavailable"
	KindMediaUnreadable      Kind = "media_unreadable"
	KindLLMUnavailable       Kind = "llm_unavailable"
	KindLLMRateLimited       Kind = "llm_rate_limited"
	KindLLMInvalidOutput     Kind = "llm_invalid_output"
	KindLLMTimeout           Kind = "llm_timeout"
	KindLLMTooLarge          Kind = "llm_too_large"
	KindStageEmpty           Kind = "stage_empty"
	KindStageFailed          Kind = "stage_failed"
	KindTranscodeFailed      Kind = "transcode_failed"
	KindSystemBusy           Kind = "system_busy"
	KindDiskFull             Kind = "disk_full"
	KindLockContended        Kind = "lock_contended"
	KindNotFound             Kind = "not_found"
	KindInvalidArgument      Kind = "invalid_argument"
	KindConflict             Kind = "conflict"
)

// Error is the concrete error type for every apperr.Kind. Stage and cause
// carry additional diagnostic context; RetryAfter is populated only for
// LLMRateLimited when the provider supplied a retry-after hint.
type Error struct {
	Kind       Kind
	Stage      string
	Message    string
	Cause      error
	RetryAfter int // seconds; 0 if unknown
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by Kind so errors.Is(err, apperr.New(apperr.KindStageEmpty, ...))
// style sentinels work without comparing messages.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func New(kind Kind, stage string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithRetryAfter attaches a provider retry-after hint, in seconds, to a rate
// limit error.
func WithRetryAfter(e *Error, seconds int) *Error {
	if e == nil {
		return e
	}
	e.RetryAfter = seconds
	return e
}

// Sentinel constructors, one per kind, used throughout the pipeline so call
// sites read as "return apperr.StageFailed(...)" rather than raw struct
// literals.

func SubtitlesMissing(cause error, format string, args ...any) *Error {
	return New(KindSubtitlesMissing, "", cause, format, args...)
}

func SubtitlesUnavailable(cause error, format string, args ...any) *Error {
	return New(KindSubtitlesUnavailable, "", cause, format, args...)
}

func MediaUnreadable(cause error, format string, args ...any) *Error {
	return New(KindMediaUnreadable, "", cause, format, args...)
}

func LLMUnavailable(cause error, format string, args ...any) *Error {
	return New(KindLLMUnavailable, "", cause, format, args...)
}

func LLMRateLimited(cause error, retryAfterSeconds int, format string, args ...any) *Error {
	return WithRetryAfter(New(KindLLMRateLimited, "", cause, format, args...), retryAfterSeconds)
}

func LLMInvalidOutput(cause error, format string, args ...any) *Error {
	return New(KindLLMInvalidOutput, "", cause, format, args...)
}

func LLMTimeout(cause error, format string, args ...any) *Error {
	return New(KindLLMTimeout, "", cause, format, args...)
}

func LLMTooLarge(format string, args ...any) *Error {
	return New(KindLLMTooLarge, "", nil, format, args...)
}

func StageEmpty(stage string) *Error {
	return New(KindStageEmpty, stage, nil, "stage produced no output")
}

func StageFailed(stage string, cause error) *Error {
	return New(KindStageFailed, stage, cause, "stage failed")
}

func TranscodeFailed(cause error, format string, args ...any) *Error {
	return New(KindTranscodeFailed, "", cause, format, args...)
}

func SystemBusy(format string, args ...any) *Error {
	return New(KindSystemBusy, "", nil, format, args...)
}

func DiskFull(cause error, format string, args ...any) *Error {
	return New(KindDiskFull, "", cause, format, args...)
}

func LockContended(cause error, format string, args ...any) *Error {
	return New(KindLockContended, "", cause, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, "", nil, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, "", nil, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, "", nil, format, args...)
}

// Of extracts the *Error from err, if any, walking the Unwrap chain.
func Of(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" if err is not (or does not wrap) an
// *Error.
func KindOf(err error) Kind {
	if e, ok := Of(err); ok {
		return e.Kind
	}
	return ""
}
