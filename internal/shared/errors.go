package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind prefixes the message of every error this module raises, so a
// caller can classify an error without caring which layer produced it.
type ErrorKind string

const (
	KindConfigNotFound          ErrorKind = "config not found"
	KindConfigCorrupt           ErrorKind = "config corrupt"
	KindMissingRequiredConfig   ErrorKind = "missing required config"
	KindSourceNotConfigured     ErrorKind = "source not configured"
	KindRepositoryNotConfigured ErrorKind = "repository not configured"
	KindManifestNotFound        ErrorKind = "manifest not found"
	KindPatchTypeUnknown        ErrorKind = "unknown patch type"
	KindBuildStepFailed         ErrorKind = "build step failed"
	KindValidationMismatch      ErrorKind = "validation failed"
)

func kindMessage(kind ErrorKind, subject string) string {
	if subject == "" {
		return string(kind)
	}
	return fmt.Sprintf("%s: %s", kind, subject)
}

func ErrConfigNotFound(path string, cause error) error {
	err := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(kindMessage(KindConfigNotFound, path))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

func ErrConfigCorrupt(subject string, cause error) error {
	err := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(kindMessage(KindConfigCorrupt, subject))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

func ErrMissingRequiredConfig(subject string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(kindMessage(KindMissingRequiredConfig, subject))
}

func ErrSourceNotConfigured(pkg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(kindMessage(KindSourceNotConfigured, pkg))
}

func ErrRepositoryNotConfigured(name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(kindMessage(KindRepositoryNotConfigured, name))
}

func ErrManifestNotFound(pkg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(kindMessage(KindManifestNotFound, pkg))
}

func ErrPatchTypeUnknown(pkg string, patchType string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(kindMessage(KindPatchTypeUnknown, fmt.Sprintf("%s (package %s)", patchType, pkg)))
}

func ErrBuildStepFailed(pkg string, cause error) error {
	err := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(kindMessage(KindBuildStepFailed, pkg))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

func ErrValidationMismatch(failed int, total int) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(kindMessage(KindValidationMismatch, fmt.Sprintf("%d of %d checks failed", failed, total)))
}

// IsKind reports whether err was raised with the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return strings.HasPrefix(ErrorMessage(err), string(kind))
}

// ErrorMessage returns the builder message of err, or err.Error() for
// errors that were not produced by errbuilder.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
