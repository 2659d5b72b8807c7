package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// ErrorKind classifies hard protocol violations: cases where the backend did
// not honor the structured-output contract at all. Content-level
// imperfections never become one of these; they degrade with diagnostics.
type ErrorKind string

const (
	KindEmptyResponse          ErrorKind = "empty_response"
	KindInvalidShape           ErrorKind = "invalid_shape"
	KindEmptySummaryAndNoFiles ErrorKind = "empty_summary_and_no_files"
	KindWrongCount             ErrorKind = "wrong_count"
	KindInvalidEntry           ErrorKind = "invalid_entry"
)

// ProtocolError is a hard validation failure. It always aborts the current
// operation and surfaces to the user; no partial result is returned with it.
type ProtocolError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return "protocol error"
	}
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func protocolErr(kind ErrorKind, format string, args ...any) error {
	return &ProtocolError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the protocol error kind, or "" for non-protocol errors.
func KindOf(err error) ErrorKind {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsTransient reports whether an error looks like an upstream transient
// failure the user may retry manually. The system itself never retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "overloaded", "503", "502", "unavailable", "connection refused"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ActionableMessage turns a generation failure into a user-facing message
// naming the likely misconfiguration for the provider that executed the call.
func ActionableMessage(err error, desc models.ResolvedDescriptor) string {
	if err == nil {
		return ""
	}
	if kind := KindOf(err); kind != "" {
		return fmt.Sprintf("the model response did not match the expected structure (%s) - try again or pick a different model", kind)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		switch desc.Provider {
		case models.ProviderOllama:
			return "could not reach the local Ollama daemon - make sure it is running and the model is pulled"
		case models.ProviderLlamafile:
			return "could not reach the llamafile server - make sure it is running locally"
		default:
			return fmt.Sprintf("the %s backend is unreachable - check your network and try again", desc.Provider)
		}
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return fmt.Sprintf("the %s backend rejected the request - check that an API key is configured in settings", desc.Provider)
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		if desc.Provider == models.ProviderOllama {
			return fmt.Sprintf("model %q was not found - pull it with the Ollama CLI first", models.BareModelName(desc.ModelID))
		}
		return fmt.Sprintf("model %q was not found on %s - check the model name in settings", models.BareModelName(desc.ModelID), desc.Provider)
	case IsTransient(err):
		return fmt.Sprintf("the %s backend is busy or rate limited - wait a moment and try again", desc.Provider)
	}
	return fmt.Sprintf("generation failed: %v", err)
}
