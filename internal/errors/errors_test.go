package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodesMapToStatuses(t *testing.T) {
	cases := []struct {
		err    *ServiceError
		code   Code
		status int
	}{
		{InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{Unauthorized(""), CodeUnauthorized, http.StatusUnauthorized},
		{Forbidden(""), CodeForbidden, http.StatusForbidden},
		{NotFound("event"), CodeNotFound, http.StatusNotFound},
		{Conflict("taken"), CodeConflict, http.StatusConflict},
		{Internal("", nil), CodeInternal, http.StatusInternalServerError},
		{Dependency("redis", nil), CodeDependencyFailure, http.StatusBadGateway},
	}
	for _, c := range cases {
		if c.err.Code != c.code {
			t.Errorf("expected code %s, got %s", c.code, c.err.Code)
		}
		if c.err.HTTPStatus != c.status {
			t.Errorf("%s: expected status %d, got %d", c.code, c.status, c.err.HTTPStatus)
		}
	}
}

func TestIsMatchesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("profile"))
	if !Is(err, CodeNotFound) {
		t.Fatal("expected wrapped not found to match")
	}
	if Is(err, CodeConflict) {
		t.Fatal("did not expect conflict to match")
	}
	if Is(stderrors.New("plain"), CodeNotFound) {
		t.Fatal("plain errors have no code")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Dependency("postgres", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
}

func TestWithDetails(t *testing.T) {
	err := InvalidInput("bad field").WithDetails("field", "email")
	if err.Details["field"] != "email" {
		t.Fatalf("unexpected details %v", err.Details)
	}
}

func TestGetServiceError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Conflict("dup"))
	se := GetServiceError(wrapped)
	if se == nil || se.Code != CodeConflict {
		t.Fatalf("unexpected %v", se)
	}
	if GetServiceError(stderrors.New("plain")) != nil {
		t.Fatal("plain errors should yield nil")
	}
}
