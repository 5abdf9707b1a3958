package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInvalidOperation, status: http.StatusBadRequest, publicMsg: "operation not permitted", detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusConflict, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsMatchesWrappedCodes(t *testing.T) {
	inner := New(CodeInvalidTransition, "can only assign pending dispatch orders")
	outer := fmt.Errorf("assign: %w", inner)
	if !Is(outer, CodeInvalidTransition) {
		t.Fatalf("expected wrapped error to match invalid transition")
	}
	if Is(outer, CodeNotFound) {
		t.Fatalf("did not expect not found match")
	}
	if Is(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("untyped errors never match a code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection reset"), "adjust stock")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}

func TestDumpReportsDomainRule(t *testing.T) {
	transition := New(CodeInvalidTransition, "order is not pending").WithDetails(map[string]any{
		"dispatch_order_id": "7d1c",
		"status":            "delivered",
	})
	dump := Dump(fmt.Errorf("assign: %w", transition))
	if dump.Code != CodeInvalidTransition || dump.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected code/status %s/%d", dump.Code, dump.HTTPStatus)
	}
	if dump.Rule != "dispatch_lifecycle" {
		t.Fatalf("expected dispatch_lifecycle rule, got %q", dump.Rule)
	}
	if dump.AggregateType != "dispatch_order" || dump.AggregateID != "7d1c" || dump.FromStatus != "delivered" {
		t.Fatalf("unexpected aggregate fields %+v", dump)
	}

	operation := New(CodeInvalidOperation, "batch full").WithDetails(map[string]any{"batch_id": "b-1", "quantity": 10})
	dump = Dump(operation)
	if dump.Rule != "inventory_operation" || dump.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("unexpected operation dump %+v", dump)
	}
	if dump.AggregateType != "batch" || dump.AggregateID != "b-1" {
		t.Fatalf("expected batch aggregate, got %s/%s", dump.AggregateType, dump.AggregateID)
	}
}

func TestDumpNamesPostgresCondition(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40P01", TableName: "skus", Message: "deadlock detected"}
	dump := Dump(Wrap(CodeDependency, pgErr, "update stock level"))
	if dump.PGCondition != "deadlock_detected" || dump.PGTable != "skus" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
	if !dump.Retryable {
		t.Fatalf("dependency errors are retryable")
	}
	if dump.Rule != "" {
		t.Fatalf("storage failures carry no domain rule, got %q", dump.Rule)
	}
}
