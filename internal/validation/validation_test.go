package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lprior-repo/sitekit/internal/assert"
)

func TestFieldUsesPredicate(t *testing.T) {
	isYes := func(v string) bool { return v == "yes" }

	if got := Field("yes", "Answer", isYes, "Answer must be yes"); !got.IsValid || len(got.Errors) != 0 {
		t.Fatalf("expected valid result, got %#v", got)
	}

	got := Field("no", "Answer", isYes, "Answer must be yes")
	want := Result{IsValid: false, Errors: []Error{{Field: "Answer", Message: "Answer must be yes"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestFieldDoesNotRecoverPredicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected predicate panic to propagate")
		}
	}()
	Field("x", "X", func(string) bool { panic("predicate failed") }, "unused")
}

func TestCombinePreservesInputOrder(t *testing.T) {
	got := Combine(
		Invalid(Error{Field: "Name", Message: "Name is required"}),
		Valid(),
		Invalid(
			Error{Field: "Message", Message: "Message is required"},
			Error{Field: "Message", Message: "Message must be at least 10 characters long"},
		),
		Invalid(Error{Field: "Email", Message: "Email is required"}),
	)

	want := Result{
		IsValid: false,
		Errors: []Error{
			{Field: "Name", Message: "Name is required"},
			{Field: "Message", Message: "Message is required"},
			{Field: "Message", Message: "Message must be at least 10 characters long"},
			{Field: "Email", Message: "Email is required"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected combined result (-want +got):\n%s", diff)
	}
}

func TestCombineOfValidResultsIsValid(t *testing.T) {
	got := Combine(Valid(), Valid())
	if !got.IsValid || len(got.Errors) != 0 {
		t.Fatalf("expected valid, got %#v", got)
	}
	if empty := Combine(); !empty.IsValid {
		t.Fatalf("combining nothing should be valid")
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "empty", value: "", valid: false},
		{name: "whitespace only", value: "   ", valid: false},
		{name: "tabs and newlines", value: "\t\n", valid: false},
		{name: "text", value: "Jane", valid: true},
		{name: "padded text", value: "  Jane  ", valid: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Required(tc.value, "Name")
			if got.IsValid != tc.valid {
				t.Fatalf("Required(%q) valid=%v, want %v", tc.value, got.IsValid, tc.valid)
			}
			if !tc.valid && got.Errors[0].Message != "Name is required" {
				t.Fatalf("unexpected message %q", got.Errors[0].Message)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"jane@example.com", true},
		{"a@b.c", true},
		{"first.last+tag@sub.example.co.jp", true},
		{"invalid-email", false},
		{"jane@example", false},
		{"@example.com", false},
		{"jane@.com", false},
		{"jane doe@example.com", false},
		{"jane@@example.com", false},
		{"jane\u00a0doe@example.com", false},
		{"jane\vdoe@example.com", false},
		{"jane@exa\u2003mple.com", false},
		{"jane\u2028doe@example.com", false},
		{"\ufeffjane@example.com", false},
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			got := Email(tc.value, "Email")
			if got.IsValid != tc.valid {
				t.Fatalf("Email(%q) valid=%v, want %v", tc.value, got.IsValid, tc.valid)
			}
		})
	}
}

func TestInvalidWithoutErrors(t *testing.T) {
	prev := assert.SetEnabled(false)
	defer assert.SetEnabled(prev)

	got := Invalid()
	if diff := cmp.Diff(Valid(), got); diff != "" {
		t.Fatalf("Invalid() with no errors (-want +got):\n%s", diff)
	}
}

func TestInvalidWithoutErrorsPanicsWhenAssertionsEnabled(t *testing.T) {
	prev := assert.SetEnabled(true)
	defer assert.SetEnabled(prev)

	defer func() {
		if _, ok := recover().(*assert.Violation); !ok {
			t.Fatalf("expected *assert.Violation panic")
		}
	}()
	Invalid()
}

func TestEmailInvalidScenario(t *testing.T) {
	got := Email("invalid-email", "Email")
	want := Result{
		IsValid: false,
		Errors:  []Error{{Field: "Email", Message: "Email must be a valid email address"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestMinLengthUsesUntrimmedLength(t *testing.T) {
	if got := MinLength("   hi    ", "Message", 9); !got.IsValid {
		t.Fatalf("expected padding to count towards length")
	}
	got := MinLength("short", "Message", 10)
	if got.IsValid {
		t.Fatalf("expected short value to fail")
	}
	if msg := got.Errors[0].Message; msg != "Message must be at least 10 characters long" {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := MinLength("こんにちは世界です。", "Message", 10); !got.IsValid {
		t.Fatalf("expected multibyte characters to count once each")
	}
}

func TestResultFieldLookups(t *testing.T) {
	r := Combine(
		Required("", "Name"),
		Email("nope", "Email"),
	)
	if got := r.FieldErrors("Email"); len(got) != 1 || got[0] != "Email must be a valid email address" {
		t.Fatalf("unexpected email errors %v", got)
	}
	if got := r.FieldErrors("Message"); got != nil {
		t.Fatalf("expected no message errors, got %v", got)
	}
	byField := r.ByField()
	if len(byField) != 2 || byField["Name"][0] != "Name is required" {
		t.Fatalf("unexpected grouping %v", byField)
	}
}

func TestToResult(t *testing.T) {
	ok := ToResult(Valid(), "payload")
	if v, present := ok.Value(); !present || v != "payload" {
		t.Fatalf("expected payload, got %q", v)
	}
	failed := ToResult(Required("", "Name"), "payload")
	errs, present := failed.Error()
	if !present || len(errs) != 1 || errs[0].Field != "Name" {
		t.Fatalf("expected Name error, got %v", errs)
	}
}

func TestResultJSONAlwaysHasErrorsArray(t *testing.T) {
	b, err := json.Marshal(Valid())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(b); !strings.Contains(got, `"errors":[]`) || !strings.Contains(got, `"isValid":true`) {
		t.Fatalf("unexpected json %s", got)
	}
}
