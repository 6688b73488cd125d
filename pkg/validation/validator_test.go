package validation

import (
	"testing"

	"github.com/goliatone/go-formsubmit/pkg/formerr"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

func signupSpec() model.FormSpec {
	fields := []model.FieldSpec{
		{Name: "full_name", Required: true},
		{Name: "business_name", Required: true},
		{Name: "email", Required: true},
		{Name: "phone", Required: true},
		{Name: "country", Required: true},
		{Name: "assistant_name", Required: true},
		{Name: "password", Required: true, MinLength: 6, Secret: true},
	}
	return model.FormSpec{
		ID:     "signup",
		Fields: fields,
		Messages: model.Messages{
			Required:  "Please fill all fields",
			MinLength: "Password must be 6+ characters",
		},
	}
}

func validSignup() model.Payload {
	return model.Payload{
		"full_name":      "Jo Doe",
		"business_name":  "Jo Nails",
		"email":          "a@b.com",
		"phone":          "+2348000000000",
		"country":        "NG",
		"assistant_name": "Aiva",
		"password":       "secret",
	}
}

func TestValidate_AcceptsCompletePayload(t *testing.T) {
	if err := New().Validate(signupSpec(), validSignup()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RequiredFieldMissing(t *testing.T) {
	for _, field := range signupSpec().RequiredFields() {
		payload := validSignup()
		payload[field] = "   "

		err := New().Validate(signupSpec(), payload)
		if !formerr.IsPrecondition(err) {
			t.Fatalf("%s: expected precondition error, got %v", field, err)
		}
		fe, _ := formerr.As(err)
		if fe.Message != "Please fill all fields" {
			t.Fatalf("%s: message = %q", field, fe.Message)
		}
	}
}

func TestValidate_ShortPasswordAlwaysRejected(t *testing.T) {
	for _, pw := range []string{"a", "12345", "  abc  "} {
		payload := validSignup()
		payload["password"] = pw

		err := New().Validate(signupSpec(), payload)
		fe, ok := formerr.As(err)
		if !ok || fe.Kind != formerr.KindPrecondition || fe.Message != "Password must be 6+ characters" {
			t.Fatalf("password %q: got %v", pw, err)
		}
	}
}

func TestValidate_RequiredReportedBeforeLength(t *testing.T) {
	payload := validSignup()
	payload["password"] = "123"
	delete(payload, "email")

	fe, _ := formerr.As(New().Validate(signupSpec(), payload))
	if fe == nil || fe.Message != "Please fill all fields" {
		t.Fatalf("expected required failure first, got %v", fe)
	}
}

func TestValidate_DefaultMessages(t *testing.T) {
	spec := model.FormSpec{Fields: []model.FieldSpec{
		{Name: "pin", MinLength: 4},
		{Name: "price", Type: model.FieldTypeNumber, Required: true},
	}}

	fe, _ := formerr.As(New().Validate(spec, model.Payload{"price": ""}))
	if fe == nil || fe.Message != model.DefaultMessages.Required {
		t.Fatalf("expected default required message, got %v", fe)
	}

	fe, _ = formerr.As(New().Validate(spec, model.Payload{"pin": "12", "price": 3.0}))
	if fe == nil || fe.Message != "Pin must be 4+ characters" {
		t.Fatalf("expected generated length message, got %v", fe)
	}

	fe, _ = formerr.As(New().Validate(spec, model.Payload{"price": "cheap"}))
	if fe == nil || fe.Message != "Price must be a number" {
		t.Fatalf("expected numeric message, got %v", fe)
	}
}
