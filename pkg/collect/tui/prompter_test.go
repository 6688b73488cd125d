package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

type stubDriver struct {
	inputs       []string
	passwords    []string
	messages     []string
	infoMessages []string
	defaults     []string
	inputPos     int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	s.messages = append(s.messages, cfg.Message)
	s.defaults = append(s.defaults, cfg.Default)
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	s.messages = append(s.messages, cfg.Message)
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func loginSpec() model.FormSpec {
	return model.FormSpec{
		ID: "login",
		Fields: []model.FieldSpec{
			{Name: "email", Label: "Email", Required: true},
			{Name: "password", Label: "Password", Required: true, Secret: true, MinLength: 6},
		},
	}
}

func TestFill_PromptsMissingFields(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a@b.com"}, passwords: []string{"secret"}}
	surface := collect.NewMapSurface(nil)

	if err := New(WithPromptDriver(driver)).Fill(context.Background(), loginSpec(), surface); err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]string{"email": "a@b.com", "password": "secret"}
	if diff := cmp.Diff(want, surface.Snapshot()); diff != "" {
		t.Fatalf("surface mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Email", "Password"}, driver.messages); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_SkipsPrefilledUnlessAskAll(t *testing.T) {
	driver := &stubDriver{passwords: []string{"secret"}}
	surface := collect.NewMapSurface(map[string]string{"email": "pre@b.com"})

	if err := New(WithPromptDriver(driver)).Fill(context.Background(), loginSpec(), surface); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if driver.inputPos != 0 {
		t.Fatalf("expected prefilled email to be skipped")
	}

	driver = &stubDriver{inputs: []string{"new@b.com"}, passwords: []string{"secret"}}
	if err := New(WithPromptDriver(driver), WithAskAll(true)).Fill(context.Background(), loginSpec(), surface); err != nil {
		t.Fatalf("fill ask all: %v", err)
	}
	if diff := cmp.Diff([]string{"pre@b.com"}, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if v, _ := surface.Value("email"); v != "new@b.com" {
		t.Fatalf("email = %q", v)
	}
}

func TestFill_ValidatorRejectsShortPassword(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a@b.com"}, passwords: []string{"123"}}
	err := New(WithPromptDriver(driver)).Fill(context.Background(), loginSpec(), collect.NewMapSurface(nil))
	if err == nil {
		t.Fatalf("expected validation error for short password")
	}
}

func TestFill_RequiresSurface(t *testing.T) {
	err := New(WithPromptDriver(&stubDriver{})).Fill(context.Background(), loginSpec(), nil)
	if !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
}

func TestNotify(t *testing.T) {
	driver := &stubDriver{}
	if err := New(WithPromptDriver(driver)).Notify(context.Background(), "Saving…"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if diff := cmp.Diff([]string{"Saving…"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValidator(t *testing.T) {
	cases := []struct {
		field model.FieldSpec
		value string
		ok    bool
	}{
		{model.FieldSpec{Name: "price", Type: model.FieldTypeNumber, Required: true}, "25.5", true},
		{model.FieldSpec{Name: "price", Type: model.FieldTypeNumber, Required: true}, "cheap", false},
		{model.FieldSpec{Name: "duration_minutes", Type: model.FieldTypeInteger}, " 45 ", true},
		{model.FieldSpec{Name: "duration_minutes", Type: model.FieldTypeInteger}, "", true},
		{model.FieldSpec{Name: "duration_minutes", Type: model.FieldTypeInteger, Required: true}, "  ", false},
		{model.FieldSpec{Name: "note", Type: model.FieldTypeString}, "anything", true},
		{model.FieldSpec{Name: "password", MinLength: 6}, "12345", false},
	}
	for _, tc := range cases {
		err := fieldValidator(tc.field)(tc.value)
		if (err == nil) != tc.ok {
			t.Fatalf("%s %q: err = %v, want ok=%v", tc.field.Name, tc.value, err, tc.ok)
		}
	}
}
