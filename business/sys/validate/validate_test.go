package validate_test

import (
	"errors"
	"testing"

	"github.com/xlerion/ivachain/business/sys/validate"
)

func Test_Check(t *testing.T) {
	type model struct {
		Name  string  `json:"name" validate:"required"`
		Email string  `json:"email" validate:"required,email"`
		Total float64 `json:"total" validate:"gt=0"`
	}

	err := validate.Check(model{Email: "nope", Total: -1})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get field errors: %v", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	for _, f := range []string{"name", "email", "total"} {
		if _, exists := fields[f]; !exists {
			t.Fatalf("Should report the %q field by its json name: %v", f, fields)
		}
	}

	if err := validate.Check(model{Name: "a", Email: "a@b.co", Total: 1}); err != nil {
		t.Fatalf("Should accept a valid model: %v", err)
	}

	if validate.IsFieldErrors(errors.New("plain")) {
		t.Fatalf("Should not treat a plain error as field errors.")
	}
}
