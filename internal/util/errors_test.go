package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error is permanent", err: base, want: KindPermanent},
		{name: "transient", err: Transient("send", base), want: KindTransient},
		{name: "configuration", err: Configuration("send", base), want: KindConfiguration},
		{name: "wrapped transient", err: fmt.Errorf("outer: %w", Transient("send", base)), want: KindTransient},
		{name: "joined configuration", err: errors.Join(errors.New("x"), Configuration("auth", base)), want: KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	base := errors.New("token expired")
	err := Transient("graph send", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "graph send: transient: token expired", err.Error())
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	msg := FormatError(MailError, "sending mail", errors.New("refused"))
	assert.Equal(t, "Mail error: sending mail - refused", msg)

	msg = FormatError(TemplateError, "loading template", errors.New("missing"))
	assert.Equal(t, "Template error: loading template - missing", msg)
}
