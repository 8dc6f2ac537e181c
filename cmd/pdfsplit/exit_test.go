package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/pdfsplit/pkg/pdfsplit"
)

func TestExitCode(t *testing.T) {
	kindErr := func(k pdfsplit.Kind) error {
		return fmt.Errorf("wrapped: %w", &pdfsplit.Error{Kind: k, Op: "test", Err: errors.New("boom")})
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("x"), 1},
		{"batch", &batchError{Failed: 1, Total: 3}, 1},
		{"usage", usageError(errors.New("accepts 1 arg(s)")), 2},
		{"invalid-argument", kindErr(pdfsplit.KindInvalidArgument), 2},
		{"not-found", kindErr(pdfsplit.KindNotFound), 3},
		{"malformed", kindErr(pdfsplit.KindMalformed), 4},
		{"auth", kindErr(pdfsplit.KindAuth), 5},
		{"template", kindErr(pdfsplit.KindTemplate), 6},
		{"io", kindErr(pdfsplit.KindIO), 7},
		{"exists", kindErr(pdfsplit.KindExists), 8},
		{"canceled", kindErr(pdfsplit.KindCanceled), 130},
		{"context", fmt.Errorf("run: %w", context.Canceled), 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestBatchErrorMessage(t *testing.T) {
	assert.Equal(t, "2 of 5 files failed", (&batchError{Failed: 2, Total: 5}).Error())
}
