package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{
			name:     "coding time upstream",
			err:      &contract.StageError{Stage: schema.StageFetchCodingTime, Err: contract.NewUpstreamError("coding-time", 403, nil, nil)},
			expected: MsgCodingTimeFailed,
		},
		{
			name:     "coding time schema",
			err:      &contract.StageError{Stage: schema.StageFetchCodingTime, Err: &contract.SchemaError{Service: "coding-time", Reason: "x"}},
			expected: MsgCodingTimeFailed,
		},
		{
			name:     "analytics upstream",
			err:      &contract.StageError{Stage: schema.StageFetchActivity, Err: contract.NewUpstreamError("analytics", 500, nil, nil)},
			expected: MsgAnalyticsFailed,
		},
		{
			name:     "analytics schema",
			err:      &contract.StageError{Stage: schema.StageFetchActivity, Err: &contract.SchemaError{Service: "analytics", Reason: "x"}},
			expected: MsgUnexpectedData,
		},
		{
			name:     "not found",
			err:      &contract.StageError{Stage: schema.StageFetchActivity, Err: &contract.NotFoundError{Username: "orpheus"}},
			expected: `couldn't find a workspace member named "orpheus"`,
		},
		{
			name:     "division by zero",
			err:      &contract.StageError{Stage: schema.StageCompare, Err: &contract.DivisionByZeroError{}},
			expected: MsgNoCodingTime,
		},
		{"profile", contract.NewUpstreamError("profile", 500, nil, nil), MsgProfileFailed},
		{"config", &contract.ConfigError{Key: "xoxc"}, MsgMisconfigured},
		{"canceled", fmt.Errorf("waiting: %w", context.Canceled), MsgInternal},
		{"plain", errors.New("boom"), MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}
