package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "start_time", snakeCase("StartTime"))
	assert.Equal(t, "end", snakeCase("End"))
	assert.Equal(t, "limit_hours", snakeCase("LimitHours"))
}

func TestRequestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&SetTimeLimitRequest{LimitHours: "ten"})
	require.Error(t, err)

	fields := map[string]string{}
	for _, fe := range validationErrors(err) {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "Field is required", fields["limit_type"])
	assert.Equal(t, "Must be a valid decimal number", fields["limit_hours"])
}
