package kouden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReturnStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    ReturnStatus
		wantErr bool
	}{
		{"PENDING", ReturnStatusPending, false},
		{"partial_returned", ReturnStatusPartialReturned, false},
		{" completed ", ReturnStatusCompleted, false},
		{"NOT_REQUIRED", ReturnStatusNotRequired, false},
		{"DONE", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReturnStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNormalTransition(t *testing.T) {
	assert.True(t, IsNormalTransition(ReturnStatusPending, ReturnStatusPartialReturned))
	assert.True(t, IsNormalTransition(ReturnStatusPending, ReturnStatusCompleted))
	assert.True(t, IsNormalTransition(ReturnStatusPending, ReturnStatusNotRequired))
	assert.True(t, IsNormalTransition(ReturnStatusPartialReturned, ReturnStatusCompleted))
	assert.True(t, IsNormalTransition(ReturnStatusCompleted, ReturnStatusCompleted))

	assert.False(t, IsNormalTransition(ReturnStatusCompleted, ReturnStatusPending))
	assert.False(t, IsNormalTransition(ReturnStatusPartialReturned, ReturnStatusNotRequired))
}

func TestParseAttendanceType(t *testing.T) {
	got, err := ParseAttendanceType("condolence_visit")
	require.NoError(t, err)
	assert.Equal(t, AttendanceCondolenceVisit, got)

	_, err = ParseAttendanceType("ONLINE")
	assert.Error(t, err)
}
