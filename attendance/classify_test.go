package attendance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facultyops/attendance-engine/attendance"
)

func TestClassify(t *testing.T) {
	const threshold = "09:00:00"

	cases := []struct {
		name   string
		inTime string
		want   attendance.Status
	}{
		{"zero in-time always absent", "00:00:00", attendance.StatusAbsent},
		{"before threshold", "08:45:12", attendance.StatusOnTime},
		{"exactly at threshold", "09:00:00", attendance.StatusOnTime},
		{"one second past threshold", "09:00:01", attendance.StatusLate},
		{"late morning", "10:30:00", attendance.StatusLate},
		{"just after midnight", "00:00:01", attendance.StatusOnTime},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := attendance.Classify(c.inTime, threshold)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestClassify_InvalidInput(t *testing.T) {
	for _, inTime := range []string{"", "9:00", "25:00:00", "09:61:00", "morning"} {
		_, err := attendance.Classify(inTime, "09:00:00")
		assert.Error(t, err, "in-time %q", inTime)
	}

	_, err := attendance.Classify("08:00:00", "not-a-time")
	assert.Error(t, err, "bad threshold must surface")
}

func TestStatus_Present(t *testing.T) {
	assert.True(t, attendance.StatusOnTime.Present())
	assert.True(t, attendance.StatusLate.Present())
	assert.True(t, attendance.StatusOnDuty.Present())
	assert.False(t, attendance.StatusAbsent.Present())
}
