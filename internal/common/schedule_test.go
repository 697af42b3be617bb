package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackupTime(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"02:00", 2, 0, false},
		{"23:59", 23, 59, false},
		{"0:5", 0, 5, false},
		{" 14:30 ", 14, 30, false},
		{"25:99", 0, 0, true},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"12", 0, 0, true},
		{"12:30:00", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"+2:+5", 0, 0, true},
		{"-0:30", 0, 0, true},
		{"1 2:30", 0, 0, true},
		{"002:30", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseBackupTime(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBackupTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestBackupTimeToCron(t *testing.T) {
	spec, err := BackupTimeToCron("02:30")
	require.NoError(t, err)
	assert.Equal(t, "30 2 * * *", spec)

	_, err = BackupTimeToCron("25:99")
	assert.ErrorIs(t, err, ErrInvalidBackupTime)
}

func TestValidateBackupTime(t *testing.T) {
	assert.NoError(t, ValidateBackupTime("00:00"))
	assert.NoError(t, ValidateBackupTime("23:59"))
	assert.Error(t, ValidateBackupTime("7pm"))
}

func TestFormatBackupTime(t *testing.T) {
	assert.Equal(t, "02:05", FormatBackupTime("2:5"))
	assert.Equal(t, "14:30", FormatBackupTime("14:30"))
	assert.Equal(t, "bogus", FormatBackupTime("bogus"))
}
