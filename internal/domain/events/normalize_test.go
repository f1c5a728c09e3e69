package events

import (
	"testing"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStartAndEndTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		start string
		end   string
	}{
		{
			name:  "date only",
			input: "2025-12-25",
			start: "2025-12-25 00:00:00",
			end:   "2025-12-25 23:59:59",
		},
		{
			name:  "full date-time unchanged",
			input: "2025-12-25 18:30:00",
			start: "2025-12-25 18:30:00",
			end:   "2025-12-25 18:30:00",
		},
		{
			name:  "surrounding whitespace",
			input: "  2025-12-25 ",
			start: "2025-12-25 00:00:00",
			end:   "2025-12-25 23:59:59",
		},
		{
			name:  "not a date",
			input: "tomorrow",
			start: "tomorrow",
			end:   "tomorrow",
		},
		{
			name:  "empty",
			input: "",
			start: "",
			end:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.start, NormalizeStartTime(tt.input))
			assert.Equal(t, tt.end, NormalizeEndTime(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, input := range []string{"2025-12-25", "2025-12-25 08:00:00", "2025-12-25T08:00:00Z", "garbage"} {
		once := NormalizeStartTime(input)
		assert.Equal(t, once, NormalizeStartTime(once), "start %q", input)

		once = NormalizeEndTime(input)
		assert.Equal(t, once, NormalizeEndTime(once), "end %q", input)
	}
}

func TestParseDateTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "canonical", input: "2025-12-25 08:00:00", want: time.Date(2025, 12, 25, 8, 0, 0, 0, loc)},
		{name: "iso without offset", input: "2025-12-25T08:00:00", want: time.Date(2025, 12, 25, 8, 0, 0, 0, loc)},
		{name: "minutes only", input: "2025-12-25 08:00", want: time.Date(2025, 12, 25, 8, 0, 0, 0, loc)},
		{name: "rfc3339 keeps its offset", input: "2025-12-25T08:00:00Z", want: time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime("startTime", tt.input, loc)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := ParseDateTime("endTime", "2025-12-25", loc)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Equal(t, "endTime", domain.FieldOf(err))
}

func TestFormatDateTimeRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	value := "2025-03-01 12:15:00"

	parsed, err := ParseDateTime("startTime", value, loc)
	require.NoError(t, err)
	require.Equal(t, value, FormatDateTime(parsed, loc))
	require.Equal(t, "2025-03-01 17:15:00", FormatDateTime(parsed, nil))
}

func TestNormalizeList(t *testing.T) {
	require.Equal(t, []string{"Engineering", "Arts"}, NormalizeList([]string{" Engineering", "", "  ", "Arts "}))
	require.NotNil(t, NormalizeList(nil))
	require.Empty(t, NormalizeList(nil))
}
