package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
}

func TestMissingColumn(t *testing.T) {
	cases := []struct {
		name   string
		msg    string
		column string
		want   bool
	}{
		{
			name:   "hosted gateway phrasing",
			msg:    "Could not find the 'seats_total' column of 'rides' in the schema cache",
			column: "seats_total",
			want:   true,
		},
		{
			name:   "schema cache phrasing",
			msg:    "column 'vehicle_model' not present in schema cache",
			column: "vehicle_model",
			want:   true,
		},
		{
			name:   "postgres relation phrasing",
			msg:    `column "departure_time" of relation "rides" does not exist`,
			column: "departure_time",
			want:   true,
		},
		{
			name:   "mysql unknown column",
			msg:    "Error 1054 (42S22): Unknown column 'seats_total' in 'field list'",
			column: "seats_total",
			want:   true,
		},
		{
			name:   "different column named",
			msg:    "Could not find the 'seats_total' column of 'rides' in the schema cache",
			column: "seats",
			want:   false,
		},
		{
			name:   "unrelated error",
			msg:    "connection refused",
			column: "seats_total",
			want:   false,
		},
		{
			name:   "empty message",
			msg:    "",
			column: "seats_total",
			want:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MissingColumn(tc.msg, tc.column))
		})
	}
}

func TestNotNullColumn(t *testing.T) {
	cases := []struct {
		name   string
		msg    string
		column string
		want   bool
	}{
		{
			name:   "postgres not-null violation",
			msg:    `null value in column "seats" violates not-null constraint`,
			column: "seats",
			want:   true,
		},
		{
			name:   "mysql cannot be null",
			msg:    "Error 1048 (23000): Column 'departure_time' cannot be null",
			column: "departure_time",
			want:   true,
		},
		{
			name:   "wrong column",
			msg:    `null value in column "seats" violates not-null constraint`,
			column: "seats_total",
			want:   false,
		},
		{
			name:   "not a null violation",
			msg:    "Unknown column 'seats' in 'field list'",
			column: "seats",
			want:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NotNullColumn(tc.msg, tc.column))
		})
	}
}

func TestTimeTypeMismatch(t *testing.T) {
	assert.True(t, TimeTypeMismatch(`invalid input syntax for type time: "2025-01-15T08:00:00Z"`))
	assert.True(t, TimeTypeMismatch("Error 1292 (22007): Incorrect time value: '2025-01-15T08:00:00Z' for column 'departure_time'"))
	assert.False(t, TimeTypeMismatch("Unknown column 'departure_time' in 'field list'"))
	assert.False(t, TimeTypeMismatch(""))
}
