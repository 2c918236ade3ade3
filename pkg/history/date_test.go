package history

import (
	"testing"

	"github.com/Sternrassler/chronos/pkg/apperr"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		month int
		want  int
	}{
		{1, 31}, {2, 29}, {3, 31}, {4, 30}, {5, 31}, {6, 30},
		{7, 31}, {8, 31}, {9, 30}, {10, 31}, {11, 30}, {12, 31},
		{0, 0}, {13, 0},
	}

	for _, tt := range tests {
		if got := DaysInMonth(tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d) = %d, want %d", tt.month, got, tt.want)
		}
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		month   int
		day     int
		wantErr string
	}{
		{"leap day", 2, 29, ""},
		{"new year", 1, 1, ""},
		{"new year's eve", 12, 31, ""},
		{"feb 30", 2, 30, "Invalid day for the given month"},
		{"apr 31", 4, 31, "Invalid day for the given month"},
		{"month zero", 0, 1, "Month must be between 1 and 12"},
		{"month 13", 13, 1, "Month must be between 1 and 12"},
		{"day zero", 1, 0, "Day must be between 1 and 31"},
		{"day 32", 1, 32, "Day must be between 1 and 31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.month, tt.day)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := apperr.PublicMessage(err); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
		})
	}
}
