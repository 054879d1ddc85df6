package util

import (
	"strings"
	"testing"
)

func TestValidateAmount_Positive(t *testing.T) {
	testCases := []float64{0.01, 1.0, 100.5, 9999999.99}

	for _, amount := range testCases {
		if err := ValidateAmount(amount); err != nil {
			t.Errorf("ValidateAmount(%v) error = %v, want nil", amount, err)
		}
	}
}

func TestValidateAmount_Invalid(t *testing.T) {
	testCases := []float64{0, -0.01, -100, 100000000}

	for _, amount := range testCases {
		if err := ValidateAmount(amount); err == nil {
			t.Errorf("ValidateAmount(%v) error = nil, want error", amount)
		}
	}
}

func TestValidateDate_Valid(t *testing.T) {
	for _, date := range []string{"2024-01-01", "2024-12-31", "2024-02-29"} {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01", // 月份错误
		"2024-01-32", // 日期错误
		"2023-02-29",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"餐飲", "交通", "阿明", "50嵐"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) error = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "   ", strings.Repeat("長", 21)} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) error = nil, want error", name)
		}
	}
}
