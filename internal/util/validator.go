package util

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout 日期统一为 YYYY-MM-DD
const DateLayout = "2006-01-02"

// MaxAmount 单笔金额上限（一千万）
const MaxAmount = 10000000

// ValidateAmount 验证金额（必须为正数且不超过上限）
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", amount)
	}
	if amount >= MaxAmount {
		return fmt.Errorf("amount too large, got %v", amount)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateName 验证类别、麻友、店家等名称（去空白后非空且长度合理）
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if utf8.RuneCountInString(name) > 20 {
		return fmt.Errorf("name too long, max 20 characters")
	}
	return nil
}
