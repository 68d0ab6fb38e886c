package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hitoshi/fleamart/internal/model"
)

// emailPattern はメールアドレスの形式検証パターン。
// 空白を含まないlocal@domain.tld形式のみ許可する。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail はメールアドレスの形式が有効かを返す。
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword はパスワードの強度要件を検証する。
// 要件: 8文字以上、大文字・小文字・数字を各1文字以上含む。
// 要件を満たさない場合は不足項目を列挙したAPIErrorを返す。
func ValidatePassword(password string) error {
	var problems []string

	if len(password) < 8 {
		problems = append(problems, "8文字未満")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		problems = append(problems, "大文字なし")
	}
	if !hasLower {
		problems = append(problems, "小文字なし")
	}
	if !hasDigit {
		problems = append(problems, "数字なし")
	}

	if len(problems) > 0 {
		return model.NewWeakPasswordError(strings.Join(problems, "、"))
	}

	return nil
}
