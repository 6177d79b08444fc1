package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
)

// password policy
var (
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceText   = "password must not contain whitespace"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// ValidatePassword enforces the password policy against the candidate password
// and the user attributes it must not resemble.
func ValidatePassword(pwd string, attrs ...string) error {
	if len(pwd) < pwdMinLen {
		return pwdErr(pwdMinLenText)
	}
	if strings.IndexFunc(pwd, unicode.IsSpace) >= 0 {
		return pwdErr(pwdNoSpaceText)
	}
	allNum := true
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			allNum = false
			break
		}
	}
	if allNum {
		return pwdErr(pwdNotAllNumText)
	}

	lowPwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		for _, part := range strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool {
			return r == '@' || r == '.' || r == '-' || r == '_' || unicode.IsSpace(r)
		}) {
			if part == "" {
				continue
			}
			m := difflib.NewMatcher(strings.Split(lowPwd, ""), strings.Split(part, ""))
			if m.QuickRatio() >= pwdMaxSim {
				return pwdErr(pwdAttrSimText)
			}
		}
	}
	return nil
}

func pwdErr(text string) error {
	return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
}
