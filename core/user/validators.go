package user

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/azizzt/controlescolar/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to the user attributes"
	attrSplitRegex = regexp.MustCompile(`\W+`)

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	//go:embed common-passwords.txt
	commonPasswordsFile []byte
	commonPasswords     []string
)

// PasswordReset holds a new password for an existing user.
type PasswordReset struct {
	Password string `json:"password" validate:"required"`
	user     User
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	loadCommonPasswords()

	validate.RegisterStructValidation(passwordStructValidation, Credentials{}, PasswordReset{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords() {
	if commonPasswords != nil {
		return
	}
	pwds := make([]string, 0, 256)
	scanner := bufio.NewScanner(bytes.NewReader(commonPasswordsFile))
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" && !strings.HasPrefix(pwd, "#") {
			pwds = append(pwds, strings.ToLower(pwd))
		}
	}
	sort.Strings(pwds)
	commonPasswords = pwds
}

// passwordStructValidation does struct level validation on Credentials and PasswordReset structs.
func passwordStructValidation(sl validator.StructLevel) {
	switch data := sl.Current().Interface().(type) {
	case Credentials:
		validatePassword(data.Password, sl, data.FirstName, data.LastName, data.Email)
	case PasswordReset:
		validatePassword(data.Password, sl, data.user.FirstName, data.user.LastName, data.user.Email)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - not all numeric
// - no user attrs similarity
// - no common password
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	if pwd == "" {
		return // `required` reports it
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	// - minLen: 8
	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	// - not all numeric
	allNum := true
	for _, char := range pwd {
		if !unicode.IsDigit(char) {
			allNum = false
			break
		}
	}
	if allNum {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	if tooSimilar(pwd, attrs...) {
		reportErr(pwdAttrSimTag)
		return
	}

	// - no common passwords
	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		reportErr(pwdNoCommonTag)
	}
}

func tooSimilar(pwd string, attrs ...string) bool {
	lpwd := strings.Split(strings.ToLower(pwd), "")
	for _, attr := range attrs {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		for _, part := range append(attrSplitRegex.Split(attr, -1), attr) {
			if part == "" {
				continue
			}
			m := difflib.NewMatcher(lpwd, strings.Split(part, ""))
			if m.QuickRatio() >= pwdMaxSim && m.Ratio() >= pwdMaxSim {
				return true
			}
		}
	}
	return false
}
