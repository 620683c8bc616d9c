package lead

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulead/core"
)

var (
	leadStatusTag  = "leadstatus"
	leadStatusText = fmt.Sprintf("status must be one of: %s", strings.Join(Statuses, ", "))
)

// InitValidators registers the lead validators. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(leadStatusTag, leadStatusValidation)
	core.RegisterCustomTranslation(validate, translator, leadStatusTag, leadStatusText)
}

// leadStatusValidation checks that the status is one of Statuses
func leadStatusValidation(fl validator.FieldLevel) bool {
	return IsValidStatus(fl.Field().String())
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
