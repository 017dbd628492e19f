package middleware

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
)

var registerOnce sync.Once

// RegisterValidators adds the portfolio tags to gin's validator engine.
// Empty values pass so a profile field can be cleared.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		rules := map[string]func(string) bool{
			"kzphone":  validation.ValidatePhone,
			"subject":  validation.IsSubject,
			"category": validation.IsCategory,
			"iin":      validation.ValidateIIN,
		}
		for tag, rule := range rules {
			if err = engine.RegisterValidation(tag, stringRule(rule)); err != nil {
				return
			}
		}
	})
	return err
}

func stringRule(rule func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value == "" || rule(value)
	}
}
