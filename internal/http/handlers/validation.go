package handlers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-order-backend/internal/identity"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
// It is safe to call more than once.
//
//   - mobile: the field carries at least one digit (after NFKC folding).
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = v.RegisterValidation("mobile", validMobile)
	})
	return err
}

func validMobile(fl validator.FieldLevel) bool {
	return identity.Digits(fl.Field().String()) != ""
}
