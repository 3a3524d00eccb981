package handler

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"coinpredict/internal/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules and makes JSON binding
// reject unknown fields. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
			_, perr := models.ParseDirection(fl.Field().String())
			return perr == nil
		})
	})
	return err
}
