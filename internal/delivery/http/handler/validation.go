package handler

import (
	"fmt"
	"sync"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules to gin's validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("direction", validDirection)
	})
	return err
}

func validDirection(fl validator.FieldLevel) bool {
	return domain.Direction(fl.Field().String()).Valid()
}
