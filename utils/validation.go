package utils

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/notification-hub/models"
)

var registerOnce sync.Once

// RegisterValidators adds the notification-specific tags to gin's binding validator:
// notiftype, notifpriority and timeofday.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = registerOn(v)
	})
	return err
}

func registerOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notiftype": func(fl validator.FieldLevel) bool {
			_, err := models.ParseNotificationType(fl.Field().String())
			return err == nil
		},
		"notifpriority": func(fl validator.FieldLevel) bool {
			_, err := models.ParsePriority(fl.Field().String())
			return err == nil
		},
		"timeofday": func(fl validator.FieldLevel) bool {
			return models.TimeOfDay(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}
