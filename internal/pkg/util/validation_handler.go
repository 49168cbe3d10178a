package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateDTO 校验请求参数，返回首个失败字段的可读信息
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			msg := fmt.Sprintf("field [%s] failed on rule [%s]",
				firstError.Field(),
				firstError.Tag())
			return errors.New(msg)
		}
		return err
	}
	return nil
}

// ValidateStruct 原样返回 validator 的错误，供边界解析使用
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
