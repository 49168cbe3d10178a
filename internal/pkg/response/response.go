package response

import (
	"errors"
	log "log/slog"
	"net/http"

	"github.com/techstridesocial/ss-sub002/internal/api/dto"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	NotFound            = 404
	InternalServerError = 500
)

// Success 成功返回封装
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装，HTTP 状态码固定 200，业务码放在 code 中
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// Error 将错误翻译为业务码
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, "invalid parameter")
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		Fail(c, BadRequest, "invalid json")
		return
	}

	code, ok := service.ResolveCode(err)
	if !ok {
		code = InternalServerError
	}
	if code >= InternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "err", err)
	}
	Fail(c, code, err.Error())
}
