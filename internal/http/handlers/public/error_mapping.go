package public

import (
	"errors"

	handlershared "github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

// driveHandlerErrors 做单接口共用的错误映射。
var driveHandlerErrors = []mappedHandlerError{
	{target: service.ErrSessionNotFound, code: response.CodeNotFound, msg: service.ErrSessionNotFound.Error()},
	{target: service.ErrSessionFrozen, code: response.CodeBadRequest, msg: service.ErrSessionFrozen.Error()},
	{target: service.ErrSessionNotActive, code: response.CodeBadRequest, msg: service.ErrSessionNotActive.Error()},
	{target: service.ErrOrderMismatch, code: response.CodeBadRequest, msg: service.ErrOrderMismatch.Error()},
	{target: service.ErrNoProductsInRange, code: response.CodeBadRequest, msg: service.ErrNoProductsInRange.Error()},
	{target: service.ErrDriveMinBalance, code: response.CodeBadRequest, msg: service.ErrDriveMinBalance.Error()},
	{target: service.ErrDriveItemCorrupted, code: response.CodeInternal, msg: service.ErrDriveItemCorrupted.Error()},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: service.ErrNotFound.Error()},
}
