package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码
//
// 校验类错误（2001-2007、2011、2012）不可重试，前端直接提示；
// 2008/2009/2013 是临时故障，前端可以建议玩家稍后重试或找管理员核对。
const (
	CodeCharacterNotFound  = 2001
	CodeCharacterExists    = 2002
	CodeInsufficientFunds  = 2003
	CodeItemNotFound       = 2004
	CodeInvalidQuantity    = 2005
	CodeInvalidRoster      = 2006
	CodeUnknownParticipant = 2007
	CodeConflict           = 2008 // 并发冲突/系统繁忙，可重试
	CodeOutcomeUnknown     = 2009 // 重试耗尽，结果未知，需要核对
	CodeLedgerReconcile    = 2010 // 扣款成功但流水待补写
	CodeInvalidAward       = 2011
	CodeLevelOutOfRange    = 2012
	CodeStoreUnavailable   = 2013 // 存储暂时不可用，可重试
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
