package errors

import (
	"errors"
	"fmt"

	"github.com/iceymoss/mdrdr/pkg/xerr"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", xerr.Tag(e.Code), e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", xerr.Tag(e.Code), e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// Tag 对外暴露的错误标签，例如 fetch_origin_failed
func (e *CodeMsg) Tag() string {
	return xerr.Tag(e.Code)
}

func (e *CodeMsg) HTTPStatus() int {
	return xerr.HTTPStatus(e.Code)
}

// New 构造函数
func New(code int, msg string) error {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 带原始错误的构造函数
func Wrap(code int, msg string, err error) error {
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

// FromError 沿错误链查找 CodeMsg
func FromError(err error) (*CodeMsg, bool) {
	var cm *CodeMsg
	if errors.As(err, &cm) {
		return cm, true
	}
	return nil, false
}

// IsCode 判断错误链中是否包含指定错误码
func IsCode(err error, code int) bool {
	cm, ok := FromError(err)
	return ok && cm.Code == code
}
