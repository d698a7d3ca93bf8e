package client

import "errors"

var (
	ErrInvalidParameter = errors.New("参数错误")
	ErrSendFailed       = errors.New("短信发送失败")
)

const OK = "OK"

// Client 短信供应商客户端，阿里云、腾讯云各有一个实现
type Client interface {
	// Send 发送一条模板短信
	Send(req SendReq) (SendResp, error)
}

// SendReq 发送短信请求
type SendReq struct {
	PhoneNumbers  []string
	SignName      string
	TemplateID    string
	TemplateParam map[string]string
}

// SendResp 发送短信响应
type SendResp struct {
	RequestID    string
	PhoneNumbers map[string]SendRespStatus
}

// SendRespStatus 单个手机号的发送结果
type SendRespStatus struct {
	Code    string
	Message string
}
