package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter      = errors.New("参数错误")
	ErrSendAlertFailed       = errors.New("投递警报失败")
	ErrAlertIDGenerateFailed = errors.New("警报ID生成失败")
	ErrAlertNotFound         = errors.New("警报记录不存在")
	ErrAlertExpired          = errors.New("警报已过期")
	ErrCreateAlertFailed     = errors.New("创建警报失败")
	ErrAlertDuplicate        = errors.New("警报记录主键冲突")
	ErrAlertVersionMismatch  = errors.New("警报记录版本不匹配")
	ErrCreateFollowupFailed  = errors.New("创建跟进提醒任务失败")

	ErrNoAvailableChannel = errors.New("无可用渠道")
	ErrUnsupportedChannel = errors.New("不支持的渠道")
	ErrChannelSendTimeout = errors.New("渠道投递超时")
	ErrConnectionNotFound = errors.New("投资人没有在线连接")

	ErrPreferenceNotFound = errors.New("投资人偏好配置不存在")
)
