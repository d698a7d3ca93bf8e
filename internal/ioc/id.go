package ioc

import (
	id "gitee.com/flycash/alert-platform/internal/pkg/id_generator"
)

func InitIDGenerator() *id.Generator {
	return id.NewGenerator()
}
