package main

import (
	"context"

	"gitee.com/flycash/alert-platform/cmd/platform/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

func main() {
	app := ioc.InitApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 后台扫描任务与匹配事件消费随进程启动
	app.StartTasks(ctx)
	app.Consumer.Start(ctx)

	if err := ego.New().Cron(app.Crons...).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
