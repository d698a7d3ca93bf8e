//go:build wireinject

package ioc

import (
	"gitee.com/flycash/alert-platform/internal/ioc"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/repository/cache/local"
	prefredis "gitee.com/flycash/alert-platform/internal/repository/cache/redis"
	"gitee.com/flycash/alert-platform/internal/repository/dao"
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"gitee.com/flycash/alert-platform/internal/service/followup"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitGoCache,
		ioc.InitDistributedLock,
		ioc.InitEtcdClient,
		ioc.InitIDGenerator,
		ioc.InitSMSClients,
		ioc.InitMQ,
		ioc.InitKafkaConsumer,
		ioc.InitLiveRegistry,

		local.NewLocalCache,
		prefredis.NewCache,
	)
	repositorySet = wire.NewSet(
		dao.NewAlertDAO,
		repository.NewAlertRepository,
		dao.NewFollowupTaskDAO,
		repository.NewFollowupRepository,
		dao.NewPreferenceDAO,
		repository.NewPreferenceRepository,
	)
	alertSvcSet = wire.NewSet(
		ioc.InitPriorityCalculator,
		alertsvc.NewService,
		alertsvc.NewStatsArchiveCron,
	)
	senderSvcSet = wire.NewSet(
		ioc.InitChannelTable,
		ioc.InitDeliveryEventProducer,
		ioc.InitDispatcher,
	)
	consumerSet = wire.NewSet(
		ioc.InitIdempotencyService,
		ioc.InitLimiter,
		ioc.InitMatchConsumer,
	)
	taskSet = wire.NewSet(
		ioc.InitRetrySweepTask,
		ioc.InitPendingSweepTask,
		ioc.InitExpirySweepTask,
		ioc.InitFollowupSweepTask,
		ioc.InitTasks,
	)
)

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,

		// 仓储层
		repositorySet,

		// --- 服务构建 ---

		// 警报服务
		alertSvcSet,

		// 投递器与渠道
		senderSvcSet,

		// 跟进提醒服务
		followup.NewService,

		// 匹配事件消费
		consumerSet,

		// 后台任务与定时任务
		taskSet,
		ioc.Crons,

		wire.Struct(new(ioc.App), "*"),
	)

	return new(ioc.App)
}
