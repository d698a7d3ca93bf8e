package ioc

import (
	"context"
	"strconv"

	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"github.com/ego-component/eetcd"
	"github.com/gotomicro/ego/core/econf"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func InitEtcdClient() *eetcd.Component {
	return eetcd.Load("etcd").Build()
}

// WatchRetryBatchSize 监听 etcd 上的扫描批量配置，变更时热更新到重试任务
func WatchRetryBatchSize(etcdClient *eetcd.Component, task *alertsvc.RetrySweepTask) {
	key := econf.GetString("alert.retryBatchSizeKey")
	if key == "" {
		key = "/alert/retry_batch_size"
	}
	go func() {
		watchChan := etcdClient.Watch(context.Background(), key)
		for watchResp := range watchChan {
			for _, event := range watchResp.Events {
				if event.Type != clientv3.EventTypePut {
					continue
				}
				n, err := strconv.Atoi(string(event.Kv.Value))
				if err != nil {
					continue
				}
				task.UpdateBatchSize(n)
			}
		}
	}()
}
