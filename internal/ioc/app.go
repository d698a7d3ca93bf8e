package ioc

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/event/match"
	"gitee.com/flycash/alert-platform/internal/pkg/liveconn"
	"gitee.com/flycash/alert-platform/internal/repository"
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"gitee.com/flycash/alert-platform/internal/service/followup"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/gotomicro/ego/task/ecron"
)

type App struct {
	Tasks    []Task
	Crons    []ecron.Ecron
	Consumer *match.EventConsumer

	AlertSvc    alertsvc.Service
	FollowupSvc *followup.Service
	Dispatcher  sender.Dispatcher

	AlertRepo      repository.AlertRepository
	FollowupRepo   repository.FollowupRepository
	PreferenceRepo repository.PreferenceRepository

	LiveRegistry liveconn.Registry
}

func (a *App) StartTasks(ctx context.Context) {
	for _, t := range a.Tasks {
		go func(t Task) {
			t.Start(ctx)
		}(t)
	}
}
