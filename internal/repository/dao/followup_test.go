//go:build e2e

package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	testioc "gitee.com/flycash/alert-platform/internal/test/ioc"
)

func TestFollowupTaskDAOSuite(t *testing.T) {
	suite.Run(t, new(FollowupTaskDAOTestSuite))
}

type FollowupTaskDAOTestSuite struct {
	suite.Suite
	db  *gorm.DB
	dao FollowupTaskDAO
}

func (s *FollowupTaskDAOTestSuite) SetupSuite() {
	s.db = testioc.InitDB()
	err := s.db.AutoMigrate(&FollowupTask{})
	s.NoError(err)
	s.dao = NewFollowupTaskDAO(s.db)
}

func (s *FollowupTaskDAOTestSuite) TearDownTest() {
	s.db.Exec("TRUNCATE TABLE `followup_tasks`")
}

func (s *FollowupTaskDAOTestSuite) tasksFor(alertID string, base time.Time) []FollowupTask {
	delays := []int{24, 48, 72}
	tasks := make([]FollowupTask, 0, len(delays))
	for _, d := range delays {
		tasks = append(tasks, FollowupTask{
			AlertID:    alertID,
			DelayHours: d,
			DeliverAt:  base.Add(time.Duration(d) * time.Hour).UnixMilli(),
		})
	}
	return tasks
}

func (s *FollowupTaskDAOTestSuite) TestBatchCreateIdempotent() {
	ctx := context.Background()
	base := time.Now()

	s.NoError(s.dao.BatchCreate(ctx, s.tasksFor("alert_1", base)))
	// 重复登记同一组检查点不会报错也不会翻倍
	s.NoError(s.dao.BatchCreate(ctx, s.tasksFor("alert_1", base)))

	var cnt int64
	s.NoError(s.db.Model(&FollowupTask{}).Where("alert_id = ?", "alert_1").Count(&cnt).Error)
	s.Equal(int64(3), cnt)
}

func (s *FollowupTaskDAOTestSuite) TestFindDueAndUpdateStatus() {
	ctx := context.Background()
	// 首次投递在三天前，24/48小时的检查点都已到期
	base := time.Now().Add(-72 * time.Hour).Add(time.Hour)

	s.NoError(s.dao.BatchCreate(ctx, s.tasksFor("alert_2", base)))

	due, err := s.dao.FindDue(ctx, time.Now().UnixMilli(), 10)
	s.NoError(err)
	s.Len(due, 2)
	// 按到期时间排序
	s.Equal(24, due[0].DelayHours)
	s.Equal(48, due[1].DelayHours)

	s.NoError(s.dao.UpdateStatus(ctx, due[0].ID, FollowupStatusDone))
	due, err = s.dao.FindDue(ctx, time.Now().UnixMilli(), 10)
	s.NoError(err)
	s.Len(due, 1)
}

func (s *FollowupTaskDAOTestSuite) TestCancelByAlertID() {
	ctx := context.Background()
	base := time.Now()

	s.NoError(s.dao.BatchCreate(ctx, s.tasksFor("alert_3", base)))

	cancelled, err := s.dao.CancelByAlertID(ctx, "alert_3")
	s.NoError(err)
	s.Equal(int64(3), cancelled)

	// 已作废的不会再次被作废
	cancelled, err = s.dao.CancelByAlertID(ctx, "alert_3")
	s.NoError(err)
	s.Zero(cancelled)
}
