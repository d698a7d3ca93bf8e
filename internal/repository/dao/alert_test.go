//go:build e2e

package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"gitee.com/flycash/alert-platform/internal/errs"
	testioc "gitee.com/flycash/alert-platform/internal/test/ioc"
)

func TestAlertDAOSuite(t *testing.T) {
	suite.Run(t, new(AlertDAOTestSuite))
}

type AlertDAOTestSuite struct {
	suite.Suite
	db  *gorm.DB
	dao AlertDAO
}

func (s *AlertDAOTestSuite) SetupSuite() {
	s.db = testioc.InitDB()
	err := s.db.AutoMigrate(&Alert{})
	s.NoError(err)
	s.dao = NewAlertDAO(s.db)
}

func (s *AlertDAOTestSuite) TearDownTest() {
	s.db.Exec("TRUNCATE TABLE `alerts`")
}

func (s *AlertDAOTestSuite) newAlert(id string) Alert {
	return Alert{
		ID:            id,
		InvestorID:    "inv_1",
		OpportunityID: "opp_1",
		Title:         "💻 New technology Investment Opportunity: TechCo",
		Description:   "body",
		MatchScore:    0.85,
		Priority:      "high",
		Status:        AlertStatusPending,
		Channels:      `[{"channel":"email","enabled":true,"address":{"email":"a@b.c"}}]`,
		ExpiresAt:     time.Now().Add(48 * time.Hour).UnixMilli(),
	}
}

func (s *AlertDAOTestSuite) TestCreateAndGet() {
	ctx := context.Background()

	created, err := s.dao.Create(ctx, s.newAlert("alert_1"))
	s.NoError(err)
	s.Equal(1, created.Version)
	s.Positive(created.Ctime)

	got, err := s.dao.GetByID(ctx, "alert_1")
	s.NoError(err)
	s.Equal(created.Title, got.Title)

	_, err = s.dao.GetByID(ctx, "ghost")
	s.ErrorIs(err, errs.ErrAlertNotFound)

	// 主键冲突映射为重复错误
	_, err = s.dao.Create(ctx, s.newAlert("alert_1"))
	s.ErrorIs(err, errs.ErrAlertDuplicate)
}

func (s *AlertDAOTestSuite) TestCASUpdateDelivery() {
	ctx := context.Background()

	created, err := s.dao.Create(ctx, s.newAlert("alert_cas"))
	s.NoError(err)

	created.Status = AlertStatusSent
	created.DeliveryStatus = `{"email":"delivered"}`
	created.SentAt = time.Now().UnixMilli()
	s.NoError(s.dao.CASUpdateDelivery(ctx, created))

	got, err := s.dao.GetByID(ctx, "alert_cas")
	s.NoError(err)
	s.Equal(AlertStatusSent, got.Status)
	s.Equal(2, got.Version)

	// 版本号没变的并发写回会失败
	err = s.dao.CASUpdateDelivery(ctx, created)
	s.ErrorIs(err, errs.ErrAlertVersionMismatch)
}

func (s *AlertDAOTestSuite) TestMarkRead() {
	ctx := context.Background()

	_, err := s.dao.Create(ctx, s.newAlert("alert_read"))
	s.NoError(err)

	affected, err := s.dao.MarkRead(ctx, "alert_read", time.Now().UnixMilli())
	s.NoError(err)
	s.Equal(int64(1), affected)

	// 已读之后再标记不会有行被更新
	affected, err = s.dao.MarkRead(ctx, "alert_read", time.Now().UnixMilli())
	s.NoError(err)
	s.Zero(affected)
}

func (s *AlertDAOTestSuite) TestMarkExpired() {
	ctx := context.Background()

	expired := s.newAlert("alert_old")
	expired.ExpiresAt = time.Now().Add(-time.Hour).UnixMilli()
	_, err := s.dao.Create(ctx, expired)
	s.NoError(err)

	fresh := s.newAlert("alert_fresh")
	_, err = s.dao.Create(ctx, fresh)
	s.NoError(err)

	cnt, err := s.dao.MarkExpired(ctx, time.Now().UnixMilli(), 100)
	s.NoError(err)
	s.Equal(int64(1), cnt)

	got, err := s.dao.GetByID(ctx, "alert_old")
	s.NoError(err)
	s.Equal(AlertStatusExpired, got.Status)

	got, err = s.dao.GetByID(ctx, "alert_fresh")
	s.NoError(err)
	s.Equal(AlertStatusPending, got.Status)
}

func (s *AlertDAOTestSuite) TestFindPendingAndActive() {
	ctx := context.Background()

	pending := s.newAlert("alert_p")
	_, err := s.dao.Create(ctx, pending)
	s.NoError(err)

	sent := s.newAlert("alert_s")
	sent.Status = AlertStatusSent
	_, err = s.dao.Create(ctx, sent)
	s.NoError(err)

	read := s.newAlert("alert_r")
	read.Status = AlertStatusRead
	_, err = s.dao.Create(ctx, read)
	s.NoError(err)

	now := time.Now().UnixMilli()
	got, err := s.dao.FindPending(ctx, now, 0, 10)
	s.NoError(err)
	s.Len(got, 1)
	s.Equal("alert_p", got[0].ID)

	got, err = s.dao.FindActive(ctx, now, 0, 10)
	s.NoError(err)
	s.Len(got, 2)
}

func (s *AlertDAOTestSuite) TestListByInvestor() {
	ctx := context.Background()

	a := s.newAlert("alert_i1")
	_, err := s.dao.Create(ctx, a)
	s.NoError(err)

	expired := s.newAlert("alert_i2")
	expired.ExpiresAt = time.Now().Add(-time.Hour).UnixMilli()
	_, err = s.dao.Create(ctx, expired)
	s.NoError(err)

	other := s.newAlert("alert_other")
	other.InvestorID = "inv_2"
	_, err = s.dao.Create(ctx, other)
	s.NoError(err)

	now := time.Now().UnixMilli()
	got, err := s.dao.ListByInvestor(ctx, "inv_1", false, now)
	s.NoError(err)
	s.Len(got, 1)

	got, err = s.dao.ListByInvestor(ctx, "inv_1", true, now)
	s.NoError(err)
	s.Len(got, 2)

	ids, err := s.dao.ListInvestorIDs(ctx, now-int64(time.Hour/time.Millisecond))
	s.NoError(err)
	s.ElementsMatch([]string{"inv_1", "inv_2"}, ids)
}
