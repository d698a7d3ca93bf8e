//go:build e2e

package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"gitee.com/flycash/alert-platform/internal/errs"
	testioc "gitee.com/flycash/alert-platform/internal/test/ioc"
)

func TestPreferenceDAOSuite(t *testing.T) {
	suite.Run(t, new(PreferenceDAOTestSuite))
}

type PreferenceDAOTestSuite struct {
	suite.Suite
	db  *gorm.DB
	dao PreferenceDAO
}

func (s *PreferenceDAOTestSuite) SetupSuite() {
	s.db = testioc.InitDB()
	err := s.db.AutoMigrate(&Preference{})
	s.NoError(err)
	s.dao = NewPreferenceDAO(s.db)
}

func (s *PreferenceDAOTestSuite) TearDownTest() {
	s.db.Exec("TRUNCATE TABLE `investor_preferences`")
}

func (s *PreferenceDAOTestSuite) TestSaveAndGet() {
	ctx := context.Background()

	_, err := s.dao.Save(ctx, Preference{
		InvestorID: "inv_1",
		Channels:   `["email","sms"]`,
		Addresses:  `{"email":"a@b.c","phone":"123"}`,
	})
	s.NoError(err)

	got, err := s.dao.GetByInvestorID(ctx, "inv_1")
	s.NoError(err)
	s.Equal(`["email","sms"]`, got.Channels)
	s.Positive(got.Ctime)

	// 再次保存同一投资人是覆盖而不是新增
	_, err = s.dao.Save(ctx, Preference{
		InvestorID: "inv_1",
		Channels:   `["push"]`,
		Addresses:  `{"device_token":"t"}`,
	})
	s.NoError(err)

	got, err = s.dao.GetByInvestorID(ctx, "inv_1")
	s.NoError(err)
	s.Equal(`["push"]`, got.Channels)

	var cnt int64
	s.NoError(s.db.Model(&Preference{}).Count(&cnt).Error)
	s.Equal(int64(1), cnt)
}

func (s *PreferenceDAOTestSuite) TestGetMissing() {
	_, err := s.dao.GetByInvestorID(context.Background(), "ghost")
	s.ErrorIs(err, errs.ErrPreferenceNotFound)
}
