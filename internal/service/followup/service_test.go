package followup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAlertRepo 内存警报仓储
type fakeAlertRepo struct {
	repository.AlertRepository

	alerts  map[string]domain.Alert
	created []domain.Alert
}

func newFakeAlertRepo(alerts ...domain.Alert) *fakeAlertRepo {
	m := make(map[string]domain.Alert, len(alerts))
	for _, a := range alerts {
		m[a.ID] = a
	}
	return &fakeAlertRepo{alerts: m}
}

func (f *fakeAlertRepo) GetByID(_ context.Context, id string) (domain.Alert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return domain.Alert{}, fmt.Errorf("%w: id=%s", errs.ErrAlertNotFound, id)
	}
	return a, nil
}

func (f *fakeAlertRepo) Create(_ context.Context, alert domain.Alert) (domain.Alert, error) {
	if _, ok := f.alerts[alert.ID]; ok {
		return domain.Alert{}, fmt.Errorf("%w: id=%s", errs.ErrAlertDuplicate, alert.ID)
	}
	f.alerts[alert.ID] = alert
	f.created = append(f.created, alert)
	return alert, nil
}

// fakeFollowupRepo 内存检查点仓储
type fakeFollowupRepo struct {
	repository.FollowupRepository

	due       []repository.FollowupCheckpoint
	done      []int64
	cancelled []string
}

func (f *fakeFollowupRepo) FindDue(_ context.Context, _ time.Time, _ int) ([]repository.FollowupCheckpoint, error) {
	return f.due, nil
}

func (f *fakeFollowupRepo) MarkDone(_ context.Context, id int64) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeFollowupRepo) CancelRemaining(_ context.Context, alertID string) (int64, error) {
	f.cancelled = append(f.cancelled, alertID)
	return 1, nil
}

// fakeDispatcher 记录投递请求
type fakeDispatcher struct {
	dispatched []domain.Alert
}

func (f *fakeDispatcher) Dispatch(_ context.Context, alert domain.Alert) (map[domain.Channel]bool, error) {
	f.dispatched = append(f.dispatched, alert)
	return map[domain.Channel]bool{domain.ChannelEmail: true}, nil
}

func (f *fakeDispatcher) DispatchChannels(_ context.Context, alert domain.Alert, _ []domain.ChannelConfig) (map[domain.Channel]bool, error) {
	f.dispatched = append(f.dispatched, alert)
	return map[domain.Channel]bool{}, nil
}

func sentAlert(id string) domain.Alert {
	now := time.Now()
	return domain.Alert{
		ID:            id,
		InvestorID:    "inv_1",
		OpportunityID: "opp_1",
		Title:         "💻 New technology Investment Opportunity: TechCo",
		Description:   "Exclusive opportunity matching your investment profile",
		MatchScore:    0.85,
		Priority:      domain.PriorityHigh,
		Status:        domain.AlertStatusSent,
		Channels: []domain.ChannelConfig{
			{Channel: domain.ChannelEmail, Enabled: true, Address: map[string]string{"email": "a@b.c"}},
		},
		CreatedAt: now.Add(-24 * time.Hour),
		SentAt:    now.Add(-24 * time.Hour),
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestService_ProcessDue(t *testing.T) {
	t.Parallel()

	t.Run("到期检查点生成提醒并投递", func(t *testing.T) {
		t.Parallel()

		original := sentAlert("alert_1")
		alertRepo := newFakeAlertRepo(original)
		followupRepo := &fakeFollowupRepo{
			due: []repository.FollowupCheckpoint{
				{ID: 1, AlertID: "alert_1", DelayHours: 24, DeliverAt: time.Now()},
			},
		}
		d := &fakeDispatcher{}
		svc := NewService(alertRepo, followupRepo, d)

		require.NoError(t, svc.ProcessDue(t.Context()))

		require.Len(t, alertRepo.created, 1)
		reminder := alertRepo.created[0]
		assert.Equal(t, "alert_1_followup_24", reminder.ID)
		assert.Equal(t, "Reminder: "+original.Title, reminder.Title)
		assert.Equal(t, "Don't miss this opportunity!\n\n"+original.Description, reminder.Description)
		assert.Equal(t, domain.AlertStatusPending, reminder.Status)
		assert.Equal(t, original.Channels, reminder.Channels)
		assert.Equal(t, original.Priority, reminder.Priority)
		// 提醒沿用原警报的过期时间，不重新计算
		assert.Equal(t, original.ExpiresAt, reminder.ExpiresAt)

		require.Len(t, d.dispatched, 1)
		assert.Equal(t, reminder.ID, d.dispatched[0].ID)
		assert.Equal(t, []int64{1}, followupRepo.done)
	})

	t.Run("原警报已读时作废剩余检查点", func(t *testing.T) {
		t.Parallel()

		original := sentAlert("alert_2")
		original.Status = domain.AlertStatusRead
		alertRepo := newFakeAlertRepo(original)
		followupRepo := &fakeFollowupRepo{
			due: []repository.FollowupCheckpoint{
				{ID: 2, AlertID: "alert_2", DelayHours: 48, DeliverAt: time.Now()},
			},
		}
		d := &fakeDispatcher{}
		svc := NewService(alertRepo, followupRepo, d)

		require.NoError(t, svc.ProcessDue(t.Context()))

		assert.Empty(t, alertRepo.created)
		assert.Empty(t, d.dispatched)
		assert.Equal(t, []string{"alert_2"}, followupRepo.cancelled)
	})

	t.Run("提醒已存在时幂等跳过", func(t *testing.T) {
		t.Parallel()

		original := sentAlert("alert_3")
		existing := sentAlert("alert_3_followup_24")
		alertRepo := newFakeAlertRepo(original, existing)
		followupRepo := &fakeFollowupRepo{
			due: []repository.FollowupCheckpoint{
				{ID: 3, AlertID: "alert_3", DelayHours: 24, DeliverAt: time.Now()},
			},
		}
		d := &fakeDispatcher{}
		svc := NewService(alertRepo, followupRepo, d)

		require.NoError(t, svc.ProcessDue(t.Context()))

		assert.Empty(t, alertRepo.created)
		assert.Empty(t, d.dispatched)
		// 检查点照常收尾
		assert.Equal(t, []int64{3}, followupRepo.done)
	})

	t.Run("原警报不存在时静默作废", func(t *testing.T) {
		t.Parallel()

		alertRepo := newFakeAlertRepo()
		followupRepo := &fakeFollowupRepo{
			due: []repository.FollowupCheckpoint{
				{ID: 4, AlertID: "alert_gone", DelayHours: 72, DeliverAt: time.Now()},
			},
		}
		svc := NewService(alertRepo, followupRepo, &fakeDispatcher{})

		require.NoError(t, svc.ProcessDue(t.Context()))
		assert.Equal(t, []string{"alert_gone"}, followupRepo.cancelled)
	})
}
