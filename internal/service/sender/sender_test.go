package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/event/delivery"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel 行为可编程的渠道发送器
type fakeChannel struct {
	name domain.Channel
	send func(ctx context.Context, msg domain.ChannelMessage) error
}

func (f *fakeChannel) Name() domain.Channel { return f.name }

func (f *fakeChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	return f.send(ctx, msg)
}

// fakeAlertRepo 只关心投递结果写回
type fakeAlertRepo struct {
	repository.AlertRepository

	mu     sync.Mutex
	saved  []domain.Alert
	casErr error
}

func (f *fakeAlertRepo) CASUpdateDelivery(_ context.Context, alert domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.casErr != nil {
		return f.casErr
	}
	f.saved = append(f.saved, alert)
	return nil
}

func (f *fakeAlertRepo) lastSaved(t *testing.T) domain.Alert {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.saved)
	return f.saved[len(f.saved)-1]
}

func (f *fakeAlertRepo) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// fakeFollowupRepo 记录检查点登记调用
type fakeFollowupRepo struct {
	repository.FollowupRepository

	mu        sync.Mutex
	scheduled []struct {
		alertID string
		delays  []time.Duration
	}
}

func (f *fakeFollowupRepo) Schedule(_ context.Context, alert domain.Alert, _ time.Time, delays []time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, struct {
		alertID string
		delays  []time.Duration
	}{alertID: alert.ID, delays: delays})
	return nil
}

func (f *fakeFollowupRepo) scheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// fakeProducer 收集旁路事件
type fakeProducer struct {
	mu     sync.Mutex
	events []delivery.DeliveryEvent
}

func (f *fakeProducer) Produce(_ context.Context, evt delivery.DeliveryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func newTestAlert(channels ...domain.Channel) domain.Alert {
	cfgs := make([]domain.ChannelConfig, 0, len(channels))
	for _, ch := range channels {
		cfgs = append(cfgs, domain.ChannelConfig{
			Channel: ch,
			Enabled: true,
			Address: map[string]string{"addr": "x"},
		})
	}
	return domain.Alert{
		ID:            "alert_1",
		InvestorID:    "inv_1",
		OpportunityID: "opp_1",
		Title:         "title",
		Description:   "body",
		MatchScore:    0.8,
		Priority:      domain.PriorityHigh,
		Status:        domain.AlertStatusPending,
		Channels:      cfgs,
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(48 * time.Hour),
		Version:       1,
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{24 * time.Hour, 48 * time.Hour, 72 * time.Hour}

	t.Run("渠道之间互不影响，单渠道成功即推进到sent", func(t *testing.T) {
		t.Parallel()

		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				return nil
			}},
			&fakeChannel{name: domain.ChannelSMS, send: func(_ context.Context, _ domain.ChannelMessage) error {
				return errors.New("供应商拒绝")
			}},
			&fakeChannel{name: domain.ChannelPush, send: func(_ context.Context, _ domain.ChannelMessage) error {
				panic("推送网关挂了")
			}},
		)
		repo := &fakeAlertRepo{}
		followupRepo := &fakeFollowupRepo{}
		producer := &fakeProducer{}
		d := NewDispatcher(repo, followupRepo, table, producer, Config{FollowupDelays: delays})

		alert := newTestAlert(domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush)
		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)

		assert.Equal(t, map[domain.Channel]bool{
			domain.ChannelEmail: true,
			domain.ChannelSMS:   false,
			domain.ChannelPush:  false,
		}, results)

		saved := repo.lastSaved(t)
		assert.Equal(t, domain.AlertStatusSent, saved.Status)
		assert.False(t, saved.SentAt.IsZero())
		assert.Equal(t, domain.DeliveryStatusDelivered, saved.DeliveryStatus[domain.ChannelEmail])
		assert.Equal(t, domain.DeliveryStatusFailed, saved.DeliveryStatus[domain.ChannelSMS])
		assert.Equal(t, domain.DeliveryStatusError, saved.DeliveryStatus[domain.ChannelPush])
		// 成功的渠道不消耗重试预算
		assert.Zero(t, saved.RetryCount[domain.ChannelEmail])
		assert.Equal(t, 1, saved.RetryCount[domain.ChannelSMS])
		assert.Equal(t, 1, saved.RetryCount[domain.ChannelPush])

		// 首次送达登记了一组跟进检查点
		require.Equal(t, 1, followupRepo.scheduledCount())
		assert.Equal(t, delays, followupRepo.scheduled[0].delays)

		// 旁路事件带上了合并结果
		require.Len(t, producer.events, 1)
		assert.Equal(t, "sent", producer.events[0].Status)
	})

	t.Run("终态警报直接成功且零渠道尝试", func(t *testing.T) {
		t.Parallel()

		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, channel.NewTable(), nil, Config{})

		for _, status := range []domain.AlertStatus{domain.AlertStatusRead, domain.AlertStatusExpired} {
			alert := newTestAlert(domain.ChannelEmail)
			alert.Status = status
			results, err := d.Dispatch(t.Context(), alert)
			require.NoError(t, err)
			assert.Empty(t, results)
		}
		// 没有任何落库动作
		assert.Zero(t, repo.savedCount())
	})

	t.Run("超时按异常记录", func(t *testing.T) {
		t.Parallel()

		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(ctx context.Context, _ domain.ChannelMessage) error {
				<-ctx.Done()
				return ctx.Err()
			}},
		)
		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, table, nil, Config{
			PerChannelTimeout: 20 * time.Millisecond,
		})

		alert := newTestAlert(domain.ChannelEmail)
		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)
		assert.False(t, results[domain.ChannelEmail])

		saved := repo.lastSaved(t)
		assert.Equal(t, domain.AlertStatusPending, saved.Status)
		assert.Equal(t, domain.DeliveryStatusError, saved.DeliveryStatus[domain.ChannelEmail])
		assert.Equal(t, 1, saved.RetryCount[domain.ChannelEmail])
	})

	t.Run("未注册渠道按异常记录", func(t *testing.T) {
		t.Parallel()

		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, channel.NewTable(), nil, Config{})

		alert := newTestAlert(domain.ChannelSocket)
		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)
		assert.False(t, results[domain.ChannelSocket])

		saved := repo.lastSaved(t)
		assert.Equal(t, domain.DeliveryStatusError, saved.DeliveryStatus[domain.ChannelSocket])
	})

	t.Run("全部失败时保持pending且不登记跟进", func(t *testing.T) {
		t.Parallel()

		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				return errors.New("smtp 连不上")
			}},
		)
		repo := &fakeAlertRepo{}
		followupRepo := &fakeFollowupRepo{}
		d := NewDispatcher(repo, followupRepo, table, nil, Config{FollowupDelays: delays})

		alert := newTestAlert(domain.ChannelEmail)
		_, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)

		saved := repo.lastSaved(t)
		assert.Equal(t, domain.AlertStatusPending, saved.Status)
		assert.True(t, saved.SentAt.IsZero())
		assert.Zero(t, followupRepo.scheduledCount())
	})

	t.Run("落库失败时错误抛给调用方", func(t *testing.T) {
		t.Parallel()

		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				return nil
			}},
		)
		repo := &fakeAlertRepo{casErr: errs.ErrAlertVersionMismatch}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, table, nil, Config{})

		alert := newTestAlert(domain.ChannelEmail)
		results, err := d.Dispatch(t.Context(), alert)
		require.ErrorIs(t, err, errs.ErrAlertVersionMismatch)
		// 渠道结果仍然返回，方便调用方记日志
		assert.True(t, results[domain.ChannelEmail])
	})

	t.Run("重试预算耗尽的渠道不再被全量投递触碰", func(t *testing.T) {
		t.Parallel()

		var emailCalls, pushCalls int
		var mu sync.Mutex
		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				mu.Lock()
				emailCalls++
				mu.Unlock()
				return errors.New("smtp 连不上")
			}},
			&fakeChannel{name: domain.ChannelPush, send: func(_ context.Context, _ domain.ChannelMessage) error {
				mu.Lock()
				pushCalls++
				mu.Unlock()
				return nil
			}},
		)
		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, table, nil, Config{MaxRetries: 3})

		// email 已经失败了三次，预算耗尽；push 从未尝试过
		alert := newTestAlert(domain.ChannelEmail, domain.ChannelPush)
		alert.DeliveryStatus = map[domain.Channel]domain.DeliveryStatus{
			domain.ChannelEmail: domain.DeliveryStatusFailed,
		}
		alert.RetryCount = map[domain.Channel]int{
			domain.ChannelEmail: 3,
		}

		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)

		assert.Zero(t, emailCalls)
		assert.Equal(t, 1, pushCalls)
		assert.Equal(t, map[domain.Channel]bool{domain.ChannelPush: true}, results)

		// 耗尽渠道的计数不会越过预算上限
		saved := repo.lastSaved(t)
		assert.Equal(t, 3, saved.RetryCount[domain.ChannelEmail])
		assert.Equal(t, domain.DeliveryStatusFailed, saved.DeliveryStatus[domain.ChannelEmail])
	})

	t.Run("全部渠道预算耗尽时零尝试零落库", func(t *testing.T) {
		t.Parallel()

		var emailCalls int
		var mu sync.Mutex
		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				mu.Lock()
				emailCalls++
				mu.Unlock()
				return errors.New("smtp 连不上")
			}},
		)
		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, table, nil, Config{MaxRetries: 3})

		alert := newTestAlert(domain.ChannelEmail)
		alert.DeliveryStatus = map[domain.Channel]domain.DeliveryStatus{
			domain.ChannelEmail: domain.DeliveryStatusError,
		}
		alert.RetryCount = map[domain.Channel]int{
			domain.ChannelEmail: 3,
		}

		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, emailCalls)
		assert.Zero(t, repo.savedCount())
	})

	t.Run("跟进提醒送达后不再派生新的提醒链", func(t *testing.T) {
		t.Parallel()

		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				return nil
			}},
		)
		repo := &fakeAlertRepo{}
		followupRepo := &fakeFollowupRepo{}
		d := NewDispatcher(repo, followupRepo, table, nil, Config{FollowupDelays: delays})

		alert := newTestAlert(domain.ChannelEmail)
		alert.ID = "alert_1_followup_24"

		results, err := d.Dispatch(t.Context(), alert)
		require.NoError(t, err)
		assert.True(t, results[domain.ChannelEmail])

		// 提醒本身照常推进到 sent，但不登记检查点
		saved := repo.lastSaved(t)
		assert.Equal(t, domain.AlertStatusSent, saved.Status)
		assert.Zero(t, followupRepo.scheduledCount())
	})

	t.Run("重试扫描只投递指定的渠道子集", func(t *testing.T) {
		t.Parallel()

		var emailCalls, smsCalls int
		var mu sync.Mutex
		table := channel.NewTable(
			&fakeChannel{name: domain.ChannelEmail, send: func(_ context.Context, _ domain.ChannelMessage) error {
				mu.Lock()
				emailCalls++
				mu.Unlock()
				return nil
			}},
			&fakeChannel{name: domain.ChannelSMS, send: func(_ context.Context, _ domain.ChannelMessage) error {
				mu.Lock()
				smsCalls++
				mu.Unlock()
				return nil
			}},
		)
		repo := &fakeAlertRepo{}
		d := NewDispatcher(repo, &fakeFollowupRepo{}, table, nil, Config{})

		alert := newTestAlert(domain.ChannelEmail, domain.ChannelSMS)
		alert.Status = domain.AlertStatusSent
		alert.DeliveryStatus = map[domain.Channel]domain.DeliveryStatus{
			domain.ChannelEmail: domain.DeliveryStatusDelivered,
			domain.ChannelSMS:   domain.DeliveryStatusFailed,
		}
		retryable := alert.RetryableChannels(3)
		require.Len(t, retryable, 1)

		results, err := d.DispatchChannels(t.Context(), alert, retryable)
		require.NoError(t, err)
		assert.Equal(t, map[domain.Channel]bool{domain.ChannelSMS: true}, results)
		assert.Zero(t, emailCalls)
		assert.Equal(t, 1, smsCalls)

		// 已送达的渠道状态原样保留
		saved := repo.lastSaved(t)
		assert.Equal(t, domain.DeliveryStatusDelivered, saved.DeliveryStatus[domain.ChannelEmail])
		assert.Equal(t, domain.DeliveryStatusDelivered, saved.DeliveryStatus[domain.ChannelSMS])
	})
}
