package channel

import (
	"context"
	"testing"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry 记录推送调用的注册表
type fakeRegistry struct {
	published map[string][]any
	err       error
}

func (f *fakeRegistry) Register(_ string, _ *websocket.Conn) string { return "conn_1" }

func (f *fakeRegistry) Unregister(_ string, _ string) {}

func (f *fakeRegistry) Publish(_ context.Context, investorID string, payload any) error {
	if f.err != nil {
		return f.err
	}
	if f.published == nil {
		f.published = make(map[string][]any)
	}
	f.published[investorID] = append(f.published[investorID], payload)
	return nil
}

func TestSocketChannel_Send(t *testing.T) {
	t.Parallel()

	now := time.Now()
	msg := domain.ChannelMessage{
		AlertID:   "alert_1",
		Channel:   domain.ChannelSocket,
		Title:     "title",
		Body:      "body",
		Priority:  domain.PriorityUrgent,
		CreatedAt: now,
		Address:   map[string]string{domain.AddressKeyConnectionID: "inv_1"},
	}

	t.Run("按连接标识推送告警帧", func(t *testing.T) {
		t.Parallel()

		registry := &fakeRegistry{}
		ch := NewSocketChannel(registry)
		require.NoError(t, ch.Send(t.Context(), msg))

		require.Len(t, registry.published["inv_1"], 1)
		frame, ok := registry.published["inv_1"][0].(socketFrame)
		require.True(t, ok)
		assert.Equal(t, "alert", frame.Type)
		assert.Equal(t, "alert_1", frame.Data.ID)
		assert.Equal(t, "urgent", frame.Data.Priority)
		assert.Equal(t, now, frame.Data.Timestamp)
	})

	t.Run("缺少连接标识拒绝发送", func(t *testing.T) {
		t.Parallel()

		ch := NewSocketChannel(&fakeRegistry{})
		bad := msg
		bad.Address = map[string]string{}
		err := ch.Send(t.Context(), bad)
		require.ErrorIs(t, err, errs.ErrInvalidParameter)
	})

	t.Run("投资人不在线视为投递失败", func(t *testing.T) {
		t.Parallel()

		registry := &fakeRegistry{err: errs.ErrConnectionNotFound}
		ch := NewSocketChannel(registry)
		err := ch.Send(t.Context(), msg)
		require.ErrorIs(t, err, errs.ErrSendAlertFailed)
	})
}

func TestTable(t *testing.T) {
	t.Parallel()

	socket := NewSocketChannel(&fakeRegistry{})
	table := NewTable(socket)

	got, ok := table.Get(domain.ChannelSocket)
	require.True(t, ok)
	assert.Equal(t, domain.ChannelSocket, got.Name())

	_, ok = table.Get(domain.ChannelEmail)
	assert.False(t, ok)
}
