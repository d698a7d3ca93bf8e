package liveconn

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/alert-platform/internal/errs"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/gotomicro/ego/core/elog"
)

const defaultWriteTimeout = 5 * time.Second

// Registry 投资人在线长连接注册表。
// 连接的注册与注销发生在外部接入层，警报引擎只调用 Publish。
//
//go:generate mockgen -source=./registry.go -package=liveconnmocks -destination=./mocks/registry.mock.go Registry
type Registry interface {
	// Register 登记一条连接，返回连接ID
	Register(investorID string, conn *websocket.Conn) string
	// Unregister 注销一条连接
	Unregister(investorID string, connID string)
	// Publish 向投资人的全部在线连接推送一条消息，没有任何连接时返回 ErrConnectionNotFound
	Publish(ctx context.Context, investorID string, payload any) error
}

type liveConn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex // gorilla 的连接要求同一时刻只有一个写入者
}

// WebSocketRegistry Registry 的 gorilla/websocket 实现
type WebSocketRegistry struct {
	mu           sync.RWMutex
	conns        map[string][]*liveConn
	writeTimeout time.Duration
	logger       *elog.Component
}

func NewWebSocketRegistry() *WebSocketRegistry {
	return &WebSocketRegistry{
		conns:        make(map[string][]*liveConn),
		writeTimeout: defaultWriteTimeout,
		logger:       elog.DefaultLogger,
	}
}

func (r *WebSocketRegistry) Register(investorID string, conn *websocket.Conn) string {
	connID := uuid.Must(uuid.NewV4()).String()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[investorID] = append(r.conns[investorID], &liveConn{
		id: connID,
		ws: conn,
	})
	return connID
}

func (r *WebSocketRegistry) Unregister(investorID string, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	remain := make([]*liveConn, 0, len(r.conns[investorID]))
	for _, c := range r.conns[investorID] {
		if c.id != connID {
			remain = append(remain, c)
		}
	}
	if len(remain) == 0 {
		delete(r.conns, investorID)
		return
	}
	r.conns[investorID] = remain
}

func (r *WebSocketRegistry) Publish(_ context.Context, investorID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化推送消息失败: %w", err)
	}

	r.mu.RLock()
	conns := make([]*liveConn, len(r.conns[investorID]))
	copy(conns, r.conns[investorID])
	r.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("%w: investorID=%s", errs.ErrConnectionNotFound, investorID)
	}

	var delivered int
	for _, c := range conns {
		if werr := r.write(c, data); werr != nil {
			r.logger.Warn("向连接推送失败，移除该连接",
				elog.FieldErr(werr),
				elog.String("investorID", investorID),
				elog.String("connID", c.id))
			r.Unregister(investorID, c.id)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("%w: investorID=%s 的全部连接都推送失败", errs.ErrSendAlertFailed, investorID)
	}
	return nil
}

func (r *WebSocketRegistry) write(c *liveConn, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(r.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
