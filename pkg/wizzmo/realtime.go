package wizzmo

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"wizzmo-be/pkg/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	ackTimeout = 10 * time.Second
	writeWait  = 5 * time.Second
)

// ChangeHandler receives row changes. It runs on the subscription's reader
// goroutine.
type ChangeHandler func(events.RowChange)

// Subscribe opens a realtime connection listening to table rows matching
// filter. It returns once the server has acknowledged (or refused) the
// subscription. The returned func unsubscribes and is safe to call twice;
// cancelling ctx has the same effect.
func (c *Client) Subscribe(ctx context.Context, table string, filter events.Filter, handler ChangeHandler) (func(), error) {
	endpoint, err := c.wsURL()
	if err != nil {
		return nil, &APIError{Kind: KindValidation, Message: "realtime url", Err: err}
	}

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: ackTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Kind: kindFromStatus(resp.StatusCode), Message: "realtime handshake refused", Err: err}
		}
		return nil, &APIError{Kind: KindNetwork, Message: "realtime dial", Err: err}
	}

	sub := &subscription{
		conn:   conn,
		topic:  table,
		filter: filter.String(),
		logger: c.logger.With(zap.String("topic", table), zap.String("filter", filter.String())),
		done:   make(chan struct{}),
	}

	if err := sub.write(events.Frame{Event: events.FrameSubscribe, Topic: table, Filter: sub.filter}); err != nil {
		conn.Close()
		return nil, &APIError{Kind: KindNetwork, Message: "realtime subscribe", Err: err}
	}
	if err := sub.awaitAck(); err != nil {
		conn.Close()
		return nil, err
	}

	go sub.readLoop(handler)
	go func() {
		select {
		case <-ctx.Done():
			sub.close()
		case <-sub.done:
		}
	}()

	return sub.close, nil
}

type subscription struct {
	conn   *websocket.Conn
	topic  string
	filter string
	logger *zap.Logger

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

func (s *subscription) write(frame events.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(frame)
}

// awaitAck reads until the server answers the subscribe frame.
func (s *subscription) awaitAck() error {
	s.conn.SetReadDeadline(time.Now().Add(ackTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		var frame events.Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return &APIError{Kind: KindNetwork, Message: "realtime ack", Err: err}
		}
		if frame.Topic != s.topic {
			continue
		}
		switch frame.Event {
		case events.FrameAck:
			return nil
		case events.FrameError:
			return &APIError{Status: http.StatusForbidden, Kind: KindForbidden, Message: frame.Message}
		}
	}
}

func (s *subscription) readLoop(handler ChangeHandler) {
	defer s.close()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("realtime connection lost", zap.Error(err))
			}
			return
		}

		var frame events.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.logger.Warn("malformed realtime frame", zap.Error(err))
			continue
		}
		switch frame.Event {
		case events.FrameChange:
			if frame.Data != nil && frame.Data.Table == s.topic {
				handler(*frame.Data)
			}
		case events.FrameError:
			s.logger.Warn("realtime error frame", zap.String("message", frame.Message))
		}
	}
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.write(events.Frame{Event: events.FrameUnsubscribe, Topic: s.topic, Filter: s.filter})
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.writeMu.Unlock()
		s.conn.Close()
	})
}
