package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// RowChange is one committed insert, update or delete on a table.
type RowChange struct {
	Table           string                 `json:"table"`
	Type            ChangeType             `json:"type"`
	Record          map[string]interface{} `json:"record,omitempty"`
	OldRecord       map[string]interface{} `json:"old_record,omitempty"`
	CommitTimestamp time.Time              `json:"commit_timestamp"`
}

// NewRowChange snapshots record and old (any JSON-encodable rows) into a change.
func NewRowChange(table string, typ ChangeType, record, old interface{}) (RowChange, error) {
	c := RowChange{Table: table, Type: typ, CommitTimestamp: time.Now().UTC()}

	var err error
	if record != nil {
		if c.Record, err = toRecord(record); err != nil {
			return RowChange{}, fmt.Errorf("encode record: %w", err)
		}
	}
	if old != nil {
		if c.OldRecord, err = toRecord(old); err != nil {
			return RowChange{}, fmt.Errorf("encode old record: %w", err)
		}
	}
	return c, nil
}

func toRecord(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// EventType is the subject suffix, e.g. "messages.insert".
func (c RowChange) EventType() string {
	return c.Table + "." + strings.ToLower(string(c.Type))
}

func (c RowChange) Payload() map[string]interface{} {
	m, _ := toRecord(c)
	return m
}

func (c RowChange) Timestamp() time.Time {
	return c.CommitTimestamp
}

// Row is the record a filter is evaluated against: the new row, or the old
// one for deletes.
func (c RowChange) Row() map[string]interface{} {
	if c.Record != nil {
		return c.Record
	}
	return c.OldRecord
}

// Decode unmarshals the current row into out.
func (c RowChange) Decode(out interface{}) error {
	raw, err := json.Marshal(c.Row())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// RowChangeFromPayload rebuilds a change from Payload output.
func RowChangeFromPayload(payload map[string]interface{}) (RowChange, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RowChange{}, err
	}
	var c RowChange
	if err := json.Unmarshal(raw, &c); err != nil {
		return RowChange{}, err
	}
	if c.Table == "" || c.Type == "" {
		return RowChange{}, fmt.Errorf("payload is not a row change")
	}
	return c, nil
}

// Frame is the realtime wire message in both directions.
//
// Client to server: subscribe / unsubscribe with Topic and Filter.
// Server to client: change (Data set), ack, or error (Message set).
type Frame struct {
	Event   string     `json:"event"`
	Topic   string     `json:"topic,omitempty"`
	Filter  string     `json:"filter,omitempty"`
	Data    *RowChange `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
}

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameChange      = "change"
	FrameAck         = "ack"
	FrameError       = "error"
)
