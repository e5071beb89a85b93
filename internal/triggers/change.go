// Package triggers carries record-change events from their source (Zeebe jobs
// or Postgres notifications) to the reactive notification handlers.
package triggers

import (
	"context"
	"encoding/json"
	"fmt"

	"synctask-notifications/internal/common/errors"
)

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

// Collections observed by the reactive handlers.
const (
	CollectionUsers          = "users"
	CollectionFriendRequests = "friendRequests"
)

// Change is the record-change envelope. Before is set on updates, After on
// creates and updates.
type Change struct {
	Collection string          `json:"collection"`
	Operation  Operation       `json:"operation"`
	RecordID   string          `json:"recordId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Decode parses a change envelope from its JSON form.
func Decode(source string, payload []byte) (*Change, error) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return nil, errors.NewPayloadParseFailedError(source, err)
	}
	if change.Collection == "" || change.Operation == "" {
		return nil, errors.NewPayloadParseFailedError(source, fmt.Errorf("collection and operation are required"))
	}
	return &change, nil
}

// DecodeBefore unmarshals the prior record state into v. It reports false when
// the envelope has no prior state.
func (c *Change) DecodeBefore(v interface{}) (bool, error) {
	return decodeState(c.Before, v)
}

// DecodeAfter unmarshals the new record state into v. It reports false when
// the envelope has no new state.
func (c *Change) DecodeAfter(v interface{}) (bool, error) {
	return decodeState(c.After, v)
}

func decodeState(raw json.RawMessage, v interface{}) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode record state: %w", err)
	}
	return true, nil
}

func (c *Change) key() string {
	return routeKey(c.Collection, c.Operation)
}

func routeKey(collection string, op Operation) string {
	return collection + "/" + string(op)
}

// Handler reacts to one change. Implementations absorb their own failures.
type Handler interface {
	HandleChange(ctx context.Context, change *Change)
}

type HandlerFunc func(ctx context.Context, change *Change)

func (f HandlerFunc) HandleChange(ctx context.Context, change *Change) {
	f(ctx, change)
}
