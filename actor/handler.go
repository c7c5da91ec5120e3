package actor

import (
	"bytes"
	"encoding/gob"
)

// HandlerTable is the Go analogue of the library's message-handler
// factory: given pairs (message type, handler function), it emits both
// capabilities an actor Body needs — Dispatch (the runtime dispatcher) and
// Deserialize (the decoder) — by first-match linear search over the
// declared types, in declaration order, from a single source of truth.
type HandlerTable struct {
	entries []handlerEntry
}

type handlerEntry struct {
	dispatch func(msg interface{}) bool
	decode   func(data []byte) (interface{}, bool)
}

// RegisterHandler appends a (message type, handler) pair to the table.
// Go's lack of macros means this is a free function parameterized by the
// message type, rather than a compile-time macro expansion, but the
// resulting behavior is identical: try this type, and if it doesn't
// match, fall through to the next registered entry.
func RegisterHandler[T any](table *HandlerTable, handle func(T)) {
	table.entries = append(table.entries, handlerEntry{
		dispatch: func(msg interface{}) bool {
			typed, ok := msg.(T)
			if !ok {
				return false
			}
			handle(typed)
			return true
		},
		decode: func(data []byte) (interface{}, bool) {
			var typed T
			if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&typed); err != nil {
				return nil, false
			}
			return typed, true
		},
	})
}

// Dispatch tries each registered type in declaration order, invoking the
// first handler whose type matches. Unmatched messages are silently
// ignored, per the runtime's dynamic-dispatch contract.
func (t *HandlerTable) Dispatch(msg interface{}) {
	for _, e := range t.entries {
		if e.dispatch(msg) {
			return
		}
	}
}

// Deserialize tries each registered type's decoder in declaration order,
// returning the first successful decode.
func (t *HandlerTable) Deserialize(data []byte) (interface{}, bool) {
	for _, e := range t.entries {
		if v, ok := e.decode(data); ok {
			return v, true
		}
	}
	return nil, false
}

// Encode gob-encodes an arbitrary registered message value for transport.
// Serialization failures are the caller's concern to log and drop, per the
// runtime's fire-and-forget send contract.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TypeBuilder pairs a type tag with the Producer that builds a fresh
// instance of that type. Used by NewFactory.
type TypeBuilder struct {
	Tag string
	New Producer
}

// Factory is a pure function from a type-tag string to a freshly
// constructed actor body, the Go analogue of actor_builder!.
type Factory func(typeTag string) (Body, error)

// NewFactory builds a Factory from (tag, producer) pairs by linear search,
// mirroring actor_builder!'s expansion exactly: first matching tag wins.
func NewFactory(builders ...TypeBuilder) Factory {
	return func(typeTag string) (Body, error) {
		for _, b := range builders {
			if b.Tag == typeTag {
				return b.New(), nil
			}
		}
		return nil, NewError(SpawnFailed, "unknown actor type: %s", typeTag)
	}
}
