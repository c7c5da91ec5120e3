package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type greeting struct{ Name string }
type farewell struct{ Who string }

func TestHandlerTableDispatchesFirstMatchingType(t *testing.T) {
	table := &HandlerTable{}
	var handled []string
	RegisterHandler(table, func(g greeting) { handled = append(handled, "hi:"+g.Name) })
	RegisterHandler(table, func(f farewell) { handled = append(handled, "bye:"+f.Who) })

	table.Dispatch(greeting{Name: "Ada"})
	table.Dispatch(farewell{Who: "Ada"})
	table.Dispatch(42) // unregistered type: silently ignored

	assert.Equal(t, []string{"hi:Ada", "bye:Ada"}, handled)
}

func TestHandlerTableDeserializeTriesEachTypeInOrder(t *testing.T) {
	table := &HandlerTable{}
	RegisterHandler(table, func(greeting) {})
	RegisterHandler(table, func(farewell) {})

	encoded, err := Encode(farewell{Who: "Grace"})
	assert.NoError(t, err)

	decoded, ok := table.Deserialize(encoded)
	assert.True(t, ok)
	assert.Equal(t, farewell{Who: "Grace"}, decoded)
}

func TestFactoryUnknownTagFails(t *testing.T) {
	factory := NewFactory(
		TypeBuilder{Tag: "greeter", New: func() Body { return nil }},
	)
	_, err := factory("unknown")
	assert.Error(t, err)
	var actorErr *Error
	assert.ErrorAs(t, err, &actorErr)
	assert.Equal(t, SpawnFailed, actorErr.Kind)
}
