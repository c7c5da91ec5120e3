package actor

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalIDEqual(t *testing.T) {
	a := NewAutomaticLocalID()
	b := a
	assert.True(t, a.Equal(b))

	s1 := NewSpecifiedLocalID([]byte("field-1"))
	s2 := NewSpecifiedLocalID([]byte("field-1"))
	s3 := NewSpecifiedLocalID([]byte("field-2"))
	assert.True(t, s1.Equal(s2))
	assert.False(t, s1.Equal(s3))
	assert.False(t, a.Equal(s1))
}

func TestIDKeyIsStableAcrossEqualValues(t *testing.T) {
	id1 := ID{Local: NewSpecifiedLocalID([]byte{1, 2, 3}), Resident: net.ParseIP("10.0.0.1")}
	id2 := ID{Local: NewSpecifiedLocalID([]byte{1, 2, 3}), Resident: net.ParseIP("10.0.0.1")}
	assert.Equal(t, id1.Key(), id2.Key())
}

func TestIDLessOrdersByResidentThenLocal(t *testing.T) {
	low := ID{Local: NewSpecifiedLocalID([]byte("a")), Resident: net.ParseIP("10.0.0.1")}
	high := ID{Local: NewSpecifiedLocalID([]byte("a")), Resident: net.ParseIP("10.0.0.2")}
	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))

	sameHostA := ID{Local: NewSpecifiedLocalID([]byte("a")), Resident: net.ParseIP("10.0.0.1")}
	sameHostB := ID{Local: NewSpecifiedLocalID([]byte("b")), Resident: net.ParseIP("10.0.0.1")}
	assert.True(t, sameHostA.Less(sameHostB))
}
