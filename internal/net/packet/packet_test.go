package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriterWithOpcode(SJoinOK)
	w.WriteC(7)
	w.WriteH(0xBEEF)
	w.WriteD(-42)
	w.WriteDU(0xDEADBEEF)
	w.WriteQ(1<<40 | 5)
	w.WriteF(-12.75)
	w.WriteS("commander")
	w.WriteS("") // empty string still gets its terminator

	r := NewReader(w.Bytes())
	assert.Equal(t, SJoinOK, r.Opcode())
	assert.Equal(t, byte(7), r.ReadC())
	assert.Equal(t, uint16(0xBEEF), r.ReadH())
	assert.Equal(t, int32(-42), r.ReadD())
	assert.Equal(t, uint32(0xDEADBEEF), r.ReadDU())
	assert.Equal(t, uint64(1<<40|5), r.ReadQ())
	assert.Equal(t, -12.75, r.ReadF())
	assert.Equal(t, "commander", r.ReadS())
	assert.Equal(t, "", r.ReadS())
	assert.Zero(t, r.Remaining())
}

func TestReaderShortReadsReturnZero(t *testing.T) {
	r := NewReader([]byte{0x01, 0xAB}) // opcode + one byte
	assert.Equal(t, byte(0xAB), r.ReadC())
	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, uint16(0), r.ReadH())
	assert.Equal(t, int32(0), r.ReadD())
	assert.Equal(t, uint64(0), r.ReadQ())
	assert.Equal(t, "", r.ReadS())
}

func TestReaderUnterminatedString(t *testing.T) {
	w := NewWriterWithOpcode(CJoin)
	w.WriteBytes([]byte("no-null"))
	r := NewReader(w.Bytes())
	assert.Equal(t, "no-null", r.ReadS(), "missing terminator yields the rest of the payload")
	assert.Zero(t, r.Remaining())
}

func TestRegistryDispatchGatesOnState(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var calls int
	reg.Register(CCommand, []SessionState{StateAuthenticated}, func(sess any, r *Reader) {
		calls++
	})

	payload := []byte{CCommand, 1, 2, 3}
	err := reg.Dispatch(nil, StateHandshake, payload)
	assert.Error(t, err, "wrong state never reaches the handler")
	assert.Zero(t, calls)

	require.NoError(t, reg.Dispatch(nil, StateAuthenticated, payload))
	assert.Equal(t, 1, calls)
}

func TestRegistryIgnoresUnknownOpcode(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.NoError(t, reg.Dispatch(nil, StateAuthenticated, []byte{0x7F}))
	assert.Error(t, reg.Dispatch(nil, StateAuthenticated, nil))
}

func TestRegistryRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(CPing, []SessionState{StateAuthenticated}, func(sess any, r *Reader) {
		panic("handler blew up")
	})

	var err error
	require.NotPanics(t, func() {
		err = reg.Dispatch(nil, StateAuthenticated, []byte{CPing})
	})
	assert.Error(t, err)
}
