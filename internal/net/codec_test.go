package net

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x83, 1, 2, 3, 4, 5}
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Zero(t, buf.Len(), "nothing trailing after one frame")
}

func TestFrameSequenceKeepsBoundaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("first")))
	require.NoError(t, WriteFrame(&buf, []byte("second")))

	a, err := ReadFrame(&buf)
	require.NoError(t, err)
	b, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "second", string(b))
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	var header [4]byte

	binary.LittleEndian.PutUint32(header[:], 0)
	_, err := ReadFrame(bytes.NewReader(header[:]))
	assert.Error(t, err, "zero-length frame")

	binary.LittleEndian.PutUint32(header[:], maxFrameSize+1)
	_, err = ReadFrame(bytes.NewReader(header[:]))
	assert.Error(t, err, "oversized frame")
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("full payload")))
	truncated := buf.Bytes()[:buf.Len()-4]

	_, err := ReadFrame(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, maxFrameSize+1))
	assert.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing written on rejection")
}
