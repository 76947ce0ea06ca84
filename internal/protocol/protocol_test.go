package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrame(5, 3)
	f.Playing = true
	f.Speed = 33
	f.Generation = 123456789
	for _, k := range []int{0, 4, 7, 14} {
		f.SetAlive(k)
	}

	buf := make([]byte, f.EncodeSize())
	f.Encode(buf)

	var got Frame
	require.NoError(t, got.Decode(buf))
	assert.Equal(t, f.Playing, got.Playing)
	assert.Equal(t, f.Speed, got.Speed)
	assert.Equal(t, f.Width, got.Width)
	assert.Equal(t, f.Height, got.Height)
	assert.Equal(t, f.Generation, got.Generation)
	for k := 0; k < 15; k++ {
		assert.Equal(t, f.AliveAt(k), got.AliveAt(k), "cell %d", k)
	}
}

func TestFrameDecodeErrors(t *testing.T) {
	var f Frame
	assert.Error(t, f.Decode([]byte{1, 2, 3}))

	// Header claims a 16x16 grid but carries no cell payload.
	short := NewFrame(16, 16)
	buf := make([]byte, short.EncodeSize())
	short.Encode(buf)
	assert.Error(t, f.Decode(buf[:frameHeaderSize]))
}

func TestClientMessageRoundTrip(t *testing.T) {
	for _, cmd := range []CommandType{Next, Play, Pause, Clear, Randomise} {
		msg, err := DecodeClientMessage((&Command{Cmd: cmd}).Encode())
		require.NoError(t, err)
		require.IsType(t, &Command{}, msg)
		assert.Equal(t, cmd, msg.(*Command).Cmd)
	}

	msg, err := DecodeClientMessage((&SetSpeed{Speed: 250}).Encode())
	require.NoError(t, err)
	require.IsType(t, &SetSpeed{}, msg)
	assert.Equal(t, uint16(250), msg.(*SetSpeed).Speed)
}

func TestClientMessageDecodeErrors(t *testing.T) {
	_, err := DecodeClientMessage(nil)
	assert.Error(t, err)
	_, err = DecodeClientMessage([]byte{99})
	assert.Error(t, err)
	_, err = DecodeClientMessage([]byte{byte(command)})
	assert.Error(t, err)
	_, err = DecodeClientMessage([]byte{byte(setSpeed), 1})
	assert.Error(t, err)
}
