package iso8583

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestFrame_Bytes(t *testing.T) {
	frame := TestFrame()

	require.Len(t, frame, 19)
	assert.Equal(t, "00116000000000080000000000000000000000", hex.EncodeToString(frame))
}

func TestTestFrame_FreshCopy(t *testing.T) {
	a := TestFrame()
	a[2] = 0xFF

	b := TestFrame()
	assert.Equal(t, byte(0x60), b[2])
	assert.Equal(t, TestFrame(), b)
}

func TestInspect_SignInResponse(t *testing.T) {
	raw, err := hex.DecodeString("001560000000006122000000010810" + "00000000000000")
	require.NoError(t, err)
	raw[1] = byte(len(raw) - 2)

	h, err := Inspect(raw)
	require.NoError(t, err)

	assert.Equal(t, len(raw)-2, h.DeclaredLength)
	assert.True(t, h.Complete)
	assert.Equal(t, "6000000000", h.TPDU)
	assert.Equal(t, "612200000001", h.Header)
	assert.Equal(t, TypeSignInResponse, h.MessageType)
	assert.Equal(t, "sign-in response", h.Name())
	assert.Contains(t, h.String(), "type=0810 (sign-in response)")
}

func TestInspect_EchoedProbeFrame(t *testing.T) {
	h, err := Inspect(TestFrame())
	require.NoError(t, err)

	assert.Equal(t, 17, h.DeclaredLength)
	assert.True(t, h.Complete)
	assert.Equal(t, "6000000000", h.TPDU)
	// the probe frame has no 6-byte header, so the type lands inside the padding
	assert.Equal(t, "080000000000", h.Header)
	assert.Equal(t, "0000", h.MessageType)
	assert.Empty(t, h.Name())
}

func TestInspect_Truncated(t *testing.T) {
	h, err := Inspect([]byte{0x00, 0x40, 0x60, 0x00})
	require.NoError(t, err)

	assert.Equal(t, 64, h.DeclaredLength)
	assert.False(t, h.Complete)
	assert.Empty(t, h.TPDU)
	assert.Equal(t, "length=64 complete=false", h.String())
}

func TestInspect_TooShort(t *testing.T) {
	_, err := Inspect([]byte{0x01})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = Inspect(nil)
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestMessageTypeName(t *testing.T) {
	assert.Equal(t, "heartbeat response", MessageTypeName(TypeHeartbeatResponse))
	assert.Equal(t, "", MessageTypeName("9999"))
}
