// Package iso8583 builds the synthetic sign-in frame sent by the probe and
// decodes the framing header of whatever the gateway answers with.
package iso8583

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Frame layout: 2-byte big-endian length, 5-byte TPDU, then the body.
const (
	LengthPrefixSize = 2
	TPDUSize         = 5
	HeaderSize       = 6
	MessageTypeSize  = 2
	paddingSize      = 10
)

// TPDU is the transport header the gateway expects at the start of every frame.
var TPDU = [TPDUSize]byte{0x60, 0x00, 0x00, 0x00, 0x00}

// SignInType is message type 0800 in BCD.
var SignInType = [MessageTypeSize]byte{0x08, 0x00}

var ErrShortFrame = errors.New("frame shorter than length prefix")

// TestFrame returns the 19-byte sign-in probe frame. The body is deliberately
// incomplete (no bitmap or fields) and must stay byte-for-byte stable.
func TestFrame() []byte {
	body := make([]byte, 0, TPDUSize+MessageTypeSize+paddingSize)
	body = append(body, TPDU[:]...)
	body = append(body, SignInType[:]...)
	body = append(body, make([]byte, paddingSize)...)

	frame := make([]byte, LengthPrefixSize, LengthPrefixSize+len(body))
	binary.BigEndian.PutUint16(frame, uint16(len(body)))
	return append(frame, body...)
}

// Header is the decoded framing of a gateway response.
type Header struct {
	DeclaredLength int
	Complete       bool // buffer holds the whole declared frame
	TPDU           string
	Header         string
	MessageType    string
}

// Name returns the message type's description, or "" when unknown.
func (h *Header) Name() string {
	return MessageTypeName(h.MessageType)
}

func (h *Header) String() string {
	s := fmt.Sprintf("length=%d complete=%t", h.DeclaredLength, h.Complete)
	if h.TPDU != "" {
		s += " tpdu=" + h.TPDU
	}
	if h.Header != "" {
		s += " header=" + h.Header
	}
	if h.MessageType != "" {
		s += " type=" + h.MessageType
		if name := h.Name(); name != "" {
			s += " (" + name + ")"
		}
	}
	return s
}

// Inspect decodes as much of the gateway framing as buf contains. Responses are
// laid out as length | TPDU | 6-byte header | BCD message type | bitmap ...
func Inspect(buf []byte) (*Header, error) {
	if len(buf) < LengthPrefixSize {
		return nil, ErrShortFrame
	}
	h := &Header{
		DeclaredLength: int(binary.BigEndian.Uint16(buf)),
	}
	payload := buf[LengthPrefixSize:]
	h.Complete = len(payload) >= h.DeclaredLength
	if h.DeclaredLength < len(payload) {
		payload = payload[:h.DeclaredLength]
	}

	if len(payload) < TPDUSize {
		return h, nil
	}
	h.TPDU = hex.EncodeToString(payload[:TPDUSize])
	payload = payload[TPDUSize:]

	if len(payload) < HeaderSize {
		return h, nil
	}
	h.Header = hex.EncodeToString(payload[:HeaderSize])
	payload = payload[HeaderSize:]

	if len(payload) < MessageTypeSize {
		return h, nil
	}
	h.MessageType = hex.EncodeToString(payload[:MessageTypeSize])
	return h, nil
}
