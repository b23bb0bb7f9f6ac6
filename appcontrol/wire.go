// Package appcontrol implements the framed TCP protocol spoken between
// the shell and companion app executables.
//
// Every frame has three parts:
//
//	proto-header: 2-byte big-endian integer, length of the JSON header
//	JSON header:  byteorder, content-type, content-encoding, content-length
//	content:      payload, JSON for "text/json" content
package appcontrol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	contentTypeJSON = "text/json"
	contentEncoding = "utf-8"
)

// maxContentLength bounds the content buffer allocated per frame.
// Protocol messages are small, anything near this limit is a broken or
// hostile peer.
const maxContentLength = 1 << 20

// Control events sent by the shell.
const (
	EventSetParameters = "setParameters"
	EventPlay          = "play"
	EventPause         = "pause"
	EventResume        = "resume"
	EventStop          = "stop"
)

// Events sent by companion apps.
const (
	EventWaiting        = "waiting"
	EventReady          = "ready"
	EventClose          = "close"
	EventRequestSamples = "request_samples"
)

// Message is a decoded protocol payload. Every message carries an
// "event_type" plus event specific fields.
type Message map[string]interface{}

func (m Message) EventType() string {
	et, _ := m["event_type"].(string)
	return et
}

// NewMessage builds a message of the given event type with optional
// extra fields.
func NewMessage(eventType string, fields map[string]interface{}) Message {
	m := Message{"event_type": eventType}
	for k, v := range fields {
		m[k] = v
	}
	return m
}

type wireHeader struct {
	ByteOrder       string `json:"byteorder"`
	ContentType     string `json:"content-type"`
	ContentEncoding string `json:"content-encoding"`
	ContentLength   int    `json:"content-length"`
}

// WriteMessage frames and writes a single message.
func WriteMessage(w io.Writer, msg Message) error {
	content, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("could not encode message content: %w", err)
	}

	header, err := json.Marshal(wireHeader{
		ByteOrder:       "little",
		ContentType:     contentTypeJSON,
		ContentEncoding: contentEncoding,
		ContentLength:   len(content),
	})
	if err != nil {
		return fmt.Errorf("could not encode message header: %w", err)
	}

	frame := make([]byte, 2, 2+len(header)+len(content))
	binary.BigEndian.PutUint16(frame, uint16(len(header)))
	frame = append(frame, header...)
	frame = append(frame, content...)

	_, err = w.Write(frame)
	return err
}

// ReadMessage reads and decodes a single framed message. It blocks
// until a full frame is available.
func ReadMessage(r io.Reader) (Message, error) {
	var protoHeader [2]byte
	if _, err := io.ReadFull(r, protoHeader[:]); err != nil {
		return nil, err
	}
	headerLen := binary.BigEndian.Uint16(protoHeader[:])

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("could not read message header: %w", err)
	}

	var header wireHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid message header: %w", err)
	}
	if err := validateHeader(headerBytes); err != nil {
		return nil, err
	}
	if header.ContentLength < 0 || header.ContentLength > maxContentLength {
		return nil, fmt.Errorf("content length %d outside of allowed range 0..%d", header.ContentLength, maxContentLength)
	}

	content := make([]byte, header.ContentLength)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("could not read message content: %w", err)
	}

	if header.ContentType != contentTypeJSON {
		return nil, fmt.Errorf("unsupported content type %q", header.ContentType)
	}

	var msg Message
	if err := json.Unmarshal(content, &msg); err != nil {
		return nil, fmt.Errorf("invalid message content: %w", err)
	}

	return msg, nil
}

// validateHeader checks that all required header fields are present,
// not just decodable.
func validateHeader(headerBytes []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return fmt.Errorf("invalid message header: %w", err)
	}
	for _, required := range []string{"byteorder", "content-length", "content-type", "content-encoding"} {
		if _, ok := raw[required]; !ok {
			return fmt.Errorf("missing required message header field %q", required)
		}
	}
	return nil
}
