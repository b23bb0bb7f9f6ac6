package appcontrol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage(EventSetParameters, map[string]interface{}{
		"updates_per_min": float64(120),
	})

	var buf bytes.Buffer
	if err := WriteMessage(&buf, msg); err != nil {
		t.Fatal(err)
	}

	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}

	if buf.Len() != 0 {
		t.Errorf("expected the full frame to be consumed, %d bytes left", buf.Len())
	}
}

func TestFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, NewMessage(EventPlay, nil)); err != nil {
		t.Fatal(err)
	}

	frame := buf.Bytes()
	if len(frame) < 2 {
		t.Fatal("frame too short")
	}

	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		t.Fatalf("frame shorter than declared header length %d", headerLen)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(frame[2:2+headerLen], &header); err != nil {
		t.Fatalf("header is not valid JSON: %s", err)
	}

	for _, required := range []string{"byteorder", "content-type", "content-encoding", "content-length"} {
		if _, ok := header[required]; !ok {
			t.Errorf("header is missing field %q", required)
		}
	}

	contentLen := int(header["content-length"].(float64))
	content := frame[2+headerLen:]
	if len(content) != contentLen {
		t.Errorf("expected %d content bytes, got %d", contentLen, len(content))
	}

	var msg Message
	if err := json.Unmarshal(content, &msg); err != nil {
		t.Fatalf("content is not valid JSON: %s", err)
	}
	if msg.EventType() != EventPlay {
		t.Errorf("expected event type %q, got %q", EventPlay, msg.EventType())
	}
}

func TestReadMessageRejectsMissingHeaderField(t *testing.T) {
	header := []byte(`{"content-type":"text/json","content-encoding":"utf-8","content-length":2}`)
	content := []byte(`{}`)

	frame := make([]byte, 2, 2+len(header)+len(content))
	binary.BigEndian.PutUint16(frame, uint16(len(header)))
	frame = append(frame, header...)
	frame = append(frame, content...)

	if _, err := ReadMessage(bytes.NewReader(frame)); err == nil {
		t.Fatal("expected an error for a header missing 'byteorder'")
	}
}

func TestReadMessageRejectsOversizedContentLength(t *testing.T) {
	header := []byte(`{"byteorder":"little","content-type":"text/json","content-encoding":"utf-8","content-length":2147483647}`)

	frame := make([]byte, 2, 2+len(header))
	binary.BigEndian.PutUint16(frame, uint16(len(header)))
	frame = append(frame, header...)

	_, err := ReadMessage(bytes.NewReader(frame))
	if err == nil {
		t.Fatal("expected an error for an oversized content length")
	}
	// The declared length must be rejected before any content read is
	// attempted, not fail as a short read.
	if !strings.Contains(err.Error(), "content length") {
		t.Errorf("expected a content length error, got %q", err)
	}
}

func TestReadMessagePartialFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, NewMessage(EventStop, nil)); err != nil {
		t.Fatal(err)
	}

	truncated := buf.Bytes()[:buf.Len()-1]
	if _, err := ReadMessage(bytes.NewReader(truncated)); err == nil {
		t.Fatal("expected an error for a truncated frame")
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	for _, et := range []string{EventPlay, EventPause, EventResume, EventStop} {
		if err := WriteMessage(&buf, NewMessage(et, nil)); err != nil {
			t.Fatal(err)
		}
	}

	for _, want := range []string{EventPlay, EventPause, EventResume, EventStop} {
		msg, err := ReadMessage(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if msg.EventType() != want {
			t.Errorf("expected event type %q, got %q", want, msg.EventType())
		}
	}
}
