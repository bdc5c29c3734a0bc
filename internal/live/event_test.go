package live

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	event := ChangeEvent{Paths: []string{"a.txt", "b/c.txt"}, Dropped: false}

	data, err := Encode(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, event) {
		t.Fatalf("expected %+v, got %+v", event, decoded)
	}
}

func TestEncodeWireShape(t *testing.T) {
	data, err := Encode(ChangeEvent{Paths: []string{"/srv/notes.txt"}, Dropped: true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := string(data), `{"paths":["/srv/notes.txt"],"dropped":true}`; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestEncodeReplacesInvalidUTF8(t *testing.T) {
	event := ChangeEvent{Paths: []string{"bad-\xff\xfe-name.txt"}}

	first, err := Encode(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := Encode(event)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected deterministic output, got %s and %s", first, second)
	}

	decoded, err := Decode(first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := decoded.Paths[0]
	if !utf8.ValidString(path) || !strings.Contains(path, "�") {
		t.Fatalf("expected replacement character in %q", path)
	}
	if !strings.HasPrefix(path, "bad-") || !strings.HasSuffix(path, "-name.txt") {
		t.Fatalf("expected valid parts to survive, got %q", path)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
