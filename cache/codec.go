package cache

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// BodyKind records which write path produced a cached body.
type BodyKind uint8

const (
	// KindRaw bodies were written with http.ResponseWriter.Write.
	KindRaw BodyKind = iota
	// KindStructured bodies were written through WriteJSON.
	KindStructured
)

// String returns the kind name.
func (k BodyKind) String() string {
	if k == KindStructured {
		return "structured"
	}
	return "raw"
}

// Entry is a captured response body.
type Entry struct {
	Kind BodyKind
	Body []byte
}

// ErrUndecodable is returned by Codec.Decode for a value the codec did not
// write. The engine treats it as a miss.
var ErrUndecodable = errors.New("cache: stored value cannot be decoded")

// Codec converts entries to and from stored string values.
type Codec interface {
	Encode(e Entry) (string, error)
	Decode(value string) (Entry, error)
}

// SniffCodec stores bodies verbatim and infers the kind on read: a body
// starting with '{' or '[' is structured.
//
// A raw body that happens to start with '{' is replayed through the
// structured path. Use TaggedCodec to keep the original kind.
type SniffCodec struct{}

// Encode implements Codec.
func (SniffCodec) Encode(e Entry) (string, error) {
	return string(e.Body), nil
}

// Decode implements Codec.
func (SniffCodec) Decode(value string) (Entry, error) {
	e := Entry{Kind: KindRaw, Body: []byte(value)}
	if looksStructured(value) {
		e.Kind = KindStructured
	}
	return e, nil
}

func looksStructured(s string) bool {
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

// TaggedCodec stores a msgpack envelope holding the kind next to the body.
// Values written by SniffCodec cannot be read back by TaggedCodec, so
// switching codecs effectively empties the cache until entries expire.
type TaggedCodec struct{}

type envelope struct {
	Kind BodyKind `msgpack:"k"`
	Body []byte   `msgpack:"b"`
}

// Encode implements Codec.
func (TaggedCodec) Encode(e Entry) (string, error) {
	b, err := msgpack.Marshal(envelope{Kind: e.Kind, Body: e.Body})
	if err != nil {
		return "", fmt.Errorf("cache: encode entry: %w", err)
	}
	return string(b), nil
}

// Decode implements Codec.
func (TaggedCodec) Decode(value string) (Entry, error) {
	var env envelope
	if err := msgpack.Unmarshal([]byte(value), &env); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if env.Kind != KindRaw && env.Kind != KindStructured {
		return Entry{}, fmt.Errorf("%w: unknown kind %d", ErrUndecodable, env.Kind)
	}
	return Entry{Kind: env.Kind, Body: env.Body}, nil
}

var (
	_ Codec = SniffCodec{}
	_ Codec = TaggedCodec{}
)
