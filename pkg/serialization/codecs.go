package serialization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownCodec is returned by CodecByName for unsupported names.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec interface for serialization
// PRINCIPLES:
// - ISP: Simple interface with ≤5 methods
// - SRP: Single responsibility for serialization
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// JSONCodec implements JSON serialization
type JSONCodec struct{}

func (c *JSONCodec) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}

// MsgPackCodec implements MessagePack serialization. Struct fields are keyed
// by their json tags so run payloads decode the same through every codec.
type MsgPackCodec struct{}

func (c *MsgPackCodec) Encode(v interface{}) ([]byte, error) {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *MsgPackCodec) Decode(data []byte, v interface{}) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (c *MsgPackCodec) Name() string {
	return "msgpack"
}

// cborEnc uses Core Deterministic Encoding: the same value always yields
// the same bytes.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("serialization: CBOR encoder initialization failed: " + err.Error())
	}
	// Untyped maps decode as map[string]interface{} so decoded run payloads
	// stay usable with encoding/json.
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic("serialization: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec implements deterministic CBOR serialization
type CBORCodec struct{}

func (c *CBORCodec) Encode(v interface{}) ([]byte, error) {
	return cborEnc.Marshal(v)
}

func (c *CBORCodec) Decode(data []byte, v interface{}) error {
	return cborDec.Unmarshal(data, v)
}

func (c *CBORCodec) Name() string {
	return "cbor"
}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() Codec {
	return &JSONCodec{}
}

// NewMsgPackCodec creates a new MessagePack codec
func NewMsgPackCodec() Codec {
	return &MsgPackCodec{}
}

// NewCBORCodec creates a new CBOR codec
func NewCBORCodec() Codec {
	return &CBORCodec{}
}

// CodecByName resolves a codec from its configuration name. An empty name
// selects MessagePack.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "msgpack":
		return NewMsgPackCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "cbor":
		return NewCBORCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
