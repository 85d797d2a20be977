// Package serialization encodes run journal payloads and fingerprints graph
// definitions.
// PRINCIPLES:
// - KISS: Simple interface with multiple codec implementations
// - DRY: Reusable across all journal stores
// - SOLID: Interface segregation for different serializers
package serialization

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ErrInvalidKey is returned when an encryption key is not a valid AES size.
var ErrInvalidKey = errors.New("encryption key must be 16, 24 or 32 bytes")

// CompressionType represents compression algorithms
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// SerializationConfig holds serialization settings
type SerializationConfig struct {
	Codec       Codec
	Compression CompressionType
	EncryptKey  []byte // AES key (16, 24 or 32 bytes); empty disables encryption
}

// Serializer provides complete serialization with compression and encryption
// PRINCIPLES:
// - KISS: Simple interface hiding complex operations
// - SRP: Single responsibility for complete serialization pipeline
type Serializer struct {
	config SerializationConfig
}

// NewSerializer creates a new serializer with configuration. A nil codec
// selects MessagePack.
func NewSerializer(config SerializationConfig) *Serializer {
	if config.Codec == nil {
		config.Codec = NewMsgPackCodec()
	}
	if config.Compression == "" {
		config.Compression = CompressionNone
	}
	return &Serializer{config: config}
}

// NewJournalSerializer builds the serializer used for run journal payloads:
// the named codec and compression ("" selects zstd).
func NewJournalSerializer(codecName, compression string, encryptKey []byte) (*Serializer, error) {
	codec, err := CodecByName(codecName)
	if err != nil {
		return nil, err
	}
	comp := CompressionType(compression)
	switch comp {
	case "":
		comp = CompressionZstd
	case CompressionNone, CompressionGzip, CompressionZstd:
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
	switch len(encryptKey) {
	case 0, 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	return NewSerializer(SerializationConfig{
		Codec:       codec,
		Compression: comp,
		EncryptKey:  encryptKey,
	}), nil
}

// CodecName reports the name of the configured codec.
func (s *Serializer) CodecName() string {
	return s.config.Codec.Name()
}

// Serialize encodes, compresses, and encrypts data
// PRINCIPLES:
// - KISS: Simple method signature, complex work hidden
// - Error handling follows Go idioms
func (s *Serializer) Serialize(v interface{}) ([]byte, error) {
	// 1. Encode with codec
	data, err := s.config.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec encoding failed: %w", err)
	}

	// 2. Compress if enabled
	data, err = s.compress(data)
	if err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}

	// 3. Encrypt if key provided
	if len(s.config.EncryptKey) > 0 {
		data, err = s.encrypt(data)
		if err != nil {
			return nil, fmt.Errorf("encryption failed: %w", err)
		}
	}

	return data, nil
}

// Deserialize decrypts, decompresses, and decodes data
func (s *Serializer) Deserialize(data []byte, v interface{}) error {
	var err error

	// 1. Decrypt if key provided
	if len(s.config.EncryptKey) > 0 {
		data, err = s.decrypt(data)
		if err != nil {
			return fmt.Errorf("decryption failed: %w", err)
		}
	}

	// 2. Decompress if enabled
	data, err = s.decompress(data)
	if err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}

	// 3. Decode with codec
	err = s.config.Codec.Decode(data, v)
	if err != nil {
		return fmt.Errorf("codec decoding failed: %w", err)
	}

	return nil
}

// compress applies compression based on configuration
func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		return s.compressGzip(data)
	case CompressionZstd:
		return s.compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression %q", s.config.Compression)
	}
}

// decompress removes compression based on configuration
func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		return s.decompressGzip(data)
	case CompressionZstd:
		return s.decompressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression %q", s.config.Compression)
	}
}

// compressGzip compresses data using gzip
func (s *Serializer) compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompressGzip decompresses gzip data
func (s *Serializer) decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll
// and expensive to build, so one of each is shared.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressZstd compresses data using zstd
func (s *Serializer) compressZstd(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd data
func (s *Serializer) decompressZstd(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}

// encrypt encrypts data using AES-GCM
func (s *Serializer) encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.config.EncryptKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return ciphertext, nil
}

// decrypt decrypts data using AES-GCM
func (s *Serializer) decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.config.EncryptKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("invalid ciphertext size")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// DefaultSerializer creates a serializer with sensible defaults
func DefaultSerializer() *Serializer {
	return NewSerializer(SerializationConfig{
		Codec:       NewMsgPackCodec(),
		Compression: CompressionZstd,
	})
}
