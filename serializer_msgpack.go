package gigcache

import "github.com/vmihailenco/msgpack/v5"

// MsgPackSerializer uses the vmihailenco/msgpack library for serialization.
// It produces smaller entries than JSON, which matters for long history windows.
type MsgPackSerializer struct{}

// Marshal implements the Serializer interface.
func (s MsgPackSerializer) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal implements the Serializer interface.
func (s MsgPackSerializer) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
