package apiconnect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName replaces connect's default protojson codec for the
// application/json content type.
const CodecName = "json"

type jsonCodec struct{}

// Codec returns the JSON codec used by both handlers and clients.
func Codec() connect.Codec { return jsonCodec{} }

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
