package command

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v4"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	zstdEncoder, zstdDecoder = enc, dec
}

func compressMsgpackMarshal(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf).UseCompactEncoding(true).SortMapKeys(true)
	err := enc.Encode(val)
	if err != nil {
		return nil, fmt.Errorf("compressMsgpackMarshal %s", err.Error())
	}
	return zstdEncoder.EncodeAll(buf.Bytes(), nil), nil
}

func decompressMsgpackUnmarshal(data []byte, val interface{}) error {
	payload, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompressMsgpackUnmarshal %s", err.Error())
	}
	return msgpack.Unmarshal(payload, val)
}
