package chunk

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/ozontech/seq-view/util"
	"github.com/ozontech/seq-view/zstd"
)

const (
	CodecNone Codec = iota
	CodecLZ4
	CodecZSTD
)

type Codec byte

func (codec Codec) decompress(rawLen int, src, dst []byte) ([]byte, error) {
	var err error
	dst = util.EnsureSliceSize(dst, rawLen)
	switch codec {
	case CodecLZ4:
		_, err = lz4.UncompressBlock(src, dst)
	case CodecZSTD:
		dst = dst[:0]
		dst, err = zstd.Decompress(src, dst)
	default:
		return nil, fmt.Errorf("unimplemented codec %d", codec)
	}

	return dst, err
}

func (codec Codec) String() string {
	switch codec {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", byte(codec))
}

// ParseCodec maps a codec name from config to its byte value.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZSTD, nil
	}
	return CodecNone, fmt.Errorf("unknown codec %q", name)
}
