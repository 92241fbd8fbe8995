package chunk

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	"github.com/ozontech/seq-view/util"
	"github.com/ozontech/seq-view/zstd"
)

const (
	offsetCodec    = 0  // 1 byte  (C) Codec
	offsetLen      = 1  // 8 bytes (L) payload length
	offsetRawLen   = 9  // 8 bytes (U) length after decompression
	offsetFirstDoc = 17 // 8 bytes (F) position of the first doc
	offsetDocs     = 25 // 8 bytes (N) number of docs

	HeaderLen = 33
)

// Block is a compressed batch of size-prefixed docs with a fixed header.
//
// Format: C : LLLL-LLLL : UUUU-UUUU : FFFF-FFFF : NNNN-NNNN
type Block []byte

func (b Block) Codec() Codec {
	return Codec(b[offsetCodec])
}

func (b Block) SetCodec(codec Codec) {
	b[offsetCodec] = byte(codec)
}

func (b Block) Len() uint64 {
	return binary.LittleEndian.Uint64(b[offsetLen:])
}

func (b Block) SetLen(val uint64) {
	binary.LittleEndian.PutUint64(b[offsetLen:], val)
}

func (b Block) FullLen() uint64 {
	return b.Len() + HeaderLen
}

func (b Block) CalcLen() {
	b.SetLen(uint64(len(b) - HeaderLen))
}

func (b Block) RawLen() uint64 {
	return binary.LittleEndian.Uint64(b[offsetRawLen:])
}

func (b Block) SetRawLen(x uint64) {
	binary.LittleEndian.PutUint64(b[offsetRawLen:], x)
}

func (b Block) FirstDoc() uint64 {
	return binary.LittleEndian.Uint64(b[offsetFirstDoc:])
}

func (b Block) SetFirstDoc(x uint64) {
	binary.LittleEndian.PutUint64(b[offsetFirstDoc:], x)
}

func (b Block) Docs() uint64 {
	return binary.LittleEndian.Uint64(b[offsetDocs:])
}

func (b Block) SetDocs(x uint64) {
	binary.LittleEndian.PutUint64(b[offsetDocs:], x)
}

func (b Block) Payload() []byte {
	return b[HeaderLen:]
}

// Decompress for the second return value can
// * return part of Block
// * reuse 'out' parameter
// * allocate new buffer
// should be used with caution
func Decompress(b Block, out []byte) ([]byte, []byte, error) {
	if b.Codec() == CodecNone {
		return out, b.Payload(), nil
	}

	out, err := b.Codec().decompress(int(b.RawLen()), b.Payload(), out)

	return out, out, err
}

// Compress packs src into dst with the given codec. LZ4 falls back to an
// uncompressed block when the payload does not shrink.
func Compress(codec Codec, src []byte, dst Block, zstdLevel int) Block {
	switch codec {
	case CodecLZ4:
		return compressLZ4(src, dst)
	case CodecZSTD:
		dst = append(dst[:0], make([]byte, HeaderLen)...) // fill header with zeros for cleanup
		dst = zstd.CompressLevel(src, dst, zstdLevel)
		dst.CalcLen()
		dst.SetRawLen(uint64(len(src)))
		dst.SetCodec(CodecZSTD)
		return dst
	default:
		return Pack(src, dst)
	}
}

func compressLZ4(src []byte, dst Block) Block {
	dst = append(dst[:0], make([]byte, HeaderLen)...) // fill header with zeros for cleanup
	dst = Block(util.EnsureSliceSize([]byte(dst), HeaderLen+lz4.CompressBlockBound(len(src))))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst.Payload())
	if err != nil || n == 0 || n >= len(src) {
		return Pack(src, dst)
	}

	dst = dst[:HeaderLen+n]
	dst.CalcLen()
	dst.SetRawLen(uint64(len(src)))
	dst.SetCodec(CodecLZ4)

	return dst
}

func Pack(payload []byte, dst Block) Block {
	dst = append(dst[:0], make([]byte, HeaderLen)...) // fill header with zeros for cleanup
	dst = append(dst, payload...)

	dst.CalcLen()
	dst.SetRawLen(uint64(len(payload)))
	dst.SetCodec(CodecNone)

	return dst
}
