package packer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	r := require.New(t)

	p := NewBytesPacker(nil)
	p.PutUint32(3)
	p.PutBytesWithSize([]byte("first"))
	p.PutBytesWithSize([]byte(""))
	p.PutBytesWithSize([]byte("third"))
	p.PutUint64(1 << 40)
	p.PutBytes([]byte("tail"))

	u := NewBytesUnpacker(p.Data)
	r.Equal(uint32(3), u.GetUint32())
	r.Equal([]byte("first"), u.GetBinary())
	r.Empty(u.GetBinary())
	r.Equal([]byte("third"), u.GetBinary())
	r.Equal(uint64(1<<40), u.GetUint64())
	r.Equal(4, u.Len())
}

func TestPackerAppendsToBlock(t *testing.T) {
	block := []byte{0xca, 0xfe}
	p := NewBytesPacker(block)
	p.PutUint32(7)

	require.Equal(t, []byte{0xca, 0xfe, 7, 0, 0, 0}, p.Data)
}
