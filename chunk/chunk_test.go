package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

func TestBlockRoundtrip(t *testing.T) {
	src := []byte(strings.Repeat("all work and no play makes jack a dull boy; ", 64))

	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			b := Compress(codec, src, nil, 1)
			b.SetFirstDoc(1024)
			b.SetDocs(64)

			require.Equal(t, codec, b.Codec())
			require.Equal(t, uint64(len(src)), b.RawLen())
			require.Equal(t, uint64(len(b)), b.FullLen())
			require.Equal(t, uint64(1024), b.FirstDoc())
			require.Equal(t, uint64(64), b.Docs())
			if codec != CodecNone {
				require.Less(t, len(b.Payload()), len(src))
			}

			_, data, err := Decompress(b, nil)
			require.NoError(t, err)
			require.Equal(t, src, data)
		})
	}
}

func TestBlockLZ4FallsBackWhenIncompressible(t *testing.T) {
	src := frand.Bytes(4 * 1024)

	b := Compress(CodecLZ4, src, nil, 0)

	require.Equal(t, CodecNone, b.Codec())
	require.Equal(t, uint64(len(src)), b.RawLen())

	_, data, err := Decompress(b, nil)
	require.NoError(t, err)
	require.Equal(t, src, data)
}

func TestBlockEmptyPayload(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			b := Compress(codec, nil, nil, 1)
			require.Equal(t, uint64(0), b.RawLen())

			_, data, err := Decompress(b, nil)
			require.NoError(t, err)
			require.Empty(t, data)
		})
	}
}

func TestBlockPackAliasesPayload(t *testing.T) {
	b := Pack([]byte("payload"), nil)

	out := []byte("scratch")
	got, data, err := Decompress(b, out)
	require.NoError(t, err)

	// CodecNone hands out a view into the block itself and leaves out alone.
	assert.Equal(t, []byte("scratch"), got)
	b.Payload()[0] = 'P'
	assert.Equal(t, []byte("Payload"), data)
}

func TestBlockDecompressReusesBuffer(t *testing.T) {
	src := []byte(strings.Repeat("0123456789", 100))
	b := Compress(CodecLZ4, src, nil, 0)
	require.Equal(t, CodecLZ4, b.Codec())

	scratch := make([]byte, 0, 4096)
	got, data, err := Decompress(b, scratch)
	require.NoError(t, err)
	require.Equal(t, src, data)
	require.Equal(t, 4096, cap(got))
}

func TestParseCodec(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZSTD} {
		parsed, err := ParseCodec(codec.String())
		require.NoError(t, err)
		require.Equal(t, codec, parsed)
	}

	_, err := ParseCodec("snappy")
	require.Error(t, err)
}
