// Package packer implements packaging of various types into bytes
package packer

import (
	"encoding/binary"
)

type BytesUnpacker struct {
	buf []byte
}

func NewBytesUnpacker(data []byte) *BytesUnpacker {
	return &BytesUnpacker{buf: data}
}

func (u *BytesUnpacker) Len() int {
	return len(u.buf)
}

func (u *BytesUnpacker) GetUint32() uint32 {
	val := binary.LittleEndian.Uint32(u.buf)
	u.buf = u.buf[4:]
	return val
}

func (u *BytesUnpacker) GetUint64() uint64 {
	val := binary.LittleEndian.Uint64(u.buf)
	u.buf = u.buf[8:]
	return val
}

func (u *BytesUnpacker) GetBinary() []byte {
	l := u.GetUint32()
	val := u.buf[:l]
	u.buf = u.buf[l:]
	return val
}
