package render

import (
	"encoding/binary"
	"io"
	"math"
)

// MixPCM normalizes the samples to just below full scale and interleaves
// them as 16-bit little-endian stereo.
func MixPCM(left, right []float32) []byte {
	var peak float32
	for i := range left {
		peak = max(peak, float32(math.Abs(float64(left[i]))), float32(math.Abs(float64(right[i]))))
	}
	g := float32(1)
	if peak > 0 {
		g = 0.99 / peak
	}

	pcm := make([]byte, len(left)*4)
	for i := range left {
		l := int16(left[i] * g * 32767)
		r := int16(right[i] * g * 32767)
		binary.LittleEndian.PutUint16(pcm[4*i:], uint16(l))
		binary.LittleEndian.PutUint16(pcm[4*i+2:], uint16(r))
	}
	return pcm
}

// WriteWAV writes 16-bit stereo PCM with a canonical 44-byte header.
func WriteWAV(w io.Writer, sampleRate int, pcm []byte) (int64, error) {
	dataLen := uint32(len(pcm))
	var header [44]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36+dataLen)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], 2)
	binary.LittleEndian.PutUint32(header[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(sampleRate*4))
	binary.LittleEndian.PutUint16(header[32:], 4)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataLen)

	n, err := w.Write(header[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(pcm)
	return int64(n + m), err
}
