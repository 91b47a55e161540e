package storage

import (
	"bytes"
	"encoding/binary"
)

// wavDuration reads the playback length in seconds from a RIFF/WAVE
// header. Anything that is not a parseable WAV yields 0; the clip is still
// stored, the audio container stays opaque beyond this probe.
func wavDuration(data []byte) float64 {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0
	}

	var byteRate uint32
	var dataSize uint32

	// Walk the chunk list for "fmt " (byte rate) and "data" (payload size).
	offset := 12
	for offset+8 <= len(data) {
		chunkID := data[offset : offset+4]
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch {
		case bytes.Equal(chunkID, []byte("fmt ")):
			if body+12 <= len(data) {
				byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			}
		case bytes.Equal(chunkID, []byte("data")):
			dataSize = chunkSize
		}

		// Chunks are word-aligned.
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if byteRate == 0 || dataSize == 0 {
		return 0
	}
	return float64(dataSize) / float64(byteRate)
}
