package domain

import (
	"fmt"
	"stream-lab/errors"
	"strconv"
	"strings"
)

const KB = 1024
const MB = KB * KB

// DefaultChunkSize is the number of bytes served by one ranged response.
const DefaultChunkSize int64 = 1_000_000

const rangeUnit = "bytes="

// ByteWindow is an inclusive byte span [Start, End] of a file of FileSize bytes.
type ByteWindow struct {
	Start    int64
	End      int64
	FileSize int64
}

// ParseRangeStart extracts the start offset of a Range header value.
// Only the leading number of the first range spec is read: "bytes=100-200"
// gives 100 and the end offset is ignored. A value without leading digits
// ("bytes=-500", "bytes=") starts at 0.
func ParseRangeStart(header string) (int64, error) {
	spec := strings.TrimSpace(header)
	if len(spec) >= len(rangeUnit) && strings.EqualFold(spec[:len(rangeUnit)], rangeUnit) {
		spec = strings.TrimSpace(spec[len(rangeUnit):])
	}
	digits := spec[:len(spec)-len(strings.TrimLeft(spec, "0123456789"))]
	if digits == "" {
		return 0, nil
	}
	start, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrRangeNotSatisfiable, header)
	}
	return start, nil
}

// ComputeWindow applies the fixed-size chunking policy:
// end = min(start+chunkSize-1, fileSize-1), computed on the remaining size so it cannot overflow.
func ComputeWindow(start, fileSize, chunkSize int64) (ByteWindow, error) {
	if chunkSize <= 0 {
		return ByteWindow{}, fmt.Errorf("%w: chunk size %d", errors.ErrRangeNotSatisfiable, chunkSize)
	}
	if start < 0 || fileSize <= 0 || start >= fileSize {
		return ByteWindow{}, fmt.Errorf("%w: start %d for size %d", errors.ErrRangeNotSatisfiable, start, fileSize)
	}
	return ByteWindow{
		Start:    start,
		End:      start + min(chunkSize, fileSize-start) - 1,
		FileSize: fileSize,
	}, nil
}

// Length is the number of bytes in the window.
func (w ByteWindow) Length() int64 {
	return w.End - w.Start + 1
}

func (w ByteWindow) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.FileSize)
}

// UnsatisfiedRange is the Content-Range value sent along a 416.
func UnsatisfiedRange(fileSize int64) string {
	return fmt.Sprintf("bytes */%d", fileSize)
}
