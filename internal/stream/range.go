package stream

import (
	"errors"
	"strconv"
	"strings"
)

// defaultWindow is how far past the requested start an open-ended range
// extends. Players that probe with "bytes=N-" get a bounded chunk instead of
// the rest of the file, which keeps seeks cheap on a still-downloading file.
const defaultWindow = 2 << 20

// ErrUnsatisfiable marks a Range header that cannot be served from the file.
var ErrUnsatisfiable = errors.New("range not satisfiable")

// ByteRange is a closed byte interval within a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ParseRange interprets a Range request header against a file of the given
// size. A missing header returns (nil, nil): serve the whole file. An
// open-ended range gets the default window. Malformed bounds, a negative or
// out-of-file start, an end at or past the file size, or an inverted
// interval all return ErrUnsatisfiable.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrUnsatisfiable
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrUnsatisfiable
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, ErrUnsatisfiable
	}

	var end int64
	if strings.TrimSpace(endStr) == "" {
		end = start + defaultWindow
		if end > size-1 {
			end = size - 1
		}
	} else {
		end, err = strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
		if err != nil {
			return nil, ErrUnsatisfiable
		}
	}

	if end >= size || start > end {
		return nil, ErrUnsatisfiable
	}

	return &ByteRange{Start: start, End: end}, nil
}
