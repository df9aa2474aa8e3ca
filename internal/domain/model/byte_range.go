package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRange is returned when a Range header is not a single bytes=<start>-[<end>] range.
	ErrMalformedRange = errors.New("malformed range header")

	// ErrRangeNotSatisfiable is returned when a well-formed range lies outside the object.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// UnsatisfiableRangeError carries the object size needed for the
// "Content-Range: bytes */<size>" response header.
type UnsatisfiableRangeError struct {
	Size int64
}

func (e *UnsatisfiableRangeError) Error() string {
	return fmt.Sprintf("%s: object size is %d", ErrRangeNotSatisfiable, e.Size)
}

func (e *UnsatisfiableRangeError) Is(target error) bool {
	return target == ErrRangeNotSatisfiable
}

// ByteRange is an inclusive [Start, End] span of an object.
type ByteRange struct {
	Start int64
	End   int64
}

var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// ParseByteRange parses a single-range header against an object of the given size.
// An omitted end resolves to size-1. Multi-range and suffix (bytes=-N) forms are
// malformed. A start equal to size is unsatisfiable, never clamped.
func ParseByteRange(header string, size int64) (ByteRange, error) {
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return ByteRange{}, ErrMalformedRange
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ByteRange{}, ErrMalformedRange
	}

	end := size - 1
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return ByteRange{}, ErrMalformedRange
		}
	}

	if start < 0 || start > end || end >= size {
		return ByteRange{}, &UnsatisfiableRangeError{Size: size}
	}

	return ByteRange{Start: start, End: end}, nil
}

// Length is the number of bytes in the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedContentRange renders the Content-Range header value for a 416 response.
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
