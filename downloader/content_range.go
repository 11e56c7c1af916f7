package downloader

import (
	"fmt"
	"stream-lab/errors"
	"strconv"
	"strings"
)

// parseContentRange reads the three forms a server may send:
//
//	bytes 42-1233/1234
//	bytes 42-1233/*
//	bytes */1234
//
// Unknown parts are returned as -1.
func parseContentRange(value string) (first, last, length int64, err error) {
	first, last, length = -1, -1, -1
	invalid := fmt.Errorf("%w: %q", errors.ErrContentRange, value)

	unit, spec, ok := strings.Cut(value, " ")
	if !ok || unit != "bytes" {
		return -1, -1, -1, invalid
	}
	span, total, ok := strings.Cut(spec, "/")
	if !ok {
		return -1, -1, -1, invalid
	}
	if total != "*" {
		if length, err = strconv.ParseInt(total, 10, 64); err != nil || length < 0 {
			return -1, -1, -1, invalid
		}
	}
	if span != "*" {
		from, to, ok := strings.Cut(span, "-")
		if !ok {
			return -1, -1, -1, invalid
		}
		if first, err = strconv.ParseInt(from, 10, 64); err != nil {
			return -1, -1, -1, invalid
		}
		if last, err = strconv.ParseInt(to, 10, 64); err != nil {
			return -1, -1, -1, invalid
		}
		if first < 0 || last < first || (length >= 0 && last >= length) {
			return -1, -1, -1, invalid
		}
	}
	if first == -1 && length == -1 {
		return -1, -1, -1, invalid
	}
	return first, last, length, nil
}
