package nalu

import (
	"bufio"
	"bytes"
	"io"
)

var startCode3 = []byte{0x00, 0x00, 0x01}

// Split cuts an Annex-B byte stream into individual NAL units, each keeping
// its start code. Bytes before the first start code are dropped.
func Split(stream []byte) [][]byte {
	var units [][]byte
	i := widenStart(stream, indexStartCode(stream, 0))
	for i >= 0 {
		next := indexStartCode(stream, i+4)
		if next < 0 {
			units = append(units, stream[i:])
			break
		}
		end := widenStart(stream, next)
		units = append(units, stream[i:end])
		i = end
	}
	return units
}

// widenStart moves a 3-byte start code index one byte back when it is really
// the tail of a 4-byte start code.
func widenStart(stream []byte, i int) int {
	if i > 0 && stream[i-1] == 0x00 && bytes.HasPrefix(stream[i:], startCode3) {
		return i - 1
	}
	return i
}

func indexStartCode(stream []byte, from int) int {
	if from > len(stream) {
		return -1
	}
	idx := bytes.Index(stream[from:], startCode3)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// ScanNALUs is a bufio.SplitFunc that tokenizes an Annex-B stream into NAL
// units for large-file ingestion.
func ScanNALUs(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := indexStartCode(data, 0)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep the last three bytes; they may be a start-code prefix.
		if len(data) > 3 {
			return len(data) - 3, nil, nil
		}
		return 0, nil, nil
	}
	start = widenStart(data, start)
	next := indexStartCode(data, start+4)
	if next < 0 {
		if atEOF {
			return len(data), data[start:], nil
		}
		return start, nil, nil
	}
	end := widenStart(data, next)
	return end, data[start:end], nil
}

// NewScanner returns a scanner that yields one NAL unit (with start code)
// per Scan call.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(ScanNALUs)
	return sc
}
