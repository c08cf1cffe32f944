package report

import (
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/scriptureforge/draft-audit/internal/reconstruct"
)

// RSV ("Rows of String Values") delimiter bytes. The three values are
// invalid UTF-8 continuation bytes, so they never collide with encoded
// value text.
const (
	rsvValueTerminator = 0xFF
	rsvNullValue       = 0xFE
	rsvRowTerminator   = 0xFD
)

// WriteRSV serializes the rows and summary trailer in RSV framing:
// each value's UTF-8 bytes followed by 0xFF, nil values as 0xFE
// followed by 0xFF, each row closed by 0xFD. Values containing
// surrogate code points or invalid UTF-8 are rejected.
func WriteRSV(w io.Writer, rows []Row, stats reconstruct.DurationStats) error {
	if err := writeRSVRow(w, headerValues()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRSVRow(w, row.Values()); err != nil {
			return err
		}
	}
	for _, trailer := range SummaryRows(stats) {
		if err := writeRSVRow(w, trailer); err != nil {
			return err
		}
	}
	return nil
}

func writeRSVRow(w io.Writer, values []*string) error {
	var buf []byte
	for _, v := range values {
		if v == nil {
			buf = append(buf, rsvNullValue, rsvValueTerminator)
			continue
		}
		if err := checkEncodable(*v); err != nil {
			return err
		}
		buf = append(buf, *v...)
		buf = append(buf, rsvValueTerminator)
	}
	buf = append(buf, rsvRowTerminator)
	_, err := w.Write(buf)
	return err
}

// checkEncodable rejects strings that are not valid UTF-8 or that
// contain surrogate code points, neither of which RSV permits.
func checkEncodable(s string) error {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
				return fmt.Errorf("rsv: value %q is not valid UTF-8", s)
			}
		}
		if utf16.IsSurrogate(r) {
			return fmt.Errorf("rsv: value %q contains a surrogate code point", s)
		}
	}
	return nil
}
