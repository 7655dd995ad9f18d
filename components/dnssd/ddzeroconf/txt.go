package ddzeroconf

import (
	"bytes"
	"fmt"
)

// encodeTxtStrings encodes zeroconf "key=value" strings into the TXT record
// wire format consumed by the resolve listener.
func encodeTxtStrings(records []string) ([]byte, error) {
	var buf bytes.Buffer

	for _, record := range records {
		if record == "" {
			continue
		}

		if len(record) > 255 {
			return nil, fmt.Errorf("txt: record too long: len=%d", len(record))
		}

		buf.WriteByte(byte(len(record)))
		buf.WriteString(record)
	}

	return buf.Bytes(), nil
}

// decodeTxtStrings decodes the TXT record wire format into the "key=value"
// strings zeroconf registers with. Empty strings and malformed trailing bytes
// are ignored.
func decodeTxtStrings(data []byte) []string {
	var records []string

	for i := 0; i < len(data); {
		n := int(data[i])
		i++

		if n == 0 {
			continue
		}
		if i+n > len(data) {
			break
		}

		records = append(records, string(data[i:i+n]))
		i += n
	}

	return records
}
