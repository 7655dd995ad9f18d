package ddcore

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// EncodeTxt encodes key/value pairs into the DNS-SD TXT record wire format.
//
// Each pair becomes a length-prefixed "key=value" string; a pair with an
// empty value becomes a bare "key" string. Keys are encoded in sorted order.
//
// References:
//   - https://www.ietf.org/rfc/rfc6763.txt, section 6
func EncodeTxt(txt map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(txt))
	for key := range txt {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer

	for _, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("txt: empty key")
		}
		if strings.Contains(key, "=") {
			return nil, fmt.Errorf("txt: invalid key: %q", key)
		}

		entry := key
		if value := txt[key]; value != "" {
			entry = key + "=" + value
		}

		if len(entry) > maxTxtEntryLen {
			return nil, fmt.Errorf("txt: entry too long: key=%s len=%d", key, len(entry))
		}

		buf.WriteByte(byte(len(entry)))
		buf.WriteString(entry)
	}

	return buf.Bytes(), nil
}

// DecodeTxt decodes the DNS-SD TXT record wire format into key/value pairs.
//
// A zero-length record decodes to an empty mapping. Empty strings, malformed
// trailing bytes and entries without a key are ignored (RFC 6763, section 6.1).
func DecodeTxt(data []byte) map[string]string {
	txt := make(map[string]string)

	for i := 0; i < len(data); {
		n := int(data[i])
		i++

		if n == 0 {
			continue
		}
		if i+n > len(data) {
			break
		}

		entry := string(data[i : i+n])
		i += n

		key, value, _ := strings.Cut(entry, "=")
		if key == "" {
			continue
		}

		txt[key] = value
	}

	return txt
}

const maxTxtEntryLen = 255
