package gxt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Charset is a value encoding. Charsets are immutable and safe for
// concurrent use.
type Charset struct {
	name string
	unit int // code unit width, which is also the terminator width
	enc  encoding.Encoding
}

// Name returns the canonical charset name.
func (c *Charset) Name() string { return c.name }

// Unit returns the code unit width in bytes.
func (c *Charset) Unit() int { return c.unit }

func (c *Charset) String() string { return c.name }

// Known charsets.
var (
	UTF16LE     = &Charset{name: "utf-16le", unit: 2, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	UTF8        = &Charset{name: "utf-8", unit: 1, enc: unicode.UTF8}
	GBK         = &Charset{name: "gbk", unit: 1, enc: simplifiedchinese.GBK}
	GB18030     = &Charset{name: "gb18030", unit: 1, enc: simplifiedchinese.GB18030}
	Big5        = &Charset{name: "big5", unit: 1, enc: traditionalchinese.Big5}
	ShiftJIS    = &Charset{name: "shift_jis", unit: 1, enc: japanese.ShiftJIS}
	EUCKR       = &Charset{name: "euc-kr", unit: 1, enc: korean.EUCKR}
	Windows1250 = &Charset{name: "windows-1250", unit: 1, enc: charmap.Windows1250}
	Windows1251 = &Charset{name: "windows-1251", unit: 1, enc: charmap.Windows1251}
	Windows1252 = &Charset{name: "windows-1252", unit: 1, enc: charmap.Windows1252}
	Latin1      = &Charset{name: "iso-8859-1", unit: 1, enc: charmap.ISO8859_1}
)

var charsets = map[string]*Charset{}

func init() {
	for _, c := range []*Charset{UTF16LE, UTF8, GBK, GB18030, Big5, ShiftJIS, EUCKR, Windows1250, Windows1251, Windows1252, Latin1} {
		charsets[c.name] = c
	}
	charsets["utf-16"] = UTF16LE
	charsets["utf16"] = UTF16LE
	charsets["utf8"] = UTF8
	charsets["cp936"] = GBK
	charsets["cp950"] = Big5
	charsets["sjis"] = ShiftJIS
	charsets["cp949"] = EUCKR
	charsets["cp1250"] = Windows1250
	charsets["cp1251"] = Windows1251
	charsets["cp1252"] = Windows1252
	charsets["latin1"] = Latin1
}

// LookupCharset finds a charset by name or common alias.
func LookupCharset(name string) (*Charset, error) {
	if c, ok := charsets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("gxt: unknown charset %q", name)
}

// CharsetNames lists the canonical names of all known charsets.
func CharsetNames() []string {
	names := make([]string, 0, len(charsets))
	for alias, c := range charsets {
		if alias == c.name {
			names = append(names, alias)
		}
	}
	sort.Strings(names)
	return names
}

// decode strictly decodes p. It reports false for invalid input.
func (c *Charset) decode(p []byte) (string, bool) {
	switch c {
	case UTF16LE:
		return decodeUTF16(p)
	case UTF8:
		if !utf8.Valid(p) {
			return "", false
		}
		return string(p), true
	}

	out, err := c.enc.NewDecoder().Bytes(p)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// decodeLossy decodes p, replacing invalid sequences.
func (c *Charset) decodeLossy(p []byte) string {
	if c == UTF8 {
		return strings.ToValidUTF8(string(p), "\uFFFD")
	}
	out, err := c.enc.NewDecoder().Bytes(p)
	if err != nil {
		return strings.ToValidUTF8(string(p), "\uFFFD")
	}
	return string(out)
}

// appendEncoded appends the encoded form of s, without terminator.
func (c *Charset) appendEncoded(dst []byte, s string) ([]byte, error) {
	switch c {
	case UTF16LE:
		return appendUTF16(dst, s), nil
	case UTF8:
		return append(dst, s...), nil
	}

	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return dst, fmt.Errorf("gxt: %s cannot encode %q: %w", c.name, s, err)
	}
	return append(dst, out...), nil
}

// encodedLen returns the encoded size of s, without terminator.
func (c *Charset) encodedLen(s string) (int, error) {
	switch c {
	case UTF16LE:
		n := 0
		for _, r := range s {
			n += 2
			if r >= 0x10000 {
				n += 2
			}
		}
		return n, nil
	case UTF8:
		return len(s), nil
	}

	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, fmt.Errorf("gxt: %s cannot encode %q: %w", c.name, s, err)
	}
	return len(out), nil
}

func decodeUTF16(p []byte) (string, bool) {
	if len(p)%2 != 0 {
		return "", false
	}

	units := make([]uint16, len(p)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(p[2*i:])
	}

	for i := 0; i < len(units); i++ {
		switch u := units[i]; {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] >= 0xE000 {
				return "", false
			}
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}

func appendUTF16(dst []byte, s string) []byte {
	for _, r := range s {
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			dst = append(dst, byte(r1), byte(r1>>8), byte(r2), byte(r2>>8))
			continue
		}
		dst = append(dst, byte(r), byte(r>>8))
	}
	return dst
}

// decodeValue decodes p with primary and then each fallback in turn. When
// all fail it returns the lossy primary decoding and false.
func decodeValue(p []byte, primary *Charset, fallback []*Charset) (string, *Charset, bool) {
	if s, ok := primary.decode(p); ok {
		return s, primary, true
	}
	for _, c := range fallback {
		if s, ok := c.decode(p); ok {
			return s, c, true
		}
	}
	return primary.decodeLossy(p), primary, false
}
