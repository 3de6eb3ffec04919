package loxone

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// llResponse is the envelope of every /jdev/ command answer, e.g.
//
//	{"LL": {"control": "jdev/sps/io/<uuid>/state", "value": "1", "Code": "200"}}
type llResponse struct {
	LL llData `mapstructure:"LL"`
}

type llData struct {
	Control string  `mapstructure:"control"`
	Value   *string `mapstructure:"value"`
	Code    string  `mapstructure:"Code"`
}

// decodeWeak decodes a generic JSON value into out. Numbers and booleans are
// accepted where strings are expected.
func decodeWeak(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// parseValue extracts LL.value from a command response body.
func parseValue(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var resp llResponse
	if err := decodeWeak(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingValue, err)
	}
	if resp.LL.Value == nil {
		return "", ErrMissingValue
	}
	return *resp.LL.Value, nil
}

// intValue converts a control value to an integer the lenient way: leading
// whitespace is skipped, an optional sign and the leading decimal digits are
// used and everything after them is ignored. "1.0" and "1abc" yield 1, a value
// with no leading digits yields 0.
func intValue(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	if neg {
		return -n
	}
	return n
}
