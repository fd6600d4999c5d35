package syntax

import (
	"strconv"
	"strings"
)

// NumberValue is a decoded Lua numeric literal: exactly one of Int/Float is
// meaningful, selected by IsFloat.
type NumberValue struct {
	Int     int64
	Float   float64
	IsFloat bool
	Valid   bool
}

// DecodeNumber parses the exact source spelling of a NumberExpr token,
// handling decimal and hex forms, hex float literals (0x1.8p3), and
// LuaJIT's optional integer-suffix cdata markers (discarded here; the
// numeric value is unaffected).
func DecodeNumber(spelling string) NumberValue {
	s := strings.TrimRight(spelling, "lL")
	if len(s) < len(spelling) {
		s = strings.TrimRight(s, "uU")
	}
	s = strings.TrimPrefix(s, "")

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		return decodeHexNumber(s)
	}

	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return NumberValue{}
		}
		return NumberValue{Float: f, IsFloat: true, Valid: true}
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return NumberValue{}
		}
		return NumberValue{Float: f, IsFloat: true, Valid: true}
	}
	return NumberValue{Int: i, Valid: true}
}

func decodeHexNumber(s string) NumberValue {
	body := s[2:]
	if !strings.ContainsAny(body, ".pP") {
		i, err := strconv.ParseUint(body, 16, 64)
		if err != nil {
			return NumberValue{}
		}
		return NumberValue{Int: int64(i), Valid: true}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NumberValue{}
	}
	return NumberValue{Float: f, IsFloat: true, Valid: true}
}

// DecodeString unescapes the exact source spelling of a short-quoted string
// literal (including its surrounding quotes) or returns the inner text of a
// long-bracket string unchanged (long strings have no escape processing).
func DecodeString(spelling string) (string, bool) {
	if len(spelling) == 0 {
		return "", false
	}
	if spelling[0] == '[' {
		return decodeLongString(spelling)
	}
	if len(spelling) < 2 {
		return "", false
	}
	quote := spelling[0]
	if spelling[len(spelling)-1] != quote {
		return "", false
	}
	body := spelling[1 : len(spelling)-1]

	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return out.String(), false
		}
		switch e := body[i]; e {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'a':
			out.WriteByte('\a')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'v':
			out.WriteByte('\v')
		case '\\', '"', '\'':
			out.WriteByte(e)
		case '\n':
			out.WriteByte('\n')
		case 'x':
			if i+2 < len(body) {
				if v, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
					out.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			return out.String(), false
		case 'z':
			i++
			for i < len(body) && isSpaceByte(body[i]) {
				i++
			}
			i--
		default:
			if e >= '0' && e <= '9' {
				j := i
				for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '9' {
					j++
				}
				if v, err := strconv.Atoi(body[i:j]); err == nil && v <= 255 {
					out.WriteByte(byte(v))
					i = j - 1
					continue
				}
			}
			return out.String(), false
		}
	}
	return out.String(), true
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func decodeLongString(spelling string) (string, bool) {
	i := 1
	level := 0
	for i < len(spelling) && spelling[i] == '=' {
		level++
		i++
	}
	if i >= len(spelling) || spelling[i] != '[' {
		return "", false
	}
	i++
	if i < len(spelling) && spelling[i] == '\n' {
		i++ // a leading newline immediately after the opener is stripped
	}
	closer := "]" + strings.Repeat("=", level) + "]"
	end := strings.LastIndex(spelling, closer)
	if end < i {
		return "", false
	}
	return spelling[i:end], true
}
