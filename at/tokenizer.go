package at

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

// MaxTokenSize bounds a single line or raw payload read from the modem.
const MaxTokenSize = 64 * 1024

// ErrBadPayloadLength is returned when a payload header announces a length
// that cannot be satisfied.
var ErrBadPayloadLength = errors.New("at: bad payload length")

// Token is one unit of modem output.
type Token struct {
	Type ResponseType
	// Line holds the text of a line token (without CRLF).
	Line string
	// Data holds the bytes of a TypeRaw token.
	Data []byte
}

// Tokenizer is used for tokenizing AT command modem responses. Its Split
// method has the signature of bufio.SplitFunc so it can be directly used
// with bufio.Scanner.
//
// It splits the input by CRLF line endings and also recognizes the input
// prompt ("> "). Lines that announce a binary payload (+CIPRXGET: 2,...,
// +HTTPREAD: n, +FTPGET: 2,n) switch the tokenizer into raw mode and the
// next token is exactly the announced number of bytes, CRLFs included.
//
// Important: This splitter assumes "No Echo" mode (ATE0). If echo is enabled,
// it would need modification to handle command echoes that precede the actual
// response.
type Tokenizer struct {
	raw     int
	lastRaw bool
}

var _ bufio.SplitFunc = (&Tokenizer{}).Split

// Split implements bufio.SplitFunc.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func (t *Tokenizer) Split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if t.raw > 0 {
		if len(data) >= t.raw {
			n := t.raw
			t.raw = 0
			t.lastRaw = true
			return n, data[:n], nil
		}
		if atEOF {
			return 0, nil, io.ErrUnexpectedEOF
		}
		return 0, nil, nil
	}

	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	t.lastRaw = false

	// 1. Match input prompt
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		line := data[0:i]
		n, err := payloadLength(string(line))
		if err != nil {
			return 0, nil, err
		}
		t.raw = n
		return i + len(CRLF), line, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// payloadLength reports how many raw bytes follow the given line.
func payloadLength(line string) (int, error) {
	var field string
	switch {
	case strings.HasPrefix(line, RespRxGet+" 2,"):
		// +CIPRXGET: 2,<id>,<len>,<remaining>
		parts := strings.Split(strings.TrimPrefix(line, RespRxGet+" 2,"), ",")
		if len(parts) < 2 {
			return 0, nil
		}
		field = parts[1]
	case strings.HasPrefix(line, RespHTTPRead):
		field = strings.TrimPrefix(line, RespHTTPRead)
	case strings.HasPrefix(line, RespFTPGet+" 2,"):
		field = strings.TrimPrefix(line, RespFTPGet+" 2,")
	default:
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, nil
	}
	if n < 0 || n > MaxTokenSize {
		return 0, ErrBadPayloadLength
	}
	return n, nil
}

// Reader yields classified tokens from a modem byte stream.
type Reader struct {
	scanner *bufio.Scanner
	tok     *Tokenizer
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	t := &Tokenizer{}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), MaxTokenSize+len(CRLF))
	s.Split(t.Split)
	return &Reader{scanner: s, tok: t}
}

// Next returns the next non-empty token. It returns io.EOF when the stream
// ends cleanly.
func (r *Reader) Next() (Token, error) {
	for r.scanner.Scan() {
		if r.tok.lastRaw {
			data := append([]byte(nil), r.scanner.Bytes()...)
			return Token{Type: TypeRaw, Data: data}, nil
		}
		line := r.scanner.Text()
		// Note: We don't TrimSpace on the Prompt because "> " has a trailing space
		if line != Prompt {
			line = strings.TrimSpace(line)
		}
		if line == "" {
			continue
		}
		return Token{Type: Classify(line), Line: line}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Token{}, err
	}
	return Token{}, io.EOF
}

// Classify identifies the nature of the modem output
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer, ShutOK:
		return TypeFinal
	case UrcCall, UrcPDPDeact, UrcUVWarning, UrcUVPowerDown:
		return TypeURC
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case strings.HasPrefix(line, UrcNewMsg), strings.HasPrefix(line, UrcCallStatus),
		strings.HasPrefix(line, UrcMessageReport), strings.HasPrefix(line, RespRxGet+" 1,"):
		return TypeURC
	}

	if _, status, ok := ConnLine(line); ok && status == Closed {
		return TypeURC
	}
	return TypeData
}

// ConnLine splits a multi-connection status line such as "0, CONNECT OK".
func ConnLine(line string) (slot int, status string, ok bool) {
	if len(line) < 4 || line[0] < '0' || line[0] > '9' || line[1] != ',' || line[2] != ' ' {
		return 0, "", false
	}
	status = line[3:]
	switch status {
	case ConnectOK, ConnectFail, AlreadyConnect, CloseOK, Closed, SendOK, SendFail:
		return int(line[0] - '0'), status, true
	}
	return 0, "", false
}
