// Package codec implements the map file's token-per-line text encoding.
//
// Every value occupies one line. Arrays and objects are framed by "[" / "]"
// and "{" / "}" lines, so a reader can ask whether another item follows at
// the current depth without the writer emitting a count. Strings are written
// Go-quoted so that no string can be mistaken for a framing token.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	tokStartArray  = "["
	tokEndArray    = "]"
	tokStartObject = "{"
	tokEndObject   = "}"
)

// ErrFormat is the error kind of every decoding failure. Callers loading a
// map only need errors.Is(err, ErrFormat) to tell a bad file from an I/O
// failure on the underlying reader.
var ErrFormat = errors.New("malformed map data")

var (
	ErrUnexpectedToken = fmt.Errorf("%w: unexpected token", ErrFormat)
	ErrUnexpectedEOF   = fmt.Errorf("%w: premature end of data", ErrFormat)
	ErrUnbalanced      = errors.New("codec: unbalanced array or object framing")
)

// SyntaxError records where in the stream decoding failed.
type SyntaxError struct {
	Line  int
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Token)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// MaxLineSize bounds a single token line accepted by a Reader.
const MaxLineSize = 16 << 20

// frame is the kind of an open array or object, named by its start token.
type frame string

// frames is the stack of arrays and objects currently open.
type frames []frame

func (f *frames) push(k frame) { *f = append(*f, k) }

// pop closes the innermost frame if it is of kind k.
func (f *frames) pop(k frame) bool {
	n := len(*f)
	if n == 0 || (*f)[n-1] != k {
		return false
	}
	*f = (*f)[:n-1]
	return true
}

func (f frames) top() frame {
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// Writer emits tokens one per line. The first error, including a close that
// does not match the innermost open array or object, sticks: every later
// write returns it.
type Writer struct {
	w      *bufio.Writer
	frames frames
	err    error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) token(s string) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.w.WriteString(s); err != nil {
		w.err = err
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) StartArray() error {
	w.frames.push(tokStartArray)
	return w.token(tokStartArray)
}

func (w *Writer) EndArray() error {
	return w.end(tokStartArray, tokEndArray)
}

func (w *Writer) StartObject() error {
	w.frames.push(tokStartObject)
	return w.token(tokStartObject)
}

func (w *Writer) EndObject() error {
	return w.end(tokStartObject, tokEndObject)
}

func (w *Writer) end(open frame, tok string) error {
	if w.err != nil {
		return w.err
	}
	if !w.frames.pop(open) {
		w.err = ErrUnbalanced
		return w.err
	}
	return w.token(tok)
}

func (w *Writer) WriteInt(v int) error { return w.token(strconv.Itoa(v)) }

func (w *Writer) WriteUint32(v uint32) error {
	return w.token(strconv.FormatUint(uint64(v), 10))
}

// WriteFloat writes v with the shortest exact representation. Infinities are
// written as "+Inf" and "-Inf".
func (w *Writer) WriteFloat(v float64) error {
	return w.token(strconv.FormatFloat(v, 'g', -1, 64))
}

func (w *Writer) WriteBool(v bool) error { return w.token(strconv.FormatBool(v)) }

func (w *Writer) WriteString(s string) error { return w.token(strconv.Quote(s)) }

// Depth is the number of arrays and objects currently open.
func (w *Writer) Depth() int { return len(w.frames) }

// Flush writes buffered data and reports the first error seen, including
// unbalanced framing.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.frames) != 0 {
		return ErrUnbalanced
	}
	return w.w.Flush()
}

// Reader consumes tokens written by Writer.
type Reader struct {
	sc     *bufio.Scanner
	line   int
	peeked *string
	frames frames
}

// NewReader returns a Reader that accepts lines up to MaxLineSize bytes.
func NewReader(r io.Reader) *Reader {
	return newReader(r, MaxLineSize)
}

func newReader(r io.Reader, maxLine int) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)
	return &Reader{sc: sc}
}

func (r *Reader) fail(tok string, err error) error {
	return &SyntaxError{Line: r.line, Token: tok, Err: err}
}

func (r *Reader) peek() (string, error) {
	if r.peeked != nil {
		return *r.peeked, nil
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); errors.Is(err, bufio.ErrTooLong) {
			return "", &SyntaxError{Line: r.line + 1, Err: fmt.Errorf("%w: %w", ErrFormat, err)}
		} else if err != nil {
			return "", err
		}
		return "", r.fail("", ErrUnexpectedEOF)
	}
	r.line++
	tok := strings.TrimRight(r.sc.Text(), "\r")
	r.peeked = &tok
	return tok, nil
}

func (r *Reader) next() (string, error) {
	tok, err := r.peek()
	if err != nil {
		return "", err
	}
	r.peeked = nil
	return tok, nil
}

func (r *Reader) expect(want string) error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	if tok != want {
		return r.fail(tok, fmt.Errorf("%w: want %q", ErrUnexpectedToken, want))
	}
	return nil
}

func (r *Reader) ExpectArrayStart() error {
	return r.start(tokStartArray)
}

func (r *Reader) ExpectArrayEnd() error {
	return r.end(tokStartArray, tokEndArray)
}

func (r *Reader) ExpectObjectStart() error {
	return r.start(tokStartObject)
}

func (r *Reader) ExpectObjectEnd() error {
	return r.end(tokStartObject, tokEndObject)
}

func (r *Reader) start(tok string) error {
	if err := r.expect(tok); err != nil {
		return err
	}
	r.frames.push(frame(tok))
	return nil
}

func (r *Reader) end(open frame, tok string) error {
	if r.frames.top() != open {
		return r.fail("", fmt.Errorf("%w: %q does not close the innermost frame", ErrUnexpectedToken, tok))
	}
	if err := r.expect(tok); err != nil {
		return err
	}
	r.frames.pop(open)
	return nil
}

// HasMoreArrayItems reports whether another item follows in the innermost
// open frame, which must be an array. It does not consume anything.
func (r *Reader) HasMoreArrayItems() (bool, error) {
	if r.frames.top() != tokStartArray {
		return false, r.fail("", fmt.Errorf("%w: not inside an array", ErrUnexpectedToken))
	}
	tok, err := r.peek()
	if err != nil {
		return false, err
	}
	return tok != tokEndArray, nil
}

// Depth is the number of arrays and objects currently open.
func (r *Reader) Depth() int { return len(r.frames) }

func (r *Reader) ReadInt() (int, error) {
	tok, err := r.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, r.fail(tok, fmt.Errorf("%w: want integer", ErrUnexpectedToken))
	}
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	tok, err := r.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, r.fail(tok, fmt.Errorf("%w: want unsigned integer", ErrUnexpectedToken))
	}
	return uint32(v), nil
}

func (r *Reader) ReadFloat() (float64, error) {
	tok, err := r.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, r.fail(tok, fmt.Errorf("%w: want number", ErrUnexpectedToken))
	}
	return v, nil
}

func (r *Reader) ReadBool() (bool, error) {
	tok, err := r.next()
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(tok)
	if err != nil {
		return false, r.fail(tok, fmt.Errorf("%w: want boolean", ErrUnexpectedToken))
	}
	return v, nil
}

func (r *Reader) ReadString() (string, error) {
	tok, err := r.next()
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(tok)
	if err != nil {
		return "", r.fail(tok, fmt.Errorf("%w: want quoted string", ErrUnexpectedToken))
	}
	return s, nil
}

// Fail builds a SyntaxError at the reader's current line. Higher level
// decoders use it to report semantic errors, such as an unknown shape tag,
// with the same position information as token errors.
func (r *Reader) Fail(tok string, err error) error {
	return r.fail(tok, err)
}
