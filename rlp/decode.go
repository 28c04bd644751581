package rlp

import (
	"bytes"
	"io"
	"math/big"
	"reflect"
)

// Kind identifies the shape of the next RLP item in a stream.
type Kind int

const (
	Byte Kind = iota
	String
	List
)

// Decode reads a single RLP-encoded value from r into val, which must be a
// non-nil pointer.
func Decode(r io.Reader, val interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(data, val)
}

// DecodeBytes decodes b into val, which must be a non-nil pointer. It is an
// error for b to contain trailing bytes after the decoded value.
func DecodeBytes(b []byte, val interface{}) error {
	s := NewStreamFromBytes(b)
	if err := s.decodeValue(reflect.ValueOf(val)); err != nil {
		return err
	}
	if s.pos != len(s.data) {
		return ErrEOL
	}
	return nil
}

// Stream is a cursor over an RLP byte string, tracking a stack of open list
// scopes so callers can read heterogeneous lists field by field.
type Stream struct {
	data  []byte
	pos   int
	stack []listFrame
}

type listFrame struct{ end int }

// NewStream wraps r for streaming decode. The entire reader is buffered
// eagerly; RLP items never need more context than their own length prefix.
func NewStream(r io.Reader) *Stream {
	data, _ := io.ReadAll(r)
	return NewStreamFromBytes(data)
}

// NewStreamFromBytes wraps an in-memory buffer.
func NewStreamFromBytes(data []byte) *Stream {
	return &Stream{data: data}
}

// Kind reports the type and content length of the next item without
// consuming it.
func (s *Stream) Kind() (Kind, uint64, error) {
	if s.pos >= s.limit() {
		return 0, 0, io.EOF
	}
	prefix := s.data[s.pos]
	switch {
	case prefix <= 0x7f:
		return Byte, 1, nil
	case prefix <= 0xb7:
		return String, uint64(prefix - 0x80), nil
	case prefix <= 0xbf:
		size, err := s.longSize(prefix - 0xb7)
		return String, size, err
	case prefix <= 0xf7:
		return List, uint64(prefix - 0xc0), nil
	default:
		size, err := s.longSize(prefix - 0xf7)
		return List, size, err
	}
}

func (s *Stream) longSize(lenOfLen byte) (uint64, error) {
	n := int(lenOfLen)
	if s.pos+1+n > s.limit() {
		return 0, io.ErrUnexpectedEOF
	}
	return readBigEndian(s.data[s.pos+1 : s.pos+1+n]), nil
}

// readItem consumes and returns one complete item: its kind, payload bytes,
// and total bytes consumed including the header.
func (s *Stream) readItem() (kind Kind, payload []byte, total int, err error) {
	lim := s.limit()
	if s.pos >= lim {
		return 0, nil, 0, io.EOF
	}
	prefix := s.data[s.pos]

	switch {
	case prefix <= 0x7f:
		payload = s.data[s.pos : s.pos+1]
		s.pos++
		return Byte, payload, 1, nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		start, end := s.pos+1, s.pos+1+size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		if size == 1 && s.data[start] <= 0x7f {
			return 0, nil, 0, ErrCanonSize
		}
		s.pos = end
		return String, s.data[start:end], 1 + size, nil

	case prefix <= 0xbf:
		lenOfLen := int(prefix - 0xb7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, nil, 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, 0, ErrNonCanonicalSize
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		s.pos = end
		return String, s.data[start:end], 1 + lenOfLen + size, nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		start, end := s.pos+1, s.pos+1+size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		s.pos = end
		return List, s.data[start:end], 1 + size, nil

	default:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, nil, 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, nil, 0, ErrNonCanonicalSize
		}
		start := s.pos + 1 + lenOfLen
		end := start + size
		if end > lim {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		s.pos = end
		return List, s.data[start:end], 1 + lenOfLen + size, nil
	}
}

// Bytes reads a string item.
func (s *Stream) Bytes() ([]byte, error) {
	kind, payload, _, err := s.readItem()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	return payload, nil
}

// Raw reads the next item, of any kind, and returns its full encoding
// (header and payload) without interpreting it.
func (s *Stream) Raw() (RawValue, error) {
	start := s.pos
	_, _, total, err := s.readItem()
	if err != nil {
		return nil, err
	}
	return RawValue(s.data[start : start+total]), nil
}

// List enters the list starting at the stream's current position, returning
// its content length. Subsequent reads are scoped to the list until ListEnd.
func (s *Stream) List() (uint64, error) {
	if s.pos >= s.limit() {
		return 0, io.EOF
	}
	prefix := s.data[s.pos]
	var start, end int
	switch {
	case prefix >= 0xc0 && prefix <= 0xf7:
		size := int(prefix - 0xc0)
		start, end = s.pos+1, s.pos+1+size
	case prefix > 0xf7:
		lenOfLen := int(prefix - 0xf7)
		if s.pos+1+lenOfLen > s.limit() {
			return 0, io.ErrUnexpectedEOF
		}
		sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
		if sizeBytes[0] == 0 {
			return 0, ErrCanonInt
		}
		size := int(readBigEndian(sizeBytes))
		if size <= 55 {
			return 0, ErrNonCanonicalSize
		}
		start = s.pos + 1 + lenOfLen
		end = start + size
	default:
		return 0, ErrExpectedList
	}
	if end > s.limit() {
		return 0, io.ErrUnexpectedEOF
	}
	s.stack = append(s.stack, listFrame{end: end})
	s.pos = start
	return uint64(end - start), nil
}

// ListEnd closes the innermost list scope, failing if unread bytes remain.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return ErrExpectedList
	}
	top := s.stack[len(s.stack)-1]
	if s.pos != top.end {
		return ErrEOL
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// MoreDataInList reports whether the current list scope has unread bytes.
func (s *Stream) MoreDataInList() bool {
	if len(s.stack) == 0 {
		return s.pos < len(s.data)
	}
	return s.pos < s.stack[len(s.stack)-1].end
}

func (s *Stream) limit() int {
	if len(s.stack) > 0 {
		return s.stack[len(s.stack)-1].end
	}
	return len(s.data)
}

// Uint64 reads an RLP integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > 8 {
		return 0, ErrUint64Range
	}
	if len(b) > 1 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	return readBigEndian(b), nil
}

// BigInt reads an RLP integer of arbitrary size.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

func readBigEndian(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = (v << 8) | uint64(x)
	}
	return v
}

func (s *Stream) decodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrExpectedString
	}
	return s.decodeInto(v.Elem())
}

func (s *Stream) decodeInto(v reflect.Value) error {
	if v.Type() == rawValueType {
		raw, err := s.Raw()
		if err != nil {
			return err
		}
		v.SetBytes(raw)
		return nil
	}
	if v.Type() == reflect.TypeOf(big.Int{}) {
		bi, err := s.BigInt()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(*bi))
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.Type() == reflect.TypeOf((*big.Int)(nil)) {
			bi, err := s.BigInt()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return s.decodeInto(v.Elem())
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		switch {
		case len(b) == 0:
			v.SetBool(false)
		case len(b) == 1 && b[0] == 0x01:
			v.SetBool(true)
		case len(b) == 1 && b[0] == 0x00:
			v.SetBool(false)
		default:
			return ErrCanonInt
		}
		return nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(u)
		return nil

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetInt(int64(u))
		return nil

	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(bytes.Clone(b))
			return nil
		}
		return s.decodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		return s.decodeList(v)

	case reflect.Struct:
		return s.decodeStruct(v)

	default:
		return ErrExpectedString
	}
}

func (s *Stream) decodeList(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	i := 0
	for s.MoreDataInList() {
		if i >= v.Len() {
			v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
		}
		if err := s.decodeInto(v.Index(i)); err != nil {
			return err
		}
		i++
	}
	if i < v.Len() {
		v.Set(v.Slice(0, i))
	}
	return s.ListEnd()
}

func (s *Stream) decodeStruct(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		if err := s.decodeInto(v.Field(i)); err != nil {
			return err
		}
	}
	return s.ListEnd()
}
