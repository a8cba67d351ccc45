// Copyright 2025 easymvp
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package teejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const defaultChunkSize = 1024

// Errors distinguishing which phase of a streamed read failed.
// ErrStreamStart and ErrStreamItem wrap running out of input before the
// array start and inside an array element; ErrStreamRest wraps a
// producer error while draining the input that follows the array.
var (
	ErrStreamStart = errors.New("end of stream searching for array start")
	ErrStreamItem  = errors.New("end of stream in middle of array item")
	ErrStreamRest  = errors.New("end of stream while collecting rest data after array")
)

// PrepareFunc advances the source past any prologue bytes so that the
// next character read is the '[' of the dataset array (possibly behind
// whitespace). It receives the source itself as the reader, so every
// character it consumes still lands in the replay buffer. Bytes read
// must be appended to skip, whose contents identify the sentinel.
type PrepareFunc func(r io.Reader, skip *bytes.Buffer) error

// Source tees a JSON producer: it serves the tokenizer one character per
// read while recording every byte pulled from the producer, so that the
// complete document can be decoded again after streaming finishes.
type Source struct {
	r         io.Reader
	chunkSize int
	lossless  bool
	prepare   PrepareFunc

	hold   []byte       // read in bulk, not yet delivered
	replay bytes.Buffer // every byte ever pulled from the producer
	buf    []byte
	eof    bool
}

// NewSource creates a lossless source over r with the default chunk size.
func NewSource(r io.Reader) *Source {
	return &Source{r: r, chunkSize: defaultChunkSize, lossless: true}
}

// SetChunkSize sets how many bytes are requested from the producer per
// pull. The size only affects batching, never the characters delivered.
// MUST be called before reading starts.
func (s *Source) SetChunkSize(n int) {
	s.chunkSize = n
}

// SetLossless controls whether the replay buffer is maintained. Without
// it Document returns nil and Finish is a no-op. MUST be called before
// reading starts.
func (s *Source) SetLossless(lossless bool) {
	s.lossless = lossless
}

// SetPrepare installs the prelude invoked once before the first element
// is streamed. MUST be called before iteration starts.
func (s *Source) SetPrepare(fn PrepareFunc) {
	s.prepare = fn
}

// Read implements io.Reader, delivering exactly one byte per call so the
// tokenizer sees the input a character at a time. A chunk is pulled from
// the producer only when the hold buffer is empty.
func (s *Source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.hold) > 0 {
		p[0] = s.hold[0]
		s.hold = s.hold[1:]
		return 1, nil
	}
	if s.eof {
		return 0, io.EOF
	}
	if s.buf == nil {
		s.buf = make([]byte, s.chunkSize)
	}
	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			if s.lossless {
				s.replay.Write(s.buf[:n])
			}
			p[0] = s.buf[0]
			s.hold = append(s.hold[:0], s.buf[1:n]...)
			return 1, nil
		}
		if err == io.EOF {
			s.eof = true
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
	}
}

// Finish drains the producer so the replay buffer holds the complete
// document. A no-op when the source is not lossless.
func (s *Source) Finish() error {
	if !s.lossless {
		return nil
	}
	var b [1]byte
	for {
		_, err := s.Read(b[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Document decodes the complete original input from the replay buffer,
// draining the producer first. It returns nil when the source is not
// lossless. The consumer must have iterated to exhaustion for the replay
// buffer to contain a decodable document.
func (s *Source) Document() (interface{}, error) {
	if !s.lossless {
		return nil, nil
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(s.replay.Bytes(), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Elements returns an iterator over the top-level elements of the
// dataset array: it runs the prepare hook, streams one element per
// Next call, and drains the producer once the array closes.
func (s *Source) Elements() *ElementStream {
	return &ElementStream{src: s}
}

// ElementStream iterates the dataset array of a Source.
type ElementStream struct {
	src      *Source
	arr      *ArrayStreamer
	prepared bool
	finished bool
}

// Next returns the next element of the dataset array, and io.EOF once
// the array has closed and the remaining input has been drained.
func (e *ElementStream) Next() (interface{}, error) {
	if e.finished {
		return nil, io.EOF
	}
	if !e.prepared {
		if e.src.prepare != nil {
			if err := e.src.prepare(e.src, &bytes.Buffer{}); err != nil {
				e.finished = true
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil, fmt.Errorf("%w: %w", ErrStreamStart, err)
				}
				return nil, err
			}
		}
		e.arr = StreamArray(NewTokenizer(e.src))
		e.prepared = true
	}
	v, err := e.arr.Next()
	if err == io.EOF {
		e.finished = true
		if ferr := e.src.Finish(); ferr != nil {
			return nil, fmt.Errorf("%w: %w", ErrStreamRest, ferr)
		}
		return nil, io.EOF
	}
	if err != nil {
		e.finished = true
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrStreamItem, err)
		}
		return nil, err
	}
	return v, nil
}

// SkipPast returns a PrepareFunc that reads one character at a time
// until the skipped prefix ends with sentinel, leaving the source
// positioned immediately after it.
func SkipPast(sentinel string) PrepareFunc {
	return func(r io.Reader, skip *bytes.Buffer) error {
		var b [1]byte
		for !bytes.HasSuffix(skip.Bytes(), []byte(sentinel)) {
			n, err := r.Read(b[:])
			if n > 0 {
				skip.WriteByte(b[0])
				continue
			}
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// Pair couples one streamed element with the fully decoded document.
// Document is nil for every pair except the last.
type Pair struct {
	Element  interface{}
	Document interface{}
}

// PairStream yields (element, document) pairs with look-ahead-by-one:
// the previous element is held back until the next one arrives, so the
// last element can be paired with the full document.
type PairStream struct {
	src    *Source
	elems  *ElementStream
	prev   interface{}
	primed bool
	done   bool
}

// FindStartAndParse constructs a source over r, installs the prelude,
// and returns a stream of pairs. Every pair carries a nil Document
// except the final one, which carries the complete decoded document (or
// nil when lossless is false). An empty dataset array yields a single
// all-nil pair.
func FindStartAndParse(r io.Reader, prelude PrepareFunc, lossless bool) *PairStream {
	src := NewSource(r)
	src.SetLossless(lossless)
	if prelude != nil {
		src.SetPrepare(prelude)
	}
	return &PairStream{src: src, elems: src.Elements()}
}

// Next returns the next pair, and io.EOF after the final one.
func (ps *PairStream) Next() (Pair, error) {
	if ps.done {
		return Pair{}, io.EOF
	}
	if !ps.primed {
		v, err := ps.elems.Next()
		if err == io.EOF {
			ps.done = true
			return Pair{}, nil
		}
		if err != nil {
			ps.done = true
			return Pair{}, err
		}
		ps.prev = v
		ps.primed = true
	}
	v, err := ps.elems.Next()
	if err == io.EOF {
		ps.done = true
		doc, derr := ps.src.Document()
		if derr != nil {
			return Pair{}, derr
		}
		return Pair{Element: ps.prev, Document: doc}, nil
	}
	if err != nil {
		ps.done = true
		return Pair{}, err
	}
	out := ps.prev
	ps.prev = v
	return Pair{Element: out}, nil
}
