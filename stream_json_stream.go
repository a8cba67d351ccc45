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
	"fmt"
	"io"
)

// ArrayStreamer yields the top-level elements of a JSON array one at a
// time, without materialising the array itself. Only the tokens of the
// element being yielded are consumed before it is returned; there is no
// look-ahead across elements.
type ArrayStreamer struct {
	tok     *Tokenizer
	started bool
	done    bool
}

// StreamArray returns a streamer over tok, which must be positioned so
// that its next token is the opening '[' of the array.
func StreamArray(tok *Tokenizer) *ArrayStreamer {
	return &ArrayStreamer{tok: tok}
}

// Next returns the next array element. It returns io.EOF once the
// closing ']' has been consumed.
func (s *ArrayStreamer) Next() (interface{}, error) {
	if s.done {
		return nil, io.EOF
	}
	v, err := s.advance()
	if err != nil {
		s.done = true
		return nil, err
	}
	return v, nil
}

func (s *ArrayStreamer) advance() (interface{}, error) {
	if !s.started {
		first, err := s.next()
		if err != nil {
			return nil, err
		}
		if !isOperator(first, "[") {
			return nil, fmt.Errorf("%w: array must start with '[', got '%v'", ErrParse, first.Value)
		}
		s.started = true
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		if isOperator(tok, "]") {
			return nil, io.EOF
		}
		return s.element(tok)
	}

	tok, err := s.next()
	if err != nil {
		return nil, err
	}
	switch {
	case isOperator(tok, "]"):
		return nil, io.EOF
	case isOperator(tok, ","):
		tok, err = s.next()
		if err != nil {
			return nil, err
		}
		return s.element(tok)
	default:
		return nil, fmt.Errorf("%w: array entries must be followed by ',' or ']', got '%v'", ErrParse, tok.Value)
	}
}

// element decodes one array element starting at tok. Containers are
// handed to the value parser, seeded with their opening token.
func (s *ArrayStreamer) element(tok Token) (interface{}, error) {
	if tok.Type != Operator {
		return tok.Value, nil
	}
	if tok.Value == "{" || tok.Value == "[" {
		p := &parser{tok: s.tok}
		return p.parseValue(tok)
	}
	return nil, fmt.Errorf("%w: expected an array value, got '%v'", ErrParse, tok.Value)
}

// next maps the tokenizer's end of input to a truncation error: inside
// an array the token stream must not end before the closing ']'.
func (s *ArrayStreamer) next() (Token, error) {
	tok, err := s.tok.Next()
	if err == io.EOF {
		return Token{}, fmt.Errorf("%w: unexpected end of token stream: %w", ErrParse, io.ErrUnexpectedEOF)
	}
	return tok, err
}
