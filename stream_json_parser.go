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
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParse reports a JSON grammar violation in the token stream.
var ErrParse = errors.New("parse error")

// frameKind tags the variants held on the parser's working stack.
type frameKind int

const (
	frameArray  frameKind = iota // an in-progress array
	frameObject                  // an in-progress object
	framePair                    // an in-progress key/value pair
)

// frameExpect records what the frame on top of the stack needs next.
type frameExpect int

const (
	expectValueOrClose frameExpect = iota // just after '['
	expectValue                           // just after ',' in an array
	expectKeyOrClose                      // just after '{'
	expectKey                             // just after ',' in an object
	expectColon                           // after an object key
	expectPairValue                       // after ':'
	expectCommaOrClose                    // after a completed element or filled pair
)

// parseFrame is one frame of the parser stack: an array, an object, or a
// key/value pair whose value slot may not be filled yet. A pair is
// filled once its expect reaches expectCommaOrClose.
type parseFrame struct {
	kind   frameKind
	expect frameExpect

	arr []interface{}
	obj map[string]interface{}
	key string
	val interface{}
}

// parser consumes tokens from a Tokenizer and materialises exactly one
// JSON value. It reads only the tokens belonging to that value, which is
// what allows the array streamer to hand it control mid-stream.
type parser struct {
	tok   *Tokenizer
	stack []parseFrame
}

// Parse reads a single JSON value from r. The root must be an object or
// an array, and the input must contain nothing after it.
func Parse(r io.Reader) (interface{}, error) {
	tok := NewTokenizer(r)
	first, err := tok.Next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty JSON document", ErrParse)
	}
	if err != nil {
		return nil, err
	}
	p := &parser{tok: tok}
	v, err := p.parseValue(first)
	if err != nil {
		return nil, err
	}
	if extra, err := tok.Next(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: improperly closed JSON document, trailing '%v'", ErrParse, extra.Value)
	}
	return v, nil
}

// ParseString parses a single JSON value from a string.
func ParseString(s string) (interface{}, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses a single JSON value from a byte slice.
func ParseBytes(b []byte) (interface{}, error) {
	return Parse(bytes.NewReader(b))
}

// parseValue runs the stack machine to completion, seeded with the first
// token of the value.
func (p *parser) parseValue(first Token) (interface{}, error) {
	if err := p.openRoot(first); err != nil {
		return nil, err
	}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		done, result, err := p.consume(tok)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
	}
}

// next pulls a token, turning a premature end of the stream into a parse
// error that callers can tell apart from malformed input.
func (p *parser) next() (Token, error) {
	tok, err := p.tok.Next()
	if err == io.EOF {
		return Token{}, fmt.Errorf("%w: unexpected end of token stream: %w", ErrParse, io.ErrUnexpectedEOF)
	}
	return tok, err
}

func (p *parser) openRoot(first Token) error {
	if first.Type == Operator {
		switch first.Value {
		case "{":
			p.pushObject()
			return nil
		case "[":
			p.pushArray()
			return nil
		}
	}
	return fmt.Errorf("%w: expected object or array, got '%v'", ErrParse, first.Value)
}

func (p *parser) pushArray() {
	p.stack = append(p.stack, parseFrame{kind: frameArray, expect: expectValueOrClose, arr: []interface{}{}})
}

func (p *parser) pushObject() {
	p.stack = append(p.stack, parseFrame{kind: frameObject, expect: expectKeyOrClose, obj: map[string]interface{}{}})
}

func (p *parser) pop() parseFrame {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return f
}

func (p *parser) top() *parseFrame {
	return &p.stack[len(p.stack)-1]
}

// consume dispatches one token to the frame on top of the stack. done is
// true once the root value has closed; result then holds it.
func (p *parser) consume(tok Token) (done bool, result interface{}, err error) {
	switch p.top().kind {
	case frameArray:
		return p.consumeInArray(tok)
	case frameObject:
		return p.consumeInObject(tok)
	default:
		return p.consumeInPair(tok)
	}
}

func (p *parser) consumeInArray(tok Token) (bool, interface{}, error) {
	top := p.top()
	switch top.expect {
	case expectValueOrClose:
		if isOperator(tok, "]") {
			return p.closeArray()
		}
		return p.beginValue(tok, "array must either be empty or contain a value")
	case expectValue:
		return p.beginValue(tok, "array value expected")
	default: // expectCommaOrClose
		switch {
		case isOperator(tok, ","):
			top.expect = expectValue
			return false, nil, nil
		case isOperator(tok, "]"):
			return p.closeArray()
		case isOperator(tok, "}"):
			return false, nil, fmt.Errorf("%w: array closed with '}'", ErrParse)
		default:
			return false, nil, fmt.Errorf("%w: array entries must be followed by ',' or ']', got '%v'", ErrParse, tok.Value)
		}
	}
}

func (p *parser) consumeInObject(tok Token) (bool, interface{}, error) {
	top := p.top()
	if top.expect == expectKeyOrClose && isOperator(tok, "}") {
		return p.closeObject()
	}
	if tok.Type == String {
		p.stack = append(p.stack, parseFrame{kind: framePair, expect: expectColon, key: tok.Value.(string)})
		return false, nil, nil
	}
	if top.expect == expectKey && tok.Type == Operator {
		return false, nil, fmt.Errorf("%w: object key expected, got '%v'", ErrParse, tok.Value)
	}
	return false, nil, fmt.Errorf("%w: object keys must be strings, got '%v'", ErrParse, tok.Value)
}

func (p *parser) consumeInPair(tok Token) (bool, interface{}, error) {
	top := p.top()
	switch top.expect {
	case expectColon:
		if isOperator(tok, ":") {
			top.expect = expectPairValue
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("%w: object keys must be separated from values by a single ':', got '%v'", ErrParse, tok.Value)
	case expectPairValue:
		return p.beginValue(tok, "object property value expected")
	default: // expectCommaOrClose, the pair is filled
		switch {
		case isOperator(tok, ","):
			pair := p.pop()
			obj := p.top()
			obj.obj[pair.key] = pair.val
			obj.expect = expectKey
			return false, nil, nil
		case isOperator(tok, "}"):
			pair := p.pop()
			obj := p.top()
			obj.obj[pair.key] = pair.val
			return p.closeObject()
		default:
			return false, nil, fmt.Errorf("%w: object key value pairs must be followed by ',' or '}', got '%v'", ErrParse, tok.Value)
		}
	}
}

// beginValue handles a token in value position: containers push a new
// frame, scalars attach directly.
func (p *parser) beginValue(tok Token, context string) (bool, interface{}, error) {
	if tok.Type == Operator {
		switch tok.Value {
		case "{":
			p.pushObject()
			return false, nil, nil
		case "[":
			p.pushArray()
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("%w: %s, got '%v'", ErrParse, context, tok.Value)
	}
	return p.attach(tok.Value)
}

// attach delivers a completed value to the frame now on top of the
// stack. With an empty stack the root value is complete and returned.
func (p *parser) attach(v interface{}) (bool, interface{}, error) {
	if len(p.stack) == 0 {
		return true, v, nil
	}
	top := p.top()
	switch top.kind {
	case frameArray:
		top.arr = append(top.arr, v)
		top.expect = expectCommaOrClose
	case framePair:
		top.val = v
		top.expect = expectCommaOrClose
	default:
		return false, nil, fmt.Errorf("%w: object keys must be strings, got '%v'", ErrParse, v)
	}
	return false, nil, nil
}

func (p *parser) closeArray() (bool, interface{}, error) {
	f := p.pop()
	return p.attach(f.arr)
}

func (p *parser) closeObject() (bool, interface{}, error) {
	f := p.pop()
	return p.attach(f.obj)
}

func isOperator(tok Token, op string) bool {
	return tok.Type == Operator && tok.Value == op
}
