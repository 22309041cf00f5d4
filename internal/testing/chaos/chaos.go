// Package chaos corrupts valid stylesheets so parser and transform tests can
// check that malformed input is rejected with an error rather than a panic.
package chaos

import (
	"math/rand/v2"
)

// Mutation is one kind of corruption.
type Mutation int

const (
	ByteDelete Mutation = iota
	ByteInsert
	ByteReplace
	TokenInsert
	BraceDrop
	Utf8Corrupt
	Truncation
	mutationCount
)

// tokens are fragments with meaning in SCSS; inserting them at random breaks
// structure in ways single bytes rarely do.
var tokens = []string{
	"{", "}", "(", ")", ";", ":", ",", "$", "#{", "@include ", "@extend ",
	"@mixin ", "&", "%", ".", "'", `"`, "`", "${", "\\", "//", "/*", "*/", "!default",
}

// Corruptor applies seeded random mutations.
type Corruptor struct {
	rng *rand.Rand
}

// NewCorruptor creates a Corruptor; equal seeds give equal corpora.
func NewCorruptor(seed uint64) *Corruptor {
	return &Corruptor{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Corrupt returns a mutated copy of input.
func (c *Corruptor) Corrupt(input []byte) []byte {
	result := append([]byte(nil), input...)
	if len(result) == 0 {
		return c.tokenInsert(result)
	}

	switch Mutation(c.rng.IntN(int(mutationCount))) {
	case ByteDelete:
		idx := c.rng.IntN(len(result))
		return append(result[:idx], result[idx+1:]...)
	case ByteInsert:
		idx := c.rng.IntN(len(result) + 1)
		return insertAt(result, idx, []byte{byte(c.rng.IntN(128))})
	case ByteReplace:
		result[c.rng.IntN(len(result))] = byte(c.rng.IntN(128))
		return result
	case TokenInsert:
		return c.tokenInsert(result)
	case BraceDrop:
		return c.braceDrop(result)
	case Utf8Corrupt:
		result[c.rng.IntN(len(result))] = 0xC0 | byte(c.rng.IntN(0x20))
		return result
	default:
		return result[:c.rng.IntN(len(result))]
	}
}

// CorruptN applies n random corruptions to a copy of input.
func (c *Corruptor) CorruptN(input []byte, n int) []byte {
	result := append([]byte(nil), input...)
	for range n {
		result = c.Corrupt(result)
	}
	return result
}

// GenerateCorpus returns count corrupted variants of valid, each with one to
// five mutations.
func (c *Corruptor) GenerateCorpus(valid []byte, count int) [][]byte {
	corpus := make([][]byte, count)
	for i := range corpus {
		corpus[i] = c.CorruptN(valid, c.rng.IntN(5)+1)
	}
	return corpus
}

func (c *Corruptor) tokenInsert(input []byte) []byte {
	tok := tokens[c.rng.IntN(len(tokens))]
	return insertAt(input, c.rng.IntN(len(input)+1), []byte(tok))
}

// braceDrop removes one brace or parenthesis, unbalancing the input.
func (c *Corruptor) braceDrop(input []byte) []byte {
	var positions []int
	for i, b := range input {
		switch b {
		case '{', '}', '(', ')':
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return c.tokenInsert(input)
	}
	idx := positions[c.rng.IntN(len(positions))]
	return append(input[:idx], input[idx+1:]...)
}

func insertAt(input []byte, idx int, frag []byte) []byte {
	out := make([]byte, 0, len(input)+len(frag))
	out = append(out, input[:idx]...)
	out = append(out, frag...)
	return append(out, input[idx:]...)
}
