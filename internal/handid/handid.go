// Package handid generates identifiers for hands seen at a table.
//
// An ID is a UUIDv7 rendered as 26 characters of Crockford base32, so IDs
// sort by the time the hand was first detected and the detection time can
// be recovered from the ID.
package handid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies the random part of an ID. Tests inject a fixed one.
type RandSource interface {
	Intn(n int) int
}

// Generator produces hand IDs.
type Generator struct {
	randSource RandSource
}

// NewGenerator returns a generator; a nil source uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// New returns an ID for a hand first seen at the given time.
func New(at time.Time) string {
	return NewGenerator(nil).Generate(at)
}

// Generate returns an ID for a hand first seen at the given time.
func (g *Generator) Generate(at time.Time) string {
	return encode(g.uuid(at.UnixMilli()))
}

func (g *Generator) uuid(ms int64) [16]byte {
	var id [16]byte

	// 48-bit millisecond timestamp, big-endian
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.randSource.Intn(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("handid: reading random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// encode writes the 128 bits as 26 five-bit groups, most significant first.
// The final group carries the last three bits padded with zeros.
func encode(data [16]byte) string {
	out := make([]byte, 26)
	for i := range out {
		offset := i * 5
		byteIndex := offset / 8
		bitIndex := offset % 8

		var value uint8
		if bitIndex <= 3 {
			value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < len(data) {
				value |= data[byteIndex+1] >> (11 - bitIndex)
			}
		}
		out[i] = alphabet[value]
	}
	return string(out)
}

// Validate checks that id is 26 lower-case base32 characters.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("hand ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("hand ID first character must be 0-7, got %c", id[0])
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}

// Time recovers the millisecond timestamp embedded in an ID.
func Time(id string) (time.Time, error) {
	if err := Validate(id); err != nil {
		return time.Time{}, err
	}
	// The first 10 characters carry 50 bits: the 48-bit timestamp and two
	// bits of version.
	var bits int64
	for i := 0; i < 10; i++ {
		bits = bits<<5 | int64(strings.IndexByte(alphabet, id[i]))
	}
	return time.UnixMilli(bits >> 2), nil
}
