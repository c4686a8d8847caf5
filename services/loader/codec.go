package loaderService

import (
	"encoding/binary"
	"fmt"

	"gohan/storage/models"
)

// RowKeyCodec turns a variant coordinate into the row key of the primary
// store. Encoding must be deterministic.
type RowKeyCodec interface {
	Encode(coordinate models.VariantCoordinate) ([]byte, error)
}

// BinaryRowKeyCodec writes every coordinate field with an explicit length
// or fixed width, so distinct coordinates never share a key. Positions are
// big endian to keep keys of a chromosome in position order.
type BinaryRowKeyCodec struct{}

func (BinaryRowKeyCodec) Encode(c models.VariantCoordinate) ([]byte, error) {
	if c.Chromosome == "" {
		return nil, fmt.Errorf("variant %s has no chromosome", c)
	}
	if c.Start < 0 || c.End < 0 {
		return nil, fmt.Errorf("variant %s has a negative position", c)
	}

	key := make([]byte, 0, 32+len(c.Chromosome)+len(c.Reference)+len(c.Alternate))
	key = appendString(key, c.Chromosome)
	key = binary.BigEndian.AppendUint64(key, uint64(c.Start))
	key = binary.BigEndian.AppendUint64(key, uint64(c.End))
	key = appendString(key, c.Reference)
	key = appendString(key, c.Alternate)
	if c.Structural {
		key = append(key, 1)
	} else {
		key = append(key, 0)
	}
	return key, nil
}

func (BinaryRowKeyCodec) Decode(key []byte) (models.VariantCoordinate, error) {
	var (
		c   models.VariantCoordinate
		err error
	)
	if c.Chromosome, key, err = readString(key); err != nil {
		return c, err
	}
	if len(key) < 16 {
		return c, fmt.Errorf("row key truncated at position")
	}
	c.Start = int(binary.BigEndian.Uint64(key))
	c.End = int(binary.BigEndian.Uint64(key[8:]))
	key = key[16:]
	if c.Reference, key, err = readString(key); err != nil {
		return c, err
	}
	if c.Alternate, key, err = readString(key); err != nil {
		return c, err
	}
	if len(key) != 1 {
		return c, fmt.Errorf("row key has %d trailing bytes", len(key))
	}
	c.Structural = key[0] == 1
	return c, nil
}

func appendString(key []byte, s string) []byte {
	key = binary.AppendUvarint(key, uint64(len(s)))
	return append(key, s...)
}

func readString(key []byte) (string, []byte, error) {
	n, read := binary.Uvarint(key)
	if read <= 0 || uint64(len(key)-read) < n {
		return "", nil, fmt.Errorf("row key truncated at string")
	}
	key = key[read:]
	return string(key[:n]), key[n:], nil
}
