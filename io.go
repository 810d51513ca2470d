package cfr

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/timpalpant/tossem-cfr/abstraction"
)

// V2 strategy file layout, little-endian throughout:
//
//	header (24 bytes): magic u32, version u32, iterations i64, node count u64
//	record (75 bytes): key (9) + regret 4xf64 (32) + stratSum 4xf64 (32) + reserved u16
//
// Record order is unspecified; readers must not assume one.
const (
	fileMagic   = 0x544F5353 // "TOSS"
	fileVersion = 2

	headerSize = 24
	keySize    = 9
	nodeSize   = 64
	recordSize = keySize + nodeSize + 2
)

// EncodeKey packs an InfoKey into its 9-byte serialized form. The flags
// byte carries bb/sb discard bits and the low six bits of the legal mask;
// betting nodes only ever set the low four.
func EncodeKey(k abstraction.InfoKey) [keySize]byte {
	var b [keySize]byte
	b[0] = k.Player
	b[1] = k.Street
	binary.LittleEndian.PutUint16(b[2:4], k.HoleBucket)
	binary.LittleEndian.PutUint16(b[4:6], k.BoardBucket)
	b[6] = k.PotBucket
	b[7] = k.HistBucket

	flags := k.LegalMask & 0x3F
	if k.BBDiscarded != 0 {
		flags |= 0x80
	}
	if k.SBDiscarded != 0 {
		flags |= 0x40
	}
	b[8] = flags
	return b
}

// DecodeKey unpacks a 9-byte serialized key.
func DecodeKey(b []byte) abstraction.InfoKey {
	flags := b[8]
	k := abstraction.InfoKey{
		Player:      b[0],
		Street:      b[1],
		HoleBucket:  binary.LittleEndian.Uint16(b[2:4]),
		BoardBucket: binary.LittleEndian.Uint16(b[4:6]),
		PotBucket:   b[6],
		HistBucket:  b[7],
		LegalMask:   flags & 0x3F,
	}
	if flags&0x80 != 0 {
		k.BBDiscarded = 1
	}
	if flags&0x40 != 0 {
		k.SBDiscarded = 1
	}
	return k
}

// EncodeNode packs a node's eight doubles into their 64-byte form.
func EncodeNode(n *Node) [nodeSize]byte {
	var b [nodeSize]byte
	for a := 0; a < abstraction.NumBettingActions; a++ {
		binary.LittleEndian.PutUint64(b[a*8:], math.Float64bits(n.Regret[a]))
		binary.LittleEndian.PutUint64(b[32+a*8:], math.Float64bits(n.StratSum[a]))
	}
	return b
}

// DecodeNode unpacks a 64-byte node payload.
func DecodeNode(b []byte) Node {
	var n Node
	for a := 0; a < abstraction.NumBettingActions; a++ {
		n.Regret[a] = math.Float64frombits(binary.LittleEndian.Uint64(b[a*8:]))
		n.StratSum[a] = math.Float64frombits(binary.LittleEndian.Uint64(b[32+a*8:]))
	}
	return n
}

// WriteTable serializes the table in V2 format.
func WriteTable(w io.Writer, table RegretTable, iterations int64) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], fileMagic)
	binary.LittleEndian.PutUint32(header[4:8], fileVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(iterations))
	binary.LittleEndian.PutUint64(header[16:24], uint64(len(table)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var rec [recordSize]byte
	for key, node := range table {
		kb := EncodeKey(key)
		nb := EncodeNode(node)
		copy(rec[:keySize], kb[:])
		copy(rec[keySize:], nb[:])
		rec[recordSize-2] = 0
		rec[recordSize-1] = 0
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadTable deserializes a V2 strategy file, returning the table and the
// iteration count recorded in the header.
func ReadTable(r io.Reader) (RegretTable, int64, error) {
	br := bufio.NewReader(r)

	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, 0, errors.Wrap(err, "reading header")
	}
	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != fileMagic {
		return nil, 0, errors.Errorf("bad magic: %#x", magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != fileVersion {
		return nil, 0, errors.Errorf("unsupported version: %d", version)
	}
	iterations := int64(binary.LittleEndian.Uint64(header[8:16]))
	count := binary.LittleEndian.Uint64(header[16:24])

	table := make(RegretTable, count)
	var rec [recordSize]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return nil, 0, errors.Wrapf(err, "reading record %d of %d", i, count)
		}
		key := DecodeKey(rec[:keySize])
		node := DecodeNode(rec[keySize : keySize+nodeSize])
		table[key] = &node
	}

	return table, iterations, nil
}

// SaveTable writes the table to a fresh file at path. Checkpoints are a
// user-directed side effect; callers treat a failure here as fatal.
func SaveTable(path string, table RegretTable, iterations int64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not open output file %s", path)
	}

	if err := WriteTable(f, table, iterations); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

// LoadTable reads a strategy file from disk.
func LoadTable(path string) (RegretTable, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "could not open strategy file %s", path)
	}
	defer f.Close()
	return ReadTable(f)
}
