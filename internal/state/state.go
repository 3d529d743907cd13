// Package state provides the versioned, compressed snapshot codec used to
// save and restore the whole of a GameBoy's mutable state in one shot.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
)

// Version is bumped whenever the payload layout changes incompatibly.
const Version uint32 = 1

// magic identifies a save-state blob.
var magic = [4]byte{'G', 'B', 'S', 'S'}

// Stater is implemented by every component that participates in a snapshot.
type Stater interface {
	Save(s *State)
	Load(s *State)
}

// State is an append-only write cursor / sequential read cursor over a raw
// byte payload. Components serialize their fields to it in a fixed order.
type State struct {
	raw  []byte
	pos  int
	wbuf []byte
}

// New returns an empty State ready for writing.
func New() *State {
	return &State{}
}

// FromBytes returns a State ready for reading back raw (uncompressed) bytes.
func FromBytes(raw []byte) *State {
	return &State{raw: raw}
}

func (s *State) Write8(v uint8) {
	s.wbuf = append(s.wbuf, v)
}

func (s *State) Write16(v uint16) {
	s.wbuf = append(s.wbuf, byte(v), byte(v>>8))
}

func (s *State) Write32(v uint32) {
	s.wbuf = append(s.wbuf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (s *State) Write64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.wbuf = append(s.wbuf, b[:]...)
}

func (s *State) WriteBool(v bool) {
	if v {
		s.wbuf = append(s.wbuf, 1)
	} else {
		s.wbuf = append(s.wbuf, 0)
	}
}

// WriteBytes writes a length-prefixed byte slice.
func (s *State) WriteBytes(data []byte) {
	s.Write32(uint32(len(data)))
	s.wbuf = append(s.wbuf, data...)
}

// WriteRaw appends data without a length prefix; the reader must know its
// length ahead of time (fixed-size arrays such as VRAM/WRAM).
func (s *State) WriteRaw(data []byte) {
	s.wbuf = append(s.wbuf, data...)
}

func (s *State) Read8() uint8 {
	v := s.raw[s.pos]
	s.pos++
	return v
}

func (s *State) Read16() uint16 {
	v := uint16(s.raw[s.pos]) | uint16(s.raw[s.pos+1])<<8
	s.pos += 2
	return v
}

func (s *State) Read32() uint32 {
	v := uint32(s.raw[s.pos]) | uint32(s.raw[s.pos+1])<<8 | uint32(s.raw[s.pos+2])<<16 | uint32(s.raw[s.pos+3])<<24
	s.pos += 4
	return v
}

func (s *State) Read64() uint64 {
	v := binary.LittleEndian.Uint64(s.raw[s.pos : s.pos+8])
	s.pos += 8
	return v
}

func (s *State) ReadBool() bool {
	v := s.raw[s.pos] != 0
	s.pos++
	return v
}

// ReadBytes reads a length-prefixed byte slice.
func (s *State) ReadBytes() []byte {
	n := int(s.Read32())
	data := make([]byte, n)
	copy(data, s.raw[s.pos:s.pos+n])
	s.pos += n
	return data
}

// ReadRaw reads exactly len(p) bytes into p.
func (s *State) ReadRaw(p []byte) {
	copy(p, s.raw[s.pos:s.pos+len(p)])
	s.pos += len(p)
}

// Bytes returns the bytes accumulated so far by Write* calls.
func (s *State) Bytes() []byte {
	return s.wbuf
}

// header is the on-disk layout: magic, version, uncompressed size,
// compressed size, an xxhash checksum of the uncompressed payload, then the
// flate-compressed payload itself.
type header struct {
	Magic      [4]byte
	Version    uint32
	RawSize    uint32
	Compressed uint32
	Checksum   uint64
}

// Encode compresses and frames a raw payload produced by a Stater.Save call
// into the save-state wire format.
func Encode(raw []byte) ([]byte, error) {
	var compressed bytes.Buffer
	w, err := flate.NewWriter(&compressed, flate.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("state: create compressor: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("state: compress payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("state: flush compressor: %w", err)
	}

	h := header{
		Magic:      magic,
		Version:    Version,
		RawSize:    uint32(len(raw)),
		Compressed: uint32(compressed.Len()),
		Checksum:   xxhash.Sum64(raw),
	}

	out := bytes.NewBuffer(make([]byte, 0, 24+compressed.Len()))
	_ = binary.Write(out, binary.LittleEndian, h)
	out.Write(compressed.Bytes())
	return out.Bytes(), nil
}

// Decode validates and decompresses a blob, returning the raw payload
// that was handed to Encode. The load is atomic: on any error the returned
// byte slice is nil and the caller's state is left untouched.
func Decode(blob []byte) ([]byte, error) {
	if len(blob) < 24 {
		return nil, fmt.Errorf("state: truncated header (%d bytes)", len(blob))
	}
	var h header
	if err := binary.Read(bytes.NewReader(blob[:24]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("state: read header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("state: bad magic %q", h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("state: unsupported version %d", h.Version)
	}
	payload := blob[24:]
	if uint32(len(payload)) != h.Compressed {
		return nil, fmt.Errorf("state: compressed size mismatch: header says %d, got %d", h.Compressed, len(payload))
	}

	r := flate.NewReader(bytes.NewReader(payload))
	defer r.Close()
	raw := make([]byte, h.RawSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("state: decompress payload: %w", err)
	}
	if xxhash.Sum64(raw) != h.Checksum {
		return nil, fmt.Errorf("state: checksum mismatch, payload corrupt")
	}
	return raw, nil
}
