package feature

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Feature container format. A container holds named float32 datasets, each
// with its shape, compression codec and a CRC32 of the stored payload.
// All integers are little-endian.
//
// Layout:
//
//	magic   uint32  "CSMF"
//	version uint32
//	count   uint16
//	per dataset:
//	  nameLen uint16, name
//	  codec   uint8
//	  ndim    uint8, dims [ndim]uint32
//	  rawLen  uint64  (uncompressed payload bytes)
//	  len     uint64  (stored payload bytes)
//	  crc     uint32  (CRC32-IEEE of stored payload)
//	  payload [len]byte
const (
	// formatMagic identifies feature container files (ASCII: "CSMF").
	formatMagic   uint32 = 0x43534D46
	formatVersion uint32 = 1
)

// Compression selects the payload codec of a stored dataset.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

var (
	ErrInvalidMagic   = errors.New("invalid feature container magic")
	ErrInvalidVersion = errors.New("unsupported feature container version")
)

// ErrDatasetNotFound indicates a container does not hold the named dataset.
type ErrDatasetNotFound struct {
	Name string
}

func (e *ErrDatasetNotFound) Error() string {
	return fmt.Sprintf("dataset %q not found in feature container", e.Name)
}

// ErrChecksum indicates a stored payload failed CRC verification.
type ErrChecksum struct {
	Name string
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("checksum mismatch for dataset %q", e.Name)
}

// Dataset is one named array in a feature container.
type Dataset struct {
	Name   string
	Dims   []int
	Values []float32
}

// Squeeze returns the dims with degenerate (size 1) dimensions removed.
func (d Dataset) Squeeze() []int {
	out := make([]int, 0, len(d.Dims))
	for _, dim := range d.Dims {
		if dim != 1 {
			out = append(out, dim)
		}
	}
	return out
}

// Encode writes datasets to w as a feature container.
func Encode(w io.Writer, datasets []Dataset, codec Compression) error {
	var head [10]byte
	binary.LittleEndian.PutUint32(head[0:], formatMagic)
	binary.LittleEndian.PutUint32(head[4:], formatVersion)
	binary.LittleEndian.PutUint16(head[8:], uint16(len(datasets)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}

	for _, ds := range datasets {
		if err := encodeDataset(w, ds, codec); err != nil {
			return fmt.Errorf("encode dataset %q: %w", ds.Name, err)
		}
	}
	return nil
}

// WriteFile writes datasets to a new container file at path.
func WriteFile(path string, datasets []Dataset, codec Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, datasets, codec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeDataset(w io.Writer, ds Dataset, codec Compression) error {
	raw := make([]byte, 4*len(ds.Values))
	for i, v := range ds.Values {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}

	payload, err := compress(raw, codec)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writeU16 := func(v uint16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		buf.Write(b[:])
	}
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeU64 := func(v uint64) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}

	writeU16(uint16(len(ds.Name)))
	buf.WriteString(ds.Name)
	buf.WriteByte(byte(codec))
	buf.WriteByte(byte(len(ds.Dims)))
	for _, dim := range ds.Dims {
		writeU32(uint32(dim))
	}
	writeU64(uint64(len(raw)))
	writeU64(uint64(len(payload)))
	writeU32(crc32.ChecksumIEEE(payload))
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// DecodeDataset finds and decodes the named dataset from container bytes.
func DecodeDataset(data []byte, name string) (Dataset, error) {
	r := bytes.NewReader(data)

	var head [10]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Dataset{}, fmt.Errorf("read container header: %w", err)
	}
	if binary.LittleEndian.Uint32(head[0:]) != formatMagic {
		return Dataset{}, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(head[4:]) != formatVersion {
		return Dataset{}, ErrInvalidVersion
	}
	count := int(binary.LittleEndian.Uint16(head[8:]))

	for i := 0; i < count; i++ {
		ds, found, err := decodeDataset(r, name)
		if err != nil {
			return Dataset{}, err
		}
		if found {
			return ds, nil
		}
	}
	return Dataset{}, &ErrDatasetNotFound{Name: name}
}

func decodeDataset(r *bytes.Reader, want string) (Dataset, bool, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return Dataset{}, false, fmt.Errorf("read dataset header: %w", err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Dataset{}, false, fmt.Errorf("read dataset name: %w", err)
	}

	var fixed struct {
		Codec uint8
		NDim  uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return Dataset{}, false, fmt.Errorf("read dataset %q header: %w", name, err)
	}
	dims := make([]int, fixed.NDim)
	for i := range dims {
		var dim uint32
		if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
			return Dataset{}, false, fmt.Errorf("read dataset %q dims: %w", name, err)
		}
		dims[i] = int(dim)
	}
	var rawLen, payloadLen uint64
	var crc uint32
	if err := binary.Read(r, binary.LittleEndian, &rawLen); err != nil {
		return Dataset{}, false, err
	}
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return Dataset{}, false, err
	}
	if err := binary.Read(r, binary.LittleEndian, &crc); err != nil {
		return Dataset{}, false, err
	}

	if string(name) != want {
		// Not the dataset we are looking for; skip its payload.
		if _, err := r.Seek(int64(payloadLen), io.SeekCurrent); err != nil {
			return Dataset{}, false, err
		}
		return Dataset{}, false, nil
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Dataset{}, false, fmt.Errorf("read dataset %q payload: %w", name, err)
	}
	if crc32.ChecksumIEEE(payload) != crc {
		return Dataset{}, false, &ErrChecksum{Name: string(name)}
	}

	raw, err := decompress(payload, Compression(fixed.Codec), int(rawLen))
	if err != nil {
		return Dataset{}, false, fmt.Errorf("decompress dataset %q: %w", name, err)
	}
	if uint64(len(raw)) != rawLen || rawLen%4 != 0 {
		return Dataset{}, false, fmt.Errorf("dataset %q: unexpected payload size %d", name, len(raw))
	}

	values := make([]float32, rawLen/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return Dataset{Name: string(name), Dims: dims, Values: values}, true, nil
}

func compress(raw []byte, codec Compression) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return raw, nil
	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}

func decompress(payload []byte, codec Compression, rawLen int) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return payload, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		raw := make([]byte, rawLen)
		if _, err := io.ReadFull(zr, raw); err != nil {
			return nil, err
		}
		return raw, nil
	case CompressionLZ4:
		zr := lz4.NewReader(bytes.NewReader(payload))
		raw := make([]byte, rawLen)
		if _, err := io.ReadFull(zr, raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}
