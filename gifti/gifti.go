// Package gifti reads and writes per-vertex metric data in the GIFTI
// surface-scalar format.
//
// Only the subset needed by the pipeline is implemented: one-dimensional
// FLOAT32/INT32 data arrays, little-endian, with ASCII, Base64Binary or
// GZipBase64Binary encoding. Mesh geometry is never parsed here; surface
// files are only ever passed through to the geometry tool.
package gifti

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

var (
	// ErrNoDataArray is returned for GIFTI files without any data array.
	ErrNoDataArray = errors.New("gifti: file contains no data array")
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type giftiFile struct {
	XMLName            xml.Name    `xml:"GIFTI"`
	Version            string      `xml:"Version,attr"`
	NumberOfDataArrays int         `xml:"NumberOfDataArrays,attr"`
	DataArrays         []dataArray `xml:"DataArray"`
}

type dataArray struct {
	Intent             string `xml:"Intent,attr"`
	DataType           string `xml:"DataType,attr"`
	ArrayIndexingOrder string `xml:"ArrayIndexingOrder,attr"`
	Dimensionality     int    `xml:"Dimensionality,attr"`
	Dim0               int    `xml:"Dim0,attr"`
	Encoding           string `xml:"Encoding,attr"`
	Endian             string `xml:"Endian,attr"`
	Data               string `xml:"Data"`
}

// ReadMetric reads the first data array of a GIFTI metric file as one scalar
// per vertex.
func ReadMetric(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file giftiFile
	if err := xml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("gifti: parse %s: %w", path, err)
	}
	if len(file.DataArrays) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDataArray, path)
	}

	values, err := decodeDataArray(file.DataArrays[0])
	if err != nil {
		return nil, fmt.Errorf("gifti: %s: %w", path, err)
	}
	return values, nil
}

// WriteMetric writes one scalar per vertex as a single FLOAT32 data array
// with GZipBase64Binary encoding.
func WriteMetric(path string, data []float32) error {
	payload := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(v))
	}

	var compressed strings.Builder
	b64 := base64.NewEncoder(base64.StdEncoding, &compressed)
	zw := gzip.NewWriter(b64)
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := b64.Close(); err != nil {
		return err
	}

	file := giftiFile{
		Version:            "1.0",
		NumberOfDataArrays: 1,
		DataArrays: []dataArray{{
			Intent:             "NIFTI_INTENT_NONE",
			DataType:           "NIFTI_TYPE_FLOAT32",
			ArrayIndexingOrder: "RowMajorOrder",
			Dimensionality:     1,
			Dim0:               len(data),
			Encoding:           "GZipBase64Binary",
			Endian:             "LittleEndian",
			Data:               compressed.String(),
		}},
	}

	out, err := xml.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xmlHeader), out...), 0o644)
}

// ReadText reads whitespace-separated scalars from a plain text file, one or
// more per line. Lines starting with '#' are skipped. This is the fallback
// for inputs not provided as GIFTI.
func ReadText(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var values []float32
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("gifti: parse %s: invalid value %q", path, field)
			}
			values = append(values, float32(v))
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("gifti: %s holds no values", path)
	}
	return values, nil
}

func decodeDataArray(da dataArray) ([]float32, error) {
	if da.Endian != "" && da.Endian != "LittleEndian" {
		return nil, fmt.Errorf("unsupported endianness %q", da.Endian)
	}

	switch da.Encoding {
	case "ASCII":
		return decodeASCII(da)
	case "Base64Binary":
		payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(da.Data))
		if err != nil {
			return nil, fmt.Errorf("decode base64 data: %w", err)
		}
		return decodeBinary(payload, da.DataType)
	case "GZipBase64Binary":
		payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(da.Data))
		if err != nil {
			return nil, fmt.Errorf("decode base64 data: %w", err)
		}
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("decompress data: %w", err)
		}
		defer zr.Close()
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompress data: %w", err)
		}
		return decodeBinary(raw, da.DataType)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", da.Encoding)
	}
}

func decodeASCII(da dataArray) ([]float32, error) {
	fields := strings.Fields(da.Data)
	values := make([]float32, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid ASCII value %q", field)
		}
		values = append(values, float32(v))
	}
	return values, nil
}

func decodeBinary(raw []byte, dataType string) ([]float32, error) {
	switch dataType {
	case "NIFTI_TYPE_FLOAT32":
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("float32 payload length %d not divisible by 4", len(raw))
		}
		values := make([]float32, len(raw)/4)
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return values, nil
	case "NIFTI_TYPE_INT32":
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("int32 payload length %d not divisible by 4", len(raw))
		}
		values := make([]float32, len(raw)/4)
		for i := range values {
			values[i] = float32(int32(binary.LittleEndian.Uint32(raw[4*i:])))
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unsupported data type %q", dataType)
	}
}
