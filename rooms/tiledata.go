package rooms

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// decodeLayerData returns the cells of a tile layer. ok is false when the
// layer has no data at all or it could not be decoded. A chunks array, even
// an empty one, counts as data.
func decodeLayerData(d *layerDoc) ([]uint32, bool, error) {
	if d.Chunks != nil {
		var cells []uint32
		for i, c := range *d.Chunks {
			data, err := decodeCells(c.Data, d.Encoding, d.Compression)
			if err != nil {
				return nil, false, fmt.Errorf("chunk %d: %w", i, err)
			}
			cells = append(cells, data...)
		}
		return cells, true, nil
	}
	if len(d.Data) == 0 || string(d.Data) == "null" {
		return nil, false, nil
	}
	cells, err := decodeCells(d.Data, d.Encoding, d.Compression)
	if err != nil {
		return nil, false, err
	}
	return cells, true, nil
}

func decodeCells(raw json.RawMessage, encoding, compression string) ([]uint32, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var cells []uint32
		if err := json.Unmarshal(trimmed, &cells); err != nil {
			return nil, fmt.Errorf("cell array: %w", err)
		}
		return cells, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("cell data: %w", err)
	}
	if encoding != "base64" {
		return nil, fmt.Errorf("unsupported data encoding %q", encoding)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}

	var r io.Reader = bytes.NewReader(b)
	switch compression {
	case "":
	case "zlib":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		r = zr
	case "gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}

	b, err = io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cell data length %d is not a multiple of 4", len(b))
	}
	cells := make([]uint32, len(b)/4)
	for i := range cells {
		cells[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return cells, nil
}
