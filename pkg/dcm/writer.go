package dcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/vr"
)

// WriteFile writes a dataset to a DICOM file
func WriteFile(path string, ds *Dataset) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Write(f, ds)
}

// Write writes a dataset to a writer using Explicit VR Little Endian.
// The file meta group length and version are computed here and need not be set.
func Write(w io.Writer, ds *Dataset) (int64, error) {
	cw := &CountingWriter{Writer: w}

	// Preamble (128 bytes 0x00) and DICM magic
	preamble := make([]byte, 132)
	copy(preamble[128:], "DICM")
	if _, err := cw.Write(preamble); err != nil {
		return cw.Count.Load(), err
	}

	meta := &Dataset{Elements: map[Tag]*Element{
		tag.FileMetaInformationVersion: {Tag: tag.FileMetaInformationVersion, VR: "OB", Value: []byte{0x00, 0x01}},
	}}
	body := &Dataset{Elements: map[Tag]*Element{}}
	for t, elem := range ds.Elements {
		switch {
		case t == tag.FileMetaInformationGroupLength:
		case t.IsGroup0002():
			meta.Elements[t] = elem
		default:
			body.Elements[t] = elem
		}
	}

	var metaBuf bytes.Buffer
	if _, err := writeDataSetBody(&metaBuf, meta); err != nil {
		return cw.Count.Load(), fmt.Errorf("failed to encode file meta: %w", err)
	}
	groupLength := &Element{Tag: tag.FileMetaInformationGroupLength, VR: "UL", Value: uint32(metaBuf.Len())}
	if _, err := writeElement(cw, groupLength); err != nil {
		return cw.Count.Load(), err
	}
	if _, err := cw.Write(metaBuf.Bytes()); err != nil {
		return cw.Count.Load(), err
	}

	if _, err := writeDataSetBody(cw, body); err != nil {
		return cw.Count.Load(), err
	}
	return cw.Count.Load(), nil
}

func writeDataSetBody(w io.Writer, ds *Dataset) (int64, error) {
	var elements []*Element
	for _, elem := range ds.Elements {
		elements = append(elements, elem)
	}

	sort.Slice(elements, func(i, j int) bool {
		t1 := elements[i].Tag
		t2 := elements[j].Tag
		if t1.Group != t2.Group {
			return t1.Group < t2.Group
		}
		return t1.Element < t2.Element
	})

	cw := &CountingWriter{Writer: w}
	for _, elem := range elements {
		if _, err := writeElement(cw, elem); err != nil {
			return cw.Count.Load(), fmt.Errorf("failed to write element %v: %w", elem.Tag, err)
		}
	}
	return cw.Count.Load(), nil
}

func writeElement(w io.Writer, elem *Element) (int, error) {
	cw := &CountingWriter{Writer: w}

	if err := binary.Write(cw, binary.LittleEndian, elem.Tag.Group); err != nil {
		return int(cw.Count.Load()), err
	}
	if err := binary.Write(cw, binary.LittleEndian, elem.Tag.Element); err != nil {
		return int(cw.Count.Load()), err
	}

	v := elem.VR
	if len(v) != 2 {
		slog.Warn("Invalid VR length, defaulting to UN", "vr", v, "tag", elem.Tag)
		v = "UN"
	}
	if _, err := cw.Write([]byte(v)); err != nil {
		return int(cw.Count.Load()), err
	}

	valBytes, isUndefinedLength, err := encodeValue(elem.Value, v)
	if err != nil {
		return int(cw.Count.Load()), err
	}

	if isLongVR(v) {
		// Reserved 2 bytes (0x00)
		if _, err := cw.Write([]byte{0, 0}); err != nil {
			return int(cw.Count.Load()), err
		}
		length := uint32(len(valBytes))
		if isUndefinedLength {
			length = undefinedLength
		}
		if err := binary.Write(cw, binary.LittleEndian, length); err != nil {
			return int(cw.Count.Load()), err
		}
	} else {
		if isUndefinedLength {
			return int(cw.Count.Load()), fmt.Errorf("undefined length not supported for Short VR %s", v)
		}
		if len(valBytes) > math.MaxUint16 {
			return int(cw.Count.Load()), fmt.Errorf("value of %d bytes too long for VR %s", len(valBytes), v)
		}
		if err := binary.Write(cw, binary.LittleEndian, uint16(len(valBytes))); err != nil {
			return int(cw.Count.Load()), err
		}
	}

	if _, err := cw.Write(valBytes); err != nil {
		return int(cw.Count.Load()), err
	}
	return int(cw.Count.Load()), nil
}

// pad makes a value even length with the VR's padding byte
func pad(b []byte, v string) []byte {
	if len(b)%2 != 0 {
		b = append(b, vr.VR(v).PadByte())
	}
	return b
}

// formatDS renders a decimal string within the 16 byte DS limit
func formatDS(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if len(s) > 16 {
		s = strconv.FormatFloat(f, 'g', 10, 64)
	}
	return s
}

// encodeValue returns encoded bytes and a bool indicating if undefined length used (sequences)
func encodeValue(v interface{}, vrName string) ([]byte, bool, error) {
	if v == nil {
		return []byte{}, false, nil
	}

	switch val := v.(type) {
	case []*Dataset:
		if vrName == "SQ" {
			b, err := encodeSequence(val)
			return b, true, err
		}
		return nil, false, fmt.Errorf("unexpected []*Dataset for VR %s", vrName)
	case string:
		return pad([]byte(val), vrName), false, nil
	case []string:
		return pad([]byte(strings.Join(val, "\\")), vrName), false, nil
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, val)
		return b, false, nil
	case []uint16:
		b := make([]byte, len(val)*2)
		for i, u := range val {
			binary.LittleEndian.PutUint16(b[i*2:], u)
		}
		return b, false, nil
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, val)
		return b, false, nil
	case int:
		switch vrName {
		case "IS":
			return pad([]byte(strconv.Itoa(val)), vrName), false, nil
		case "UL", "SL":
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(val))
			return b, false, nil
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(val))
		return b, false, nil
	case []int:
		if vrName != "IS" {
			return nil, false, fmt.Errorf("[]int for VR %s not implemented", vrName)
		}
		strs := make([]string, len(val))
		for i, n := range val {
			strs[i] = strconv.Itoa(n)
		}
		return pad([]byte(strings.Join(strs, "\\")), vrName), false, nil
	case float64:
		return encodeValue([]float64{val}, vrName)
	case []float64:
		switch vrName {
		case "DS":
			strs := make([]string, len(val))
			for i, f := range val {
				strs[i] = formatDS(f)
			}
			return pad([]byte(strings.Join(strs, "\\")), vrName), false, nil
		case "FD", "OD":
			b := make([]byte, len(val)*8)
			for i, f := range val {
				binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
			}
			return b, false, nil
		case "FL", "OF":
			b := make([]byte, len(val)*4)
			for i, f := range val {
				binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(f)))
			}
			return b, false, nil
		}
		return nil, false, fmt.Errorf("float64 for VR %s not implemented", vrName)
	case float32:
		return encodeValue([]float32{val}, vrName)
	case []float32:
		b := make([]byte, len(val)*4)
		for i, f := range val {
			binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
		}
		return b, false, nil
	case []byte:
		return pad(val, vrName), false, nil
	}

	return nil, false, fmt.Errorf("unsupported value type %T for VR %s", v, vrName)
}

func encodeSequence(datasets []*Dataset) ([]byte, error) {
	var buf bytes.Buffer

	for _, ds := range datasets {
		// Item Tag (FFFE, E000)
		buf.Write([]byte{0xFE, 0xFF, 0x00, 0xE0})

		var dsBuf bytes.Buffer
		if _, err := writeDataSetBody(&dsBuf, ds); err != nil {
			return nil, fmt.Errorf("failed to encode sequence item: %w", err)
		}

		// Item Length (Explicit)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(dsBuf.Len()))
		buf.Write(dsBuf.Bytes())
	}

	// Sequence Delimitation Item (FFFE, E0DD) with zero length
	buf.Write([]byte{0xFE, 0xFF, 0xDD, 0xE0, 0x00, 0x00, 0x00, 0x00})

	return buf.Bytes(), nil
}

// CountingWriter counts bytes written through it
type CountingWriter struct {
	Count  atomic.Int64
	Writer io.Writer
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	if err == nil {
		c.Count.Add(int64(n))
	}
	return n, err
}
