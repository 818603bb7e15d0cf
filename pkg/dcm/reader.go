package dcm

import (
	"bufio"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/transfer"
)

const undefinedLength = 0xFFFFFFFF

// ErrNotPart10 is returned when the input lacks the 128 byte preamble and DICM magic
var ErrNotPart10 = errors.New("dcm: invalid DICOM file: missing DICM magic")

// Reader reads DICOM Part-10 files, descending into sequences
type Reader struct {
	r              *bufio.Reader
	transferSyntax transfer.Syntax
	explicitVR     bool
	order          binary.ByteOrder
	skipPixelData  bool
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// SkipPixelData discards Pixel Data values instead of keeping their bytes
func SkipPixelData() ReaderOption {
	return func(r *Reader) { r.skipPixelData = true }
}

// NewReader creates a new reader
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{
		r:          bufio.NewReader(r),
		explicitVR: true,
		order:      binary.LittleEndian,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Parse reads a complete DICOM file
func Parse(r io.Reader, opts ...ReaderOption) (*Dataset, error) {
	return NewReader(r, opts...).ReadDataset()
}

// sub returns a reader over a bounded value that shares this reader's encoding
func (r *Reader) sub(data []byte) *Reader {
	return &Reader{
		r:              bufio.NewReader(bytes.NewReader(data)),
		transferSyntax: r.transferSyntax,
		explicitVR:     r.explicitVR,
		order:          r.order,
		skipPixelData:  r.skipPixelData,
	}
}

// ReadDataset reads the preamble, the file meta group and the dataset body
func (r *Reader) ReadDataset() (*Dataset, error) {
	ds := &Dataset{
		Elements: make(map[Tag]*Element),
	}

	preamble := make([]byte, 132)
	if _, err := io.ReadFull(r.r, preamble); err != nil {
		return nil, fmt.Errorf("failed to read preamble: %w", err)
	}
	if string(preamble[128:]) != "DICM" {
		return nil, ErrNotPart10
	}

	// Group 0002 (File Meta Information) is ALWAYS Explicit VR Little Endian
	for {
		peek, err := r.r.Peek(2)
		if err == io.EOF || (err == nil && binary.LittleEndian.Uint16(peek) != 0x0002) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file meta: %w", err)
		}
		t, err := r.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to read tag: %w", err)
		}
		elem, err := r.readElementWithTag(t)
		if err != nil {
			return nil, fmt.Errorf("failed to read element %v: %w", t, err)
		}
		ds.Elements[elem.Tag] = elem
	}

	// Default to Implicit VR if no File Meta was found
	r.transferSyntax = transfer.ImplicitVRLittleEndian
	if ts := ds.Text(tag.TransferSyntaxUID); ts != "" {
		r.transferSyntax = transfer.FromUID(ts)
	}
	r.explicitVR = r.transferSyntax.IsExplicitVR()
	r.order = binary.LittleEndian
	if !r.transferSyntax.IsLittleEndian() {
		r.order = binary.BigEndian
	}
	if r.transferSyntax.IsDeflated() {
		r.r = bufio.NewReader(flate.NewReader(r.r))
	}

	if err := r.readElements(ds, false); err != nil {
		return nil, err
	}
	return ds, nil
}

// readElements reads elements into ds until EOF, or until an item delimiter when delimited
func (r *Reader) readElements(ds *Dataset, delimited bool) error {
	for {
		t, err := r.readTag()
		if err == io.EOF && !delimited {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tag: %w", err)
		}
		if t == tag.ItemDelimitationItem {
			var vl uint32
			if err := binary.Read(r.r, r.order, &vl); err != nil {
				return err
			}
			if delimited {
				return nil
			}
			continue
		}

		elem, err := r.readElementWithTag(t)
		if err != nil {
			return fmt.Errorf("failed to read element %v: %w", t, err)
		}
		ds.Elements[elem.Tag] = elem
	}
}

// readElementWithTag reads a DICOM element after the tag has been read
func (r *Reader) readElementWithTag(t Tag) (*Element, error) {
	var vr string
	var vl uint32

	if r.explicitVR || t.IsGroup0002() {
		order := r.order
		if t.IsGroup0002() {
			order = binary.LittleEndian
		}
		vrBytes := make([]byte, 2)
		if _, err := io.ReadFull(r.r, vrBytes); err != nil {
			return nil, err
		}
		vr = string(vrBytes)

		if isLongVR(vr) {
			// 2 reserved bytes, then a 4-byte VL
			if _, err := r.r.Discard(2); err != nil {
				return nil, err
			}
			if err := binary.Read(r.r, order, &vl); err != nil {
				return nil, err
			}
		} else {
			var vl16 uint16
			if err := binary.Read(r.r, order, &vl16); err != nil {
				return nil, err
			}
			vl = uint32(vl16)
		}
	} else {
		// Implicit VR: VL is always 4 bytes, VR is determined by tag
		if err := binary.Read(r.r, r.order, &vl); err != nil {
			return nil, err
		}
		vr = GetVR(t)
		if vr == "UN" && vl == undefinedLength {
			vr = "SQ"
		}
	}

	value, err := r.readValue(t, vr, vl)
	if err != nil {
		return nil, err
	}

	return &Element{
		Tag:   t,
		VR:    vr,
		Value: value,
	}, nil
}

// readTag reads a DICOM tag
func (r *Reader) readTag() (Tag, error) {
	var group, element uint16
	if err := binary.Read(r.r, r.order, &group); err != nil {
		return Tag{}, err
	}
	if err := binary.Read(r.r, r.order, &element); err != nil {
		return Tag{}, err
	}
	return Tag{Group: group, Element: element}, nil
}

// readValue reads the value based on VR and VL
func (r *Reader) readValue(t Tag, vr string, vl uint32) (interface{}, error) {
	switch {
	case t == tag.PixelData && vl == undefinedLength:
		return nil, r.skipEncapsulated()
	case t == tag.PixelData && r.skipPixelData:
		_, err := r.r.Discard(int(vl))
		return nil, err
	case vr == "SQ":
		return r.readSequence(vl)
	case vr == "UN" && vl == undefinedLength:
		// undefined length UN is an implicit VR little endian sequence
		explicit, order := r.explicitVR, r.order
		r.explicitVR, r.order = false, binary.LittleEndian
		defer func() { r.explicitVR, r.order = explicit, order }()
		return r.readSequence(vl)
	case vl == undefinedLength:
		return nil, fmt.Errorf("undefined length not supported for VR %s", vr)
	}

	data := make([]byte, vl)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}
	order := r.order
	if t.IsGroup0002() {
		order = binary.LittleEndian
	}
	return parseValue(vr, data, order), nil
}

// readSequence reads the items of a sequence of defined or undefined length
func (r *Reader) readSequence(vl uint32) ([]*Dataset, error) {
	src := r
	if vl != undefinedLength {
		data := make([]byte, vl)
		if _, err := io.ReadFull(r.r, data); err != nil {
			return nil, err
		}
		src = r.sub(data)
	}

	items := []*Dataset{}
	for {
		t, err := src.readTag()
		if err == io.EOF && vl != undefinedLength {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading sequence item tag: %w", err)
		}
		var itemLen uint32
		if err := binary.Read(src.r, src.order, &itemLen); err != nil {
			return nil, fmt.Errorf("reading item length: %w", err)
		}

		switch t {
		case tag.SequenceDelimitationItem:
			return items, nil
		case tag.Item:
			item, err := src.readItem(itemLen)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			return nil, fmt.Errorf("expected item tag, got %v", t)
		}
	}
}

// readItem reads one sequence item into its own dataset
func (r *Reader) readItem(length uint32) (*Dataset, error) {
	item := &Dataset{Elements: make(map[Tag]*Element)}
	if length == undefinedLength {
		if err := r.readElements(item, true); err != nil {
			return nil, fmt.Errorf("reading item: %w", err)
		}
		return item, nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("reading item: %w", err)
	}
	if err := r.sub(data).readElements(item, false); err != nil {
		return nil, fmt.Errorf("reading item: %w", err)
	}
	return item, nil
}

// skipEncapsulated discards encapsulated pixel data fragments up to the sequence delimiter
func (r *Reader) skipEncapsulated() error {
	for {
		t, err := r.readTag()
		if err != nil {
			return fmt.Errorf("reading fragment tag: %w", err)
		}
		var length uint32
		if err := binary.Read(r.r, r.order, &length); err != nil {
			return err
		}
		if t == tag.SequenceDelimitationItem {
			return nil
		}
		if t != tag.Item {
			return fmt.Errorf("expected item tag, got %v", t)
		}
		if _, err := r.r.Discard(int(length)); err != nil {
			return fmt.Errorf("skipping fragment: %w", err)
		}
	}
}

// isLongVR returns true if VR uses 4-byte VL (OB, OD, OF, OL, OW, SQ, UC, UR, UT, UN)
func isLongVR(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UR", "UT", "UN":
		return true
	}
	return false
}

// parseValue converts raw bytes to a typed value based on VR.
// Numeric VRs with a single value decode to a scalar, otherwise to a slice.
func parseValue(vr string, data []byte, order binary.ByteOrder) interface{} {
	switch vr {
	case "AE", "AS", "CS", "DA", "DS", "DT", "IS", "LO", "LT", "PN", "SH", "ST", "TM", "UC", "UI", "UR", "UT":
		s := string(data)
		for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
			s = s[:len(s)-1]
		}
		return s
	case "US":
		values := make([]uint16, len(data)/2)
		for i := range values {
			values[i] = order.Uint16(data[i*2:])
		}
		if len(values) == 1 {
			return values[0]
		}
		return values
	case "UL":
		values := make([]uint32, len(data)/4)
		for i := range values {
			values[i] = order.Uint32(data[i*4:])
		}
		if len(values) == 1 {
			return values[0]
		}
		return values
	case "SS":
		if len(data) == 2 {
			return int16(order.Uint16(data))
		}
	case "SL":
		if len(data) == 4 {
			return int32(order.Uint32(data))
		}
	case "FL", "OF":
		values := make([]float32, len(data)/4)
		if err := binary.Read(bytes.NewReader(data), order, values); err != nil {
			return data
		}
		if vr == "FL" && len(values) == 1 {
			return values[0]
		}
		return values
	case "FD", "OD":
		values := make([]float64, len(data)/8)
		if err := binary.Read(bytes.NewReader(data), order, values); err != nil {
			return data
		}
		if vr == "FD" && len(values) == 1 {
			return values[0]
		}
		return values
	}
	return data
}
