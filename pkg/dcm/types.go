package dcm

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// Dataset represents a complete DICOM dataset or a single sequence item
type Dataset struct {
	Elements map[Tag]*Element
}

// Element represents a single DICOM element
type Element struct {
	Tag   Tag
	VR    string      // Value Representation
	Value interface{} // Parsed value
}

// Tag alias to avoid duplication
type Tag = tag.Tag

// FindElement returns an element by tag
func (ds *Dataset) FindElement(group, element uint16) (*Element, bool) {
	elem, ok := ds.Elements[Tag{Group: group, Element: element}]
	return elem, ok
}

// Get returns an element by tag
func (ds *Dataset) Get(t Tag) (*Element, bool) {
	if ds == nil {
		return nil, false
	}
	elem, ok := ds.Elements[t]
	return elem, ok
}

// Text returns the trimmed string value of a tag, or "" when absent
func (ds *Dataset) Text(t Tag) string {
	elem, ok := ds.Get(t)
	if !ok {
		return ""
	}
	s, _ := elem.GetString()
	return s
}

// Sequence returns the items of a sequence tag, or nil when absent
func (ds *Dataset) Sequence(t Tag) []*Dataset {
	elem, ok := ds.Get(t)
	if !ok {
		return nil
	}
	items, _ := elem.GetSequence()
	return items
}

// GetString returns a string value from an element
func (elem *Element) GetString() (string, bool) {
	switch v := elem.Value.(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, "\\"), true
	}
	return "", false
}

// GetStrings returns the backslash separated values of a string element
func (elem *Element) GetStrings() ([]string, bool) {
	switch v := elem.Value.(type) {
	case []string:
		return v, true
	case string:
		if v == "" {
			return nil, true
		}
		return strings.Split(v, "\\"), true
	}
	return nil, false
}

// GetSequence returns the items of a sequence element
func (elem *Element) GetSequence() ([]*Dataset, bool) {
	items, ok := elem.Value.([]*Dataset)
	return items, ok
}

// GetUint16 returns a uint16 value from an element
func (elem *Element) GetUint16() (uint16, bool) {
	if u, ok := elem.Value.(uint16); ok {
		return u, true
	}
	return 0, false
}

// GetUint32 returns a uint32 value from an element
func (elem *Element) GetUint32() (uint32, bool) {
	if u, ok := elem.Value.(uint32); ok {
		return u, true
	}
	return 0, false
}

// GetInt returns an int value from an element
func (elem *Element) GetInt() (int, bool) {
	switch v := elem.Value.(type) {
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case int:
		return v, true
	case int32:
		return int(v), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	case []byte:
		if len(v) == 2 {
			return int(binary.LittleEndian.Uint16(v)), true
		}
		if len(v) == 4 {
			return int(binary.LittleEndian.Uint32(v)), true
		}
	}
	return 0, false
}

// GetInts returns a slice of ints from an element, including IS strings
func (elem *Element) GetInts() ([]int, bool) {
	switch v := elem.Value.(type) {
	case []uint16:
		res := make([]int, len(v))
		for i, val := range v {
			res[i] = int(val)
		}
		return res, true
	case []uint32:
		res := make([]int, len(v))
		for i, val := range v {
			res[i] = int(val)
		}
		return res, true
	case []int:
		return v, true
	case int:
		return []int{v}, true
	case string, []string:
		strs, _ := elem.GetStrings()
		res := make([]int, 0, len(strs))
		for _, s := range strs {
			i, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, false
			}
			res = append(res, i)
		}
		return res, true
	}
	return nil, false
}

// GetFloats returns a slice of float64s from an element, including DS strings
func (elem *Element) GetFloats() ([]float64, bool) {
	switch v := elem.Value.(type) {
	case []float32:
		res := make([]float64, len(v))
		for i, val := range v {
			res[i] = float64(val)
		}
		return res, true
	case []float64:
		return v, true
	case float32:
		return []float64{float64(v)}, true
	case float64:
		return []float64{v}, true
	case string, []string:
		strs, _ := elem.GetStrings()
		res := make([]float64, 0, len(strs))
		for _, s := range strs {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, false
			}
			res = append(res, f)
		}
		return res, true
	}
	return nil, false
}
