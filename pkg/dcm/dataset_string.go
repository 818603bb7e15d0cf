package dcm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// String returns a string representation of the Element
func (e *Element) String() string {
	// Format: [Tag] [VR] (Name) ... : Value
	tagName := e.Tag.LookupName()
	if tagName != "" {
		tagName = " " + tagName
	}

	valStr := ""
	switch v := e.Value.(type) {
	case []*Dataset:
		valStr = fmt.Sprintf("Sequence (%d items)", len(v))
	case []uint16:
		if len(v) > 10 {
			valStr = fmt.Sprintf("Array of %d params", len(v))
		} else {
			valStr = fmt.Sprintf("%v", v)
		}
	case []float32:
		if len(v) > 16 {
			valStr = fmt.Sprintf("Array of %d floats", len(v))
		} else {
			valStr = fmt.Sprintf("%v", v)
		}
	case []byte:
		if len(v) > 20 {
			valStr = fmt.Sprintf("Binary Data (%d bytes)", len(v))
		} else {
			valStr = fmt.Sprintf("%v", v)
		}
	default:
		valStr = fmt.Sprintf("%v", v)
	}

	return fmt.Sprintf("[%s] %s%s: %s", e.Tag, e.VR, tagName, valStr)
}

// MarshalJSON returns a JSON representation of the Element
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Tag   string      `json:"tag"`
		Name  string      `json:"name,omitempty"`
		VR    string      `json:"vr"`
		Value interface{} `json:"value"`
	}{
		Tag:   e.Tag.String(),
		Name:  e.Tag.LookupName(),
		VR:    e.VR,
		Value: e.Value,
	})
}

// sortedTags returns the dataset's tags in ascending order
func (ds *Dataset) sortedTags() []Tag {
	keys := make([]Tag, 0, len(ds.Elements))
	for k := range ds.Elements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Group != keys[j].Group {
			return keys[i].Group < keys[j].Group
		}
		return keys[i].Element < keys[j].Element
	})
	return keys
}

// String returns a string representation of the Dataset with sequence items indented
func (ds *Dataset) String() string {
	if ds == nil {
		return "<nil>"
	}
	var b strings.Builder
	ds.writeIndented(&b, 0)
	return b.String()
}

func (ds *Dataset) writeIndented(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, k := range ds.sortedTags() {
		elem := ds.Elements[k]
		b.WriteString(indent)
		b.WriteString(elem.String())
		b.WriteString("\n")
		items, ok := elem.GetSequence()
		if !ok {
			continue
		}
		for i, item := range items {
			fmt.Fprintf(b, "%s  > item %d\n", indent, i+1)
			item.writeIndented(b, depth+2)
		}
	}
}

// MarshalJSON returns a JSON representation of the Dataset
// It returns a sorted array of Elements instead of a Map
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	keys := ds.sortedTags()
	elements := make([]*Element, 0, len(keys))
	for _, k := range keys {
		elements = append(elements, ds.Elements[k])
	}
	return json.Marshal(elements)
}
