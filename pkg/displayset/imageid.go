package displayset

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme prefixes every image ID
const Scheme = "dicom:"

// ImageID names an image. Frame 0 names the whole instance, otherwise
// the frame is added as a query, e.g. dicom:1.2.3?frame=2
func ImageID(sopInstanceUID string, frame int) string {
	if frame <= 0 {
		return Scheme + sopInstanceUID
	}
	return Scheme + sopInstanceUID + "?frame=" + strconv.Itoa(frame)
}

// ParseImageID splits an image ID into its SOP instance UID and frame,
// frame being 0 when the ID names no frame
func ParseImageID(id string) (sopInstanceUID string, frame int, err error) {
	rest, ok := strings.CutPrefix(id, Scheme)
	if !ok || rest == "" {
		return "", 0, fmt.Errorf("image id %q: missing %s prefix", id, Scheme)
	}
	uid, query, hasQuery := strings.Cut(rest, "?")
	if uid == "" {
		return "", 0, fmt.Errorf("image id %q: empty SOP instance UID", id)
	}
	if !hasQuery {
		return uid, 0, nil
	}
	value, ok := strings.CutPrefix(query, "frame=")
	if !ok {
		return "", 0, fmt.Errorf("image id %q: unknown query %q", id, query)
	}
	frame, err = strconv.Atoi(value)
	if err != nil || frame < 1 {
		return "", 0, fmt.Errorf("image id %q: bad frame %q", id, value)
	}
	return uid, frame, nil
}
