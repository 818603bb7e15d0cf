package displayset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
)

// ErrNoSOPInstance is returned for files that parse but name no SOP instance
var ErrNoSOPInstance = errors.New("displayset: file has no SOP instance UID")

// ReadInstance reads the header of one DICOM file, skipping its pixel data
func ReadInstance(path string) (Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return Instance{}, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Instance{}, fmt.Errorf("could not stat file: %w", err)
	}
	ds, err := dicom.Parse(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return Instance{}, fmt.Errorf("could not parse DICOM: %w", err)
	}

	inst := Instance{
		Path:                path,
		StudyInstanceUID:    text(ds, tag.StudyInstanceUID),
		SeriesInstanceUID:   text(ds, tag.SeriesInstanceUID),
		SOPClassUID:         text(ds, tag.SOPClassUID),
		SOPInstanceUID:      text(ds, tag.SOPInstanceUID),
		FrameOfReferenceUID: text(ds, tag.FrameOfReferenceUID),
		Modality:            text(ds, tag.Modality),
		SeriesDescription:   text(ds, tag.SeriesDescription),
		SeriesNumber:        integer(ds, tag.SeriesNumber),
		InstanceNumber:      integer(ds, tag.InstanceNumber),
		NumberOfFrames:      integer(ds, tag.NumberOfFrames),
	}
	if inst.SOPInstanceUID == "" {
		return Instance{}, ErrNoSOPInstance
	}
	if plane, ok := module.NewImagePlane(floats(ds, tag.ImagePositionPatient), floats(ds, tag.ImageOrientationPatient)); ok {
		inst.Plane = plane
	}
	return inst, nil
}

// LoadDir reads every DICOM file under dir and returns one image set per
// series, in the order each series was first found. Files that are not
// DICOM are skipped.
func LoadDir(ctx context.Context, dir string) ([]*ImageSet, error) {
	var (
		order    []string
		bySeries = map[string][]Instance{}
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		inst, err := ReadInstance(path)
		if err != nil {
			slog.DebugContext(ctx, "skipping file", "path", path, "error", err)
			return nil
		}
		if _, ok := bySeries[inst.SeriesInstanceUID]; !ok {
			order = append(order, inst.SeriesInstanceUID)
		}
		bySeries[inst.SeriesInstanceUID] = append(bySeries[inst.SeriesInstanceUID], inst)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}

	sets := make([]*ImageSet, 0, len(order))
	for _, series := range order {
		s := New(bySeries[series])
		slog.DebugContext(ctx, "series loaded", "series", series, "instances", len(s.instances), "unsupported", s.Unsupported())
		sets = append(sets, s)
	}
	return sets, nil
}

func values(ds dicom.Dataset, t tag.Tag) any {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return nil
	}
	return elem.Value.GetValue()
}

func text(ds dicom.Dataset, t tag.Tag) string {
	switch v := values(ds, t).(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

func integer(ds dicom.Dataset, t tag.Tag) int {
	switch v := values(ds, t).(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			n, _ := strconv.Atoi(strings.TrimSpace(v[0]))
			return n
		}
	}
	return 0
}

func floats(ds dicom.Dataset, t tag.Tag) []float64 {
	switch v := values(ds, t).(type) {
	case []float64:
		return v
	case []string:
		out := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}
