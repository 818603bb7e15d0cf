// Package dcm reads and writes DICOM Part-10 datasets with full sequence support,
// which is what structured report content trees need.
//
//	ds, err := dcm.ReadFile("/path/to/report.dcm")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if dcm.IsSR(ds) {
//		root := ds.Sequence(tag.ContentSequence)
//		...
//	}
package dcm

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/transfer"
)

// TransferSyntax represents a DICOM transfer syntax
type TransferSyntax = transfer.Syntax

// Transfer syntax constants
const (
	ExplicitVRLittleEndian = transfer.ExplicitVRLittleEndian
	ImplicitVRLittleEndian = transfer.ImplicitVRLittleEndian
)

// Structured report SOP Class UIDs
const (
	BasicTextSRStorageUID       = "1.2.840.10008.5.1.4.1.1.88.11"
	EnhancedSRStorageUID        = "1.2.840.10008.5.1.4.1.1.88.22"
	ComprehensiveSRStorageUID   = "1.2.840.10008.5.1.4.1.1.88.33"
	Comprehensive3DSRStorageUID = "1.2.840.10008.5.1.4.1.1.88.34"
	ExtensibleSRStorageUID      = "1.2.840.10008.5.1.4.1.1.88.35"
)

// Image SOP Class UIDs commonly referenced by measurement reports
const (
	CTImageStorageUID         = "1.2.840.10008.5.1.4.1.1.2"
	EnhancedCTImageStorageUID = "1.2.840.10008.5.1.4.1.1.2.1"
	MRImageStorageUID         = "1.2.840.10008.5.1.4.1.1.4"
	EnhancedMRImageStorageUID = "1.2.840.10008.5.1.4.1.1.4.1"
	PETImageStorageUID        = "1.2.840.10008.5.1.4.1.1.128"
	DXImageStorageUID         = "1.2.840.10008.5.1.4.1.1.1.1"
	SecondaryCaptureUID       = "1.2.840.10008.5.1.4.1.1.7"
)

// ReadFile reads a DICOM file from disk
func ReadFile(path string, opts ...ReaderOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Parse(f, opts...)
}

// ReadBuffer reads a DICOM file from a byte slice
func ReadBuffer(data []byte, opts ...ReaderOption) (*Dataset, error) {
	return Parse(bytes.NewReader(data), opts...)
}

// IsSR returns true if the dataset is one of the structured report storage classes
func IsSR(ds *Dataset) bool {
	return checkSOPClass(ds,
		BasicTextSRStorageUID,
		EnhancedSRStorageUID,
		ComprehensiveSRStorageUID,
		Comprehensive3DSRStorageUID,
		ExtensibleSRStorageUID,
	)
}

// GetModality returns the modality string from the dataset
func GetModality(ds *Dataset) string {
	return strings.TrimSpace(ds.Text(tag.Modality))
}

// GetTransferSyntax returns the transfer syntax from the dataset
func GetTransferSyntax(ds *Dataset) TransferSyntax {
	if s := strings.TrimSpace(ds.Text(tag.TransferSyntaxUID)); s != "" {
		return transfer.FromUID(s)
	}
	return ExplicitVRLittleEndian
}

// GetNumberOfFrames returns the number of frames in the image
func GetNumberOfFrames(ds *Dataset) int {
	if elem, ok := ds.Get(tag.NumberOfFrames); ok {
		if v, ok := elem.GetInt(); ok && v > 0 {
			return v
		}
	}
	return 1 // Default to 1 if not specified
}

// GetInstanceNumber returns the instance number (0020,0013)
func GetInstanceNumber(ds *Dataset) int {
	if elem, ok := ds.Get(tag.InstanceNumber); ok {
		if v, ok := elem.GetInt(); ok {
			return v
		}
	}
	return 0
}

// GetSeriesDescription returns the series description (0008,103E)
func GetSeriesDescription(ds *Dataset) string {
	return strings.TrimSpace(ds.Text(tag.SeriesDescription))
}

// GetImagePositionPatient returns the position of the image origin, or nil when absent
func GetImagePositionPatient(ds *Dataset) []float64 {
	if elem, ok := ds.Get(tag.ImagePositionPatient); ok {
		if v, ok := elem.GetFloats(); ok && len(v) == 3 {
			return v
		}
	}
	return nil
}

// GetImageOrientationPatient returns the row and column direction cosines, or nil when absent
func GetImageOrientationPatient(ds *Dataset) []float64 {
	if elem, ok := ds.Get(tag.ImageOrientationPatient); ok {
		if v, ok := elem.GetFloats(); ok && len(v) == 6 {
			return v
		}
	}
	return nil
}

// GetPixelSpacing returns the pixel spacing in mm
func GetPixelSpacing(ds *Dataset) (row, col float64) {
	row, col = 1.0, 1.0 // Defaults
	if elem, ok := ds.Get(tag.PixelSpacing); ok {
		if v, ok := elem.GetFloats(); ok && len(v) == 2 {
			row, col = v[0], v[1]
		}
	}
	return
}

// Helper function to check SOP Class UID
func checkSOPClass(ds *Dataset, uids ...string) bool {
	s := strings.TrimSpace(ds.Text(tag.SOPClassUID))
	for _, uid := range uids {
		if s == uid {
			return true
		}
	}
	return false
}
