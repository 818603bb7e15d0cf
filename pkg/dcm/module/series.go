package module

import (
	"strconv"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// SRDocumentSeriesModule represents the SR Document Series Module
type SRDocumentSeriesModule struct {
	Modality          string // always SR for reports
	SeriesInstanceUID string
	SeriesNumber      int
	SeriesDate        Date
	SeriesTime        Time
	SeriesDescription string
}

func (m *SRDocumentSeriesModule) ToTags() []IODElement {
	modality := m.Modality
	if modality == "" {
		modality = "SR"
	}
	elems := []IODElement{
		{Tag: tag.Modality, Value: modality},
		{Tag: tag.SeriesInstanceUID, Value: m.SeriesInstanceUID},
		{Tag: tag.SeriesNumber, Value: strconv.Itoa(m.SeriesNumber)},
		{Tag: tag.SeriesDescription, Value: m.SeriesDescription},
	}
	if !m.SeriesDate.IsZero() {
		elems = append(elems,
			IODElement{Tag: tag.SeriesDate, Value: m.SeriesDate.String()},
			IODElement{Tag: tag.SeriesTime, Value: m.SeriesTime.String()},
		)
	}
	return elems
}
