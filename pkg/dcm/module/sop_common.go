package module

import (
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// SOPCommonModule represents the SOP Common Module
type SOPCommonModule struct {
	SOPClassUID          string
	SOPInstanceUID       string
	SpecificCharacterSet string
	InstanceCreationDate Date
	InstanceCreationTime Time
}

func NewSOPCommonModule() SOPCommonModule {
	t := time.Now()
	return SOPCommonModule{
		SpecificCharacterSet: "ISO_IR 192", // UTF-8
		InstanceCreationDate: NewDate(t),
		InstanceCreationTime: NewTime(t),
	}
}

func (m *SOPCommonModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.SOPClassUID, Value: m.SOPClassUID},
		{Tag: tag.SOPInstanceUID, Value: m.SOPInstanceUID},
		{Tag: tag.SpecificCharacterSet, Value: m.SpecificCharacterSet},
		{Tag: tag.InstanceCreationDate, Value: m.InstanceCreationDate.String()},
		{Tag: tag.InstanceCreationTime, Value: m.InstanceCreationTime.String()},
	}
}
