package module

import (
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// GeneralStudyModule represents the General Study Module
type GeneralStudyModule struct {
	StudyInstanceUID string
	StudyDate        Date
	StudyTime        Time
	StudyID          string
	AccessionNumber  string
	StudyDescription string
}

func NewGeneralStudyModule() GeneralStudyModule {
	t := time.Now()
	return GeneralStudyModule{
		StudyDate: NewDate(t),
		StudyTime: NewTime(t),
	}
}

func (m *GeneralStudyModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.StudyInstanceUID, Value: m.StudyInstanceUID},
		{Tag: tag.StudyDate, Value: m.StudyDate.String()},
		{Tag: tag.StudyTime, Value: m.StudyTime.String()},
		{Tag: tag.StudyID, Value: m.StudyID},
		{Tag: tag.AccessionNumber, Value: m.AccessionNumber},
		{Tag: tag.StudyDescription, Value: m.StudyDescription},
	}
}

// FromSource copies the study attributes of an existing instance so a report joins its study
func (m *GeneralStudyModule) FromSource(src TextSource) {
	m.StudyInstanceUID = src.Text(tag.StudyInstanceUID)
	m.StudyDate = ParseDate(src.Text(tag.StudyDate))
	m.StudyTime = ParseTime(src.Text(tag.StudyTime))
	m.StudyID = src.Text(tag.StudyID)
	m.AccessionNumber = src.Text(tag.AccessionNumber)
	m.StudyDescription = src.Text(tag.StudyDescription)
}
