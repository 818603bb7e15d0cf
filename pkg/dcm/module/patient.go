package module

import "github.com/jpfielding/dicomsr.go/pkg/dcm/tag"

// PatientModule represents the Patient Module
type PatientModule struct {
	PatientName      PersonName
	PatientID        string
	PatientBirthDate Date
	PatientSex       string // M, F, O
}

func (m *PatientModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.PatientName, Value: m.PatientName.String()},
		{Tag: tag.PatientID, Value: m.PatientID},
		{Tag: tag.PatientBirthDate, Value: m.PatientBirthDate.String()},
		{Tag: tag.PatientSex, Value: m.PatientSex},
	}
}

// FromSource copies the patient attributes of an existing instance
func (m *PatientModule) FromSource(src TextSource) {
	m.PatientName = ParsePersonName(src.Text(tag.PatientName))
	m.PatientID = src.Text(tag.PatientID)
	m.PatientBirthDate = ParseDate(src.Text(tag.PatientBirthDate))
	m.PatientSex = src.Text(tag.PatientSex)
}
