package module

import "github.com/jpfielding/dicomsr.go/pkg/dcm/tag"

// GeneralEquipmentModule represents the General Equipment Module
type GeneralEquipmentModule struct {
	Manufacturer      string
	InstitutionName   string
	ManufacturerModel string
	SoftwareVersions  string
}

func (m *GeneralEquipmentModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.Manufacturer, Value: m.Manufacturer},
		{Tag: tag.InstitutionName, Value: m.InstitutionName},
		{Tag: tag.ManufacturerModelName, Value: m.ManufacturerModel},
		{Tag: tag.SoftwareVersions, Value: m.SoftwareVersions},
	}
}
