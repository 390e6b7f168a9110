// Package form holds the editable records behind the recommendation forms.
package form

import "github.com/rbright/agrivoice/internal/i18n"

// Field describes one input of a form. Text fields accept free text; all
// other fields hold numeric strings.
type Field struct {
	Name  string
	Label i18n.Key
	Unit  string
	Text  bool
}

// Schema is the ordered field list of one form.
type Schema struct {
	Name   string
	Fields []Field
}

// Crop is the crop recommendation form.
var Crop = Schema{
	Name: "crop",
	Fields: []Field{
		{Name: "nitrogen", Label: i18n.KeyLabelNitrogen, Unit: "mg/kg"},
		{Name: "phosphorus", Label: i18n.KeyLabelPhosphorus, Unit: "mg/kg"},
		{Name: "potassium", Label: i18n.KeyLabelPotassium, Unit: "mg/kg"},
		{Name: "temperature", Label: i18n.KeyLabelTemperature, Unit: "°C"},
		{Name: "humidity", Label: i18n.KeyLabelHumidity, Unit: "%"},
		{Name: "ph", Label: i18n.KeyLabelPH, Unit: "0-14"},
		{Name: "rainfall", Label: i18n.KeyLabelRainfall, Unit: "mm"},
	},
}

// Fertilizer is the fertilizer prediction form. Field names follow the
// prediction endpoint, including its "phosphorous" spelling.
var Fertilizer = Schema{
	Name: "fertilizer",
	Fields: []Field{
		{Name: "temperature", Label: i18n.KeyLabelTemperature, Unit: "°C"},
		{Name: "humidity", Label: i18n.KeyLabelHumidity, Unit: "%"},
		{Name: "moisture", Label: i18n.KeyLabelMoisture, Unit: "%"},
		{Name: "soil_type", Label: i18n.KeyLabelSoilType, Text: true},
		{Name: "crop_type", Label: i18n.KeyLabelCropType, Text: true},
		{Name: "nitrogen", Label: i18n.KeyLabelNitrogen, Unit: "mg/kg"},
		{Name: "potassium", Label: i18n.KeyLabelPotassium, Unit: "mg/kg"},
		{Name: "phosphorous", Label: i18n.KeyLabelPhosphorus, Unit: "mg/kg"},
	},
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		names = append(names, field.Name)
	}
	return names
}
