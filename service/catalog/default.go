package catalog

import "github.com/viant/labflow/model"

func float(v float64) *float64 { return &v }

// Default returns a small built-in catalog.
func Default() *Service {
	ret, err := New(
		&model.Test{Code: "CBC", LOINC: "6690-2", Label: "Complete blood count (WBC)", Specimen: "EDTA blood", Method: "Impedance", Scale: model.ScaleQuantitative, Unit: "10^3/uL", RefMin: float(4.5), RefMax: float(11), Panel: "Hematology", Price: 180, Active: true},
		&model.Test{Code: "HCT", LOINC: "4544-3", Label: "Hematocrit", Specimen: "EDTA blood", Method: "Calculated", Scale: model.ScaleQuantitative, Unit: "%", RefMin: float(36), RefMax: float(50), Panel: "Hematology", Price: 60, Active: true},
		&model.Test{Code: "GLU", LOINC: "1558-6", Label: "Fasting glucose", Specimen: "NaF plasma", Method: "Hexokinase", Scale: model.ScaleQuantitative, Unit: "mg/dL", RefMin: float(70), RefMax: float(99), Panel: "Chemistry", Price: 90, Active: true},
		&model.Test{Code: "HBA1C", LOINC: "4548-4", Label: "Hemoglobin A1c", Specimen: "EDTA blood", Method: "HPLC", Scale: model.ScaleQuantitative, Unit: "%", RefMax: float(5.6), Panel: "Chemistry", Price: 350, Active: true},
		&model.Test{Code: "UPREG", LOINC: "2106-3", Label: "Urine pregnancy test", Specimen: "Urine", Method: "Immunochromatography", Scale: model.ScaleQualitative, ValueChoices: []string{"Positive", "Negative"}, Panel: "Urinalysis", Price: 120, Active: true},
		&model.Test{Code: "UGLU", LOINC: "5792-7", Label: "Urine glucose", Specimen: "Urine", Method: "Dipstick", Scale: model.ScaleQualitative, ValueChoices: []string{"Negative", "Trace", "1+", "2+", "3+"}, Panel: "Urinalysis", Price: 40, Active: false},
	)
	if err != nil {
		panic(err)
	}
	return ret
}
