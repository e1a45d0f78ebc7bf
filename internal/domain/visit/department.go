package visit

// Department identifies an outpatient department. The set is closed;
// every department carries its own token prefix and consultation fee.
type Department string

const (
	Gynecology      Department = "gynecology"
	Pediatrics      Department = "pediatrics"
	ENT             Department = "ent"
	Dental          Department = "dental"
	GeneralMedicine Department = "general-medicine"
	Cardiology      Department = "cardiology"
)

// DepartmentConfig is the static per-department setup. Not mutated at
// runtime.
type DepartmentConfig struct {
	Department      Department `json:"department"`
	DisplayName     string     `json:"display_name"`
	TokenPrefix     string     `json:"token_prefix"`
	ConsultationFee int        `json:"consultation_fee"`
	Consultant      string     `json:"consultant"`
	JuniorDoctor    string     `json:"junior_doctor"`
}

var departmentConfigs = map[Department]DepartmentConfig{
	Gynecology: {
		Department:      Gynecology,
		DisplayName:     "Gynecology",
		TokenPrefix:     "GYN",
		ConsultationFee: 500,
		Consultant:      "Dr. Sarah Mitchell",
		JuniorDoctor:    "Dr. Amy Lee",
	},
	Pediatrics: {
		Department:      Pediatrics,
		DisplayName:     "Pediatrics",
		TokenPrefix:     "PED",
		ConsultationFee: 400,
		Consultant:      "Dr. James Wilson",
		JuniorDoctor:    "Dr. Kevin Hart",
	},
	ENT: {
		Department:      ENT,
		DisplayName:     "ENT",
		TokenPrefix:     "ENT",
		ConsultationFee: 350,
		Consultant:      "Dr. Robert Brown",
		JuniorDoctor:    "Dr. Lisa Wong",
	},
	Dental: {
		Department:      Dental,
		DisplayName:     "Dental",
		TokenPrefix:     "DEN",
		ConsultationFee: 450,
		Consultant:      "Dr. Emily Chen",
		JuniorDoctor:    "Dr. Mike Ross",
	},
	GeneralMedicine: {
		Department:      GeneralMedicine,
		DisplayName:     "General Medicine",
		TokenPrefix:     "GEN",
		ConsultationFee: 300,
		Consultant:      "Dr. David Miller",
		JuniorDoctor:    "Dr. Sarah Parker",
	},
	Cardiology: {
		Department:      Cardiology,
		DisplayName:     "Cardiology",
		TokenPrefix:     "CARD",
		ConsultationFee: 800,
		Consultant:      "Dr. Steven Strange",
		JuniorDoctor:    "Dr. Peter Parker",
	},
}

// departmentOrder fixes a stable listing order for config queries.
var departmentOrder = []Department{
	Gynecology, Pediatrics, ENT, Dental, GeneralMedicine, Cardiology,
}

// ConfigFor returns the static configuration for a department.
func ConfigFor(d Department) (DepartmentConfig, bool) {
	cfg, ok := departmentConfigs[d]
	return cfg, ok
}

// DepartmentConfigs returns every department's configuration in stable
// order.
func DepartmentConfigs() []DepartmentConfig {
	configs := make([]DepartmentConfig, 0, len(departmentOrder))
	for _, d := range departmentOrder {
		configs = append(configs, departmentConfigs[d])
	}
	return configs
}
