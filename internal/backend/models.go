package backend

// PatientRecord is the upstream patient as the EHR gateway returns it.
type PatientRecord struct {
	ServerID   string `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// RegisterPatientRequest creates a new upstream patient record.
type RegisterPatientRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// LesionRequest registers one lesion under an attendance.
type LesionRequest struct {
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}
