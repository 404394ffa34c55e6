package anamnesis

// The five questionnaire sections hold the answers exactly as entered on
// the intake screens. Yes/no questions keep the free-text token
// ("sim"/"não") and are only normalized when the wire payload is built.

// GeneralHealth covers step 1 of the questionnaire.
type GeneralHealth struct {
	ChronicDisease        string `json:"chronic_disease"`
	ChronicDiseaseDetails string `json:"chronic_disease_details"`
	UsesMedication        string `json:"uses_medication"`
	MedicationDetails     string `json:"medication_details"`
	HasAllergies          string `json:"has_allergies"`
	AllergyDetails        string `json:"allergy_details"`
}

// PhototypeAssessment covers step 2: the Fitzpatrick questionnaire.
// Every answer is a free-text option from the screening form and is
// converted to its point value during payload mapping.
type PhototypeAssessment struct {
	SkinColor   string `json:"skin_color"`
	EyeColor    string `json:"eye_color"`
	HairColor   string `json:"hair_color"`
	Freckles    string `json:"freckles"`
	SunReaction string `json:"sun_reaction"`
	TanAbility  string `json:"tan_ability"`
	SunExposure string `json:"sun_exposure"`
}

// CancerHistory covers step 3.
type CancerHistory struct {
	PersonalHistory      string `json:"personal_history"`
	FamilyHistory        string `json:"family_history"`
	FamilyHistoryDetails string `json:"family_history_details"`
	PreviousTreatment    string `json:"previous_treatment"`
	TreatmentDetails     string `json:"treatment_details"`
}

// RiskFactors covers step 4: exposure and protection habits.
type RiskFactors struct {
	WorksOutdoors       string `json:"works_outdoors"`
	UsesSunscreen       string `json:"uses_sunscreen"`
	SunscreenFrequency  string `json:"sunscreen_frequency"`
	ProtectiveEquipment string `json:"protective_equipment"`
	Smoker              string `json:"smoker"`
	DrinksAlcohol       string `json:"drinks_alcohol"`
}

// LesionInvestigation covers step 5.
type LesionInvestigation struct {
	HasSuspiciousLesion string `json:"has_suspicious_lesion"`
	LesionChanged       string `json:"lesion_changed"`
	LesionBleeds        string `json:"lesion_bleeds"`
	LesionItches        string `json:"lesion_itches"`
	LesionGrew          string `json:"lesion_grew"`
	LesionDuration      string `json:"lesion_duration"`
}

// Record aggregates the five sections plus the wizard progress.
type Record struct {
	GeneralHealth       GeneralHealth       `json:"general_health"`
	Phototype           PhototypeAssessment `json:"phototype_assessment"`
	CancerHistory       CancerHistory       `json:"cancer_history"`
	RiskFactors         RiskFactors         `json:"risk_factors"`
	LesionInvestigation LesionInvestigation `json:"lesion_investigation"`
	Progress            Progress            `json:"progress"`
}

// NewRecord returns an empty anamnesis record at the first wizard step.
func NewRecord() Record {
	return Record{Progress: NewProgress()}
}
