package anamnesis

// Payload is the flat wire schema the EHR gateway expects for an
// anamnesis submission. Group and key names are part of the backend
// contract and must not be renamed.
type Payload struct {
	GeneralHealth       GeneralHealthPayload       `json:"general_health"`
	Phototype           PhototypePayload           `json:"phototype_assessment"`
	CancerHistory       CancerHistoryPayload       `json:"skin_cancer_history"`
	RiskFactors         RiskFactorsPayload         `json:"risk_protection_factors"`
	LesionInvestigation LesionInvestigationPayload `json:"suspicious_lesion_investigation"`
}

type GeneralHealthPayload struct {
	HasChronicDisease     bool   `json:"has_chronic_disease"`
	ChronicDiseaseDetails string `json:"chronic_disease_details"`
	UsesMedication        bool   `json:"uses_medication"`
	MedicationDetails     string `json:"medication_details"`
	HasAllergies          bool   `json:"has_allergies"`
	AllergyDetails        string `json:"allergy_details"`
}

type PhototypePayload struct {
	SkinColor   int    `json:"skin_color"`
	EyeColor    int    `json:"eye_color"`
	HairColor   int    `json:"hair_color"`
	Freckles    int    `json:"freckles"`
	SunReaction int    `json:"sun_reaction"`
	TanAbility  int    `json:"tan_ability"`
	SunExposure int    `json:"sun_exposure"`
	TotalPoints int    `json:"total_points"`
	Phototype   string `json:"phototype"`
}

type CancerHistoryPayload struct {
	PersonalHistory      bool   `json:"personal_history"`
	FamilyHistory        bool   `json:"family_history"`
	FamilyHistoryDetails string `json:"family_history_details"`
	PreviousTreatment    bool   `json:"previous_treatment"`
	TreatmentDetails     string `json:"treatment_details"`
}

type RiskFactorsPayload struct {
	WorksOutdoors       bool   `json:"works_outdoors"`
	UsesSunscreen       bool   `json:"uses_sunscreen"`
	SunscreenFrequency  string `json:"sunscreen_frequency"`
	ProtectiveEquipment bool   `json:"protective_equipment"`
	Smoker              bool   `json:"smoker"`
	DrinksAlcohol       bool   `json:"drinks_alcohol"`
}

type LesionInvestigationPayload struct {
	HasSuspiciousLesion bool   `json:"has_suspicious_lesion"`
	LesionChanged       bool   `json:"lesion_changed"`
	LesionBleeds        bool   `json:"lesion_bleeds"`
	LesionItches        bool   `json:"lesion_itches"`
	LesionGrew          bool   `json:"lesion_grew"`
	LesionDuration      string `json:"lesion_duration"`
}

// BuildPayload maps the in-memory record to the wire schema, converting
// yes/no tokens to booleans and phototype answers to point values.
func BuildPayload(rec Record) Payload {
	pt := PhototypePayload{
		SkinColor:   PhototypePoints(rec.Phototype.SkinColor),
		EyeColor:    PhototypePoints(rec.Phototype.EyeColor),
		HairColor:   PhototypePoints(rec.Phototype.HairColor),
		Freckles:    PhototypePoints(rec.Phototype.Freckles),
		SunReaction: PhototypePoints(rec.Phototype.SunReaction),
		TanAbility:  PhototypePoints(rec.Phototype.TanAbility),
		SunExposure: PhototypePoints(rec.Phototype.SunExposure),
	}
	pt.TotalPoints = pt.SkinColor + pt.EyeColor + pt.HairColor +
		pt.Freckles + pt.SunReaction + pt.TanAbility + pt.SunExposure
	pt.Phototype = ClassifyPhototype(pt.TotalPoints)

	return Payload{
		GeneralHealth: GeneralHealthPayload{
			HasChronicDisease:     ParseYesNo(rec.GeneralHealth.ChronicDisease),
			ChronicDiseaseDetails: rec.GeneralHealth.ChronicDiseaseDetails,
			UsesMedication:        ParseYesNo(rec.GeneralHealth.UsesMedication),
			MedicationDetails:     rec.GeneralHealth.MedicationDetails,
			HasAllergies:          ParseYesNo(rec.GeneralHealth.HasAllergies),
			AllergyDetails:        rec.GeneralHealth.AllergyDetails,
		},
		Phototype: pt,
		CancerHistory: CancerHistoryPayload{
			PersonalHistory:      ParseYesNo(rec.CancerHistory.PersonalHistory),
			FamilyHistory:        ParseYesNo(rec.CancerHistory.FamilyHistory),
			FamilyHistoryDetails: rec.CancerHistory.FamilyHistoryDetails,
			PreviousTreatment:    ParseYesNo(rec.CancerHistory.PreviousTreatment),
			TreatmentDetails:     rec.CancerHistory.TreatmentDetails,
		},
		RiskFactors: RiskFactorsPayload{
			WorksOutdoors:       ParseYesNo(rec.RiskFactors.WorksOutdoors),
			UsesSunscreen:       ParseYesNo(rec.RiskFactors.UsesSunscreen),
			SunscreenFrequency:  rec.RiskFactors.SunscreenFrequency,
			ProtectiveEquipment: ParseYesNo(rec.RiskFactors.ProtectiveEquipment),
			Smoker:              ParseYesNo(rec.RiskFactors.Smoker),
			DrinksAlcohol:       ParseYesNo(rec.RiskFactors.DrinksAlcohol),
		},
		LesionInvestigation: LesionInvestigationPayload{
			HasSuspiciousLesion: ParseYesNo(rec.LesionInvestigation.HasSuspiciousLesion),
			LesionChanged:       ParseYesNo(rec.LesionInvestigation.LesionChanged),
			LesionBleeds:        ParseYesNo(rec.LesionInvestigation.LesionBleeds),
			LesionItches:        ParseYesNo(rec.LesionInvestigation.LesionItches),
			LesionGrew:          ParseYesNo(rec.LesionInvestigation.LesionGrew),
			LesionDuration:      rec.LesionInvestigation.LesionDuration,
		},
	}
}
