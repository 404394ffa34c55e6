package intake

// MutationKind identifies the kind of state change a dispatch applies.
// Observers subscribe to kinds, not to concrete mutation values.
type MutationKind string

const (
	// Auth mutations
	MutationAuthSignedIn  MutationKind = "auth.signed_in"
	MutationAuthSignedOut MutationKind = "auth.signed_out"

	// Patient mutations
	MutationPatientEdited   MutationKind = "patient.edited"
	MutationPatientResolved MutationKind = "patient.resolved"

	// Consent mutations
	MutationConsentPhotoAttached MutationKind = "consent.photo_attached"
	MutationConsentPhotoRemoved  MutationKind = "consent.photo_removed"
	MutationConsentAgreementSet  MutationKind = "consent.agreement_set"

	// Anamnesis mutations
	MutationAnamnesisSectionSaved MutationKind = "anamnesis.section_saved"
	MutationAnamnesisAdvanced     MutationKind = "anamnesis.advanced"
	MutationAnamnesisRetreated    MutationKind = "anamnesis.retreated"
	MutationAnamnesisReset        MutationKind = "anamnesis.reset"

	// Injury mutations. These never trigger revalidation: injuries are
	// optional and do not affect readiness.
	MutationInjuryAdded   MutationKind = "injury.added"
	MutationInjuryRemoved MutationKind = "injury.removed"
)

// RevalidationKinds is the set of mutation kinds that require the
// readiness result to be recomputed.
var RevalidationKinds = []MutationKind{
	MutationAuthSignedIn,
	MutationAuthSignedOut,
	MutationConsentPhotoAttached,
	MutationConsentPhotoRemoved,
	MutationConsentAgreementSet,
	MutationAnamnesisSectionSaved,
	MutationAnamnesisAdvanced,
	MutationAnamnesisRetreated,
	MutationAnamnesisReset,
}
