package locale

// Package locale resolves message keys to the human strings shown to
// applicants. The table is fixed; unknown keys fall back to the key itself
// so a missing entry is visible rather than silent.

var messages = map[string]string{
	"models.subscription.event.fill_application":     "votre dossier a été créé",
	"models.subscription.event.complete_application": "votre dossier a été complèté",
	"models.subscription.event.refuse_application":   "votre dossier a été renvoyé pour modification",
	"models.subscription.event.approve_application":  "votre dossier a été approuvé",
	"models.subscription.event.sign_convention":      "votre application est prête pour la mise en production",
	"models.subscription.event.deploy":               "votre application a été déployée",

	"models.enrollment.event.fill_application":     "le formulaire d'inscription a été défini",
	"models.enrollment.event.complete_application": "le formulaire d'inscription est complet",
	"models.enrollment.event.refuse_application":   "le formulaire d'inscription a été renvoyé pour modification",
	"models.enrollment.event.approve_application":  "le formulaire d'inscription a été approuvé",
	"models.enrollment.event.sign_convention":      "la convention du formulaire d'inscription a été signée",
	"models.enrollment.event.deploy":               "le formulaire d'inscription est en production",

	"validations.field_required":   "%s doit être rempli",
	"validations.document_missing": "Vous devez envoyer le document : %s",
}

// Resolve returns the string registered under key, or key itself when no
// entry exists.
func Resolve(key string) string {
	if s, ok := messages[key]; ok {
		return s
	}
	return key
}
