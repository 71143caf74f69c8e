package fallback

import (
	"fmt"

	"github.com/themobileprof/symptomcheck/internal/classifier"
)

// Response represents a canned reply
type Response struct {
	Content string
	Action  string // "continue", "clarify", "follow_up", "emergency", "retry"
}

var (
	// Replies for turns that produce no assessment
	intentReplies = map[string]map[classifier.Intent]Response{
		"en": {
			classifier.IntentSmallTalk: {
				Content: "Hello! Tell me what symptoms you're having and I'll help you understand what might be going on.",
				Action:  "continue",
			},
			classifier.IntentGratitude: {
				Content: "You're welcome. Let me know if anything changes or if you notice new symptoms.",
				Action:  "continue",
			},
			classifier.IntentReset: {
				Content: "Okay, I've cleared your symptoms. What are you feeling now?",
				Action:  "continue",
			},
			classifier.IntentUnclear: {
				Content: "I didn't recognize any symptoms in that. Could you describe how you're feeling, for example \"I have a headache and a fever\"?",
				Action:  "clarify",
			},
		},
		"es": {
			classifier.IntentSmallTalk: {
				Content: "¡Hola! Cuéntame qué síntomas tienes y te ayudaré a entender qué podría estar pasando.",
				Action:  "continue",
			},
			classifier.IntentGratitude: {
				Content: "De nada. Avísame si algo cambia o si notas síntomas nuevos.",
				Action:  "continue",
			},
			classifier.IntentReset: {
				Content: "Listo, borré tus síntomas. ¿Qué sientes ahora?",
				Action:  "continue",
			},
			classifier.IntentUnclear: {
				Content: "No reconocí ningún síntoma. ¿Podrías describir cómo te sientes, por ejemplo \"tengo dolor de cabeza y fiebre\"?",
				Action:  "clarify",
			},
		},
		"fr": {
			classifier.IntentSmallTalk: {
				Content: "Bonjour ! Décrivez-moi vos symptômes et je vous aiderai à comprendre ce qui pourrait se passer.",
				Action:  "continue",
			},
			classifier.IntentGratitude: {
				Content: "Je vous en prie. Dites-moi si quelque chose change ou si vous remarquez de nouveaux symptômes.",
				Action:  "continue",
			},
			classifier.IntentReset: {
				Content: "D'accord, j'ai effacé vos symptômes. Que ressentez-vous maintenant ?",
				Action:  "continue",
			},
			classifier.IntentUnclear: {
				Content: "Je n'ai reconnu aucun symptôme. Pourriez-vous décrire ce que vous ressentez, par exemple « j'ai mal à la tête et de la fièvre » ?",
				Action:  "clarify",
			},
		},
	}

	clarifyPrompts = map[string]Response{
		"en": {Content: "Can you tell me more? Any other symptoms, how long it has lasted, or how bad it feels?", Action: "clarify"},
		"es": {Content: "¿Puedes contarme más? ¿Otros síntomas, cuánto tiempo lleva o qué tan fuerte es?", Action: "clarify"},
		"fr": {Content: "Pouvez-vous m'en dire plus ? D'autres symptômes, depuis combien de temps, ou quelle intensité ?", Action: "clarify"},
	}

	// %s is the symptom label
	followUpTemplates = map[string]string{
		"en": "Have you also noticed any %s?",
		"es": "¿También has notado %s?",
		"fr": "Avez-vous aussi remarqué : %s ?",
	}

	degradedResponses = map[string]Response{
		"en": {Content: "Detailed analysis is temporarily unavailable, so this assessment uses symptom matching only.", Action: "retry"},
		"es": {Content: "El análisis detallado no está disponible por ahora; esta evaluación usa solo la coincidencia de síntomas.", Action: "retry"},
		"fr": {Content: "L'analyse détaillée est temporairement indisponible ; cette évaluation repose uniquement sur la correspondance des symptômes.", Action: "retry"},
	}

	emergencyResponses = map[string]Response{
		"en": {
			Content: "Some of what you describe can be a sign of a medical emergency. Please call emergency services or go to the nearest emergency department now.",
			Action:  "emergency",
		},
		"es": {
			Content: "Algunos de tus síntomas pueden indicar una emergencia médica. Llama a los servicios de emergencia o acude ahora a la sala de urgencias más cercana.",
			Action:  "emergency",
		},
		"fr": {
			Content: "Certains de vos symptômes peuvent signaler une urgence médicale. Appelez les services d'urgence ou rendez-vous immédiatement aux urgences les plus proches.",
			Action:  "emergency",
		},
	}

	assessmentIntros = map[string]string{
		"en": "Based on what you've described, the most likely conditions are:",
		"es": "Según lo que describes, las condiciones más probables son:",
		"fr": "D'après ce que vous décrivez, les affections les plus probables sont :",
	}

	noMatchResponses = map[string]Response{
		"en": {Content: "I couldn't match these symptoms to a known condition yet.", Action: "clarify"},
		"es": {Content: "Todavía no pude relacionar estos síntomas con una condición conocida.", Action: "clarify"},
		"fr": {Content: "Je n'ai pas encore pu associer ces symptômes à une affection connue.", Action: "clarify"},
	}

	disclaimers = map[string]string{
		"en": "This is not a diagnosis. Please consult a healthcare professional.",
		"es": "Esto no es un diagnóstico. Consulta a un profesional de la salud.",
		"fr": "Ceci n'est pas un diagnostic. Veuillez consulter un professionnel de santé.",
	}
)

func lookup(table map[string]Response, language string) Response {
	if response, ok := table[language]; ok {
		return response
	}
	return table["en"]
}

// GetIntentResponse returns the reply for a turn classified as intent.
func GetIntentResponse(intent classifier.Intent, language string) Response {
	replies, ok := intentReplies[language]
	if !ok {
		replies = intentReplies["en"]
	}
	if response, ok := replies[intent]; ok {
		return response
	}
	return replies[classifier.IntentUnclear]
}

// GetClarifyPrompt returns the generic request for more detail
func GetClarifyPrompt(language string) Response {
	return lookup(clarifyPrompts, language)
}

// GetFollowUpPrompt asks whether the user also has symptom
func GetFollowUpPrompt(language, symptom string) Response {
	tmpl, ok := followUpTemplates[language]
	if !ok {
		tmpl = followUpTemplates["en"]
	}
	return Response{Content: fmt.Sprintf(tmpl, symptom), Action: "follow_up"}
}

// GetDegradedResponse explains that only deterministic scoring is running
func GetDegradedResponse(language string) Response {
	return lookup(degradedResponses, language)
}

// GetEmergencyResponse returns the escalation advice for red flags
func GetEmergencyResponse(language string) Response {
	return lookup(emergencyResponses, language)
}

// GetAssessmentIntro returns the sentence introducing ranked conditions
func GetAssessmentIntro(language string) string {
	if intro, ok := assessmentIntros[language]; ok {
		return intro
	}
	return assessmentIntros["en"]
}

// GetNoMatchResponse is used when symptoms are tracked but no condition
// references them
func GetNoMatchResponse(language string) Response {
	return lookup(noMatchResponses, language)
}

// GetDisclaimer returns the "not a diagnosis" notice
func GetDisclaimer(language string) string {
	if d, ok := disclaimers[language]; ok {
		return d
	}
	return disclaimers["en"]
}

// SupportedLanguages lists the languages with translated prompts
func SupportedLanguages() []string {
	return []string{"en", "es", "fr"}
}

// IsEmergencyAction checks if a response requires emergency handling
func IsEmergencyAction(r Response) bool {
	return r.Action == "emergency"
}
