package knowledge

// Default builds the bundled knowledge base.
func Default() (*Base, error) {
	return New(DefaultSymptoms(), DefaultConditions())
}

// DefaultSymptoms returns the bundled symptom vocabulary.
func DefaultSymptoms() []SymptomDefinition {
	return []SymptomDefinition{
		{Name: "headache", Category: "neurological", DefaultWeight: 2,
			Aliases:   []string{"head ache", "head pain", "head hurts", "cephalgia"},
			Questions: []string{"Is the headache throbbing or more like pressure?", "Where exactly is the headache located?", "Does light or sound make it worse?"}},
		{Name: "fever", Category: "systemic", DefaultWeight: 3,
			Aliases:   []string{"high temperature", "temperature", "febrile", "feverish", "burning up", "pyrexia"},
			Questions: []string{"Do you know your current temperature?", "Are you having chills or sweating?", "Have you taken anything to bring the fever down?"}},
		{Name: "cough", Category: "respiratory", DefaultWeight: 2,
			Aliases:   []string{"coughing", "hacking", "dry cough", "wet cough", "productive cough"},
			Questions: []string{"Is it a dry cough or are you bringing anything up?", "Does the cough get worse at night?"}},
		{Name: "fatigue", Category: "systemic", DefaultWeight: 1,
			Aliases:   []string{"tired", "tiredness", "exhausted", "exhaustion", "worn out", "lethargic", "drained", "weakness"},
			Questions: []string{"How long have you been feeling tired?", "How has your sleep been?"}},
		{Name: "body_ache", Category: "musculoskeletal", DefaultWeight: 2,
			Aliases:   []string{"bodyache", "body aches", "aching all over", "muscle ache", "muscle aches", "muscle pain", "sore muscles", "myalgia"},
			Questions: []string{"Is the aching all over or in specific muscles?"}},
		{Name: "sore_throat", Category: "respiratory", DefaultWeight: 2,
			Aliases:   []string{"throat pain", "scratchy throat", "painful swallowing", "throat hurts", "throat ache"},
			Questions: []string{"Do you have any difficulty swallowing?", "Have you noticed white patches in your throat?"}},
		{Name: "runny_nose", Category: "respiratory", DefaultWeight: 1,
			Aliases: []string{"stuffy nose", "blocked nose", "nasal congestion", "congestion", "sniffles"}},
		{Name: "sneezing", Category: "respiratory", DefaultWeight: 1,
			Aliases: []string{"sneeze", "sneezes", "sneezy"}},
		{Name: "shortness_of_breath", Category: "respiratory", DefaultWeight: 4, Emergency: true,
			Aliases:   []string{"short of breath", "can't breathe", "cant breathe", "breathless", "winded", "difficulty breathing", "trouble breathing", "hard to breathe"},
			Questions: []string{"Does the breathlessness happen at rest or only with activity?", "How suddenly did it start?"}},
		{Name: "chest_pain", Category: "cardiovascular", DefaultWeight: 4, Emergency: true,
			Aliases:   []string{"chest ache", "chest tightness", "chest pressure", "tight chest", "pain in my chest"},
			Questions: []string{"Is the chest pain sharp or crushing?", "Does it spread to your arm, jaw or back?", "Does it get worse with effort?"}},
		{Name: "nausea", Category: "gastrointestinal", DefaultWeight: 1,
			Aliases:   []string{"nauseous", "nauseated", "queasy", "upset stomach", "feeling sick"},
			Questions: []string{"Have you actually vomited or only felt sick?", "Is it related to eating?"}},
		{Name: "vomiting", Category: "gastrointestinal", DefaultWeight: 2,
			Aliases:   []string{"vomit", "vomited", "throwing up", "throw up", "threw up", "puking"},
			Questions: []string{"How often have you vomited?", "Have you noticed any blood?"}},
		{Name: "diarrhea", Category: "gastrointestinal", DefaultWeight: 2,
			Aliases:   []string{"diarrhoea", "loose stools", "runny stools", "loose bowels"},
			Questions: []string{"How many times a day?", "Have you eaten anything unusual or travelled recently?"}},
		{Name: "abdominal_pain", Category: "gastrointestinal", DefaultWeight: 2,
			Aliases:   []string{"stomach pain", "stomach ache", "stomachache", "belly ache", "belly pain", "tummy ache", "abdominal cramps", "stomach cramps"},
			Questions: []string{"Where exactly in your abdomen is the pain?", "Is it sharp or cramping?"}},
		{Name: "dizziness", Category: "neurological", DefaultWeight: 1,
			Aliases:   []string{"dizzy", "lightheaded", "light headed", "vertigo", "room spinning", "unsteady"},
			Questions: []string{"Does the room spin or do you feel faint?", "Does standing up trigger it?"}},
		{Name: "rash", Category: "dermatological", DefaultWeight: 2,
			Aliases:   []string{"skin rash", "red spots", "hives", "skin bumps", "blotches"},
			Questions: []string{"Where on your body is the rash?", "Is it itchy or painful?"}},
		{Name: "itching", Category: "dermatological", DefaultWeight: 1,
			Aliases: []string{"itchy", "itch", "itchiness"}},
		{Name: "chills", Category: "systemic", DefaultWeight: 1,
			Aliases: []string{"shivering", "shivery", "shivers", "the shakes"}},
		{Name: "joint_pain", Category: "musculoskeletal", DefaultWeight: 2,
			Aliases:   []string{"joint ache", "joints ache", "stiff joints", "joint stiffness", "aching joints"},
			Questions: []string{"Which joints are affected?", "Is there stiffness in the morning?"}},
		{Name: "back_pain", Category: "musculoskeletal", DefaultWeight: 2,
			Aliases: []string{"backache", "back ache", "lower back pain", "sore back", "back hurts"}},
		{Name: "loss_of_taste", Category: "neurological", DefaultWeight: 3,
			Aliases: []string{"loss of smell", "can't taste", "cant taste", "can't smell", "cant smell", "lost my sense of taste", "lost my sense of smell"}},
		{Name: "sensitivity_to_light", Category: "neurological", DefaultWeight: 1,
			Aliases: []string{"light sensitivity", "photophobia", "light hurts my eyes", "sensitive to light"}},
		{Name: "wheezing", Category: "respiratory", DefaultWeight: 2,
			Aliases: []string{"wheeze", "wheezy", "whistling breath"}},
		{Name: "palpitations", Category: "cardiovascular", DefaultWeight: 2,
			Aliases: []string{"racing heart", "heart racing", "pounding heart", "heart pounding", "heart palpitations", "fluttering heart"}},
		{Name: "nervousness", Category: "psychological", DefaultWeight: 1,
			Aliases: []string{"anxious", "nervous", "on edge", "panicky", "worried sick"}},
		{Name: "sweating", Category: "systemic", DefaultWeight: 1,
			Aliases: []string{"sweaty", "sweats", "night sweats", "sweating profusely"}},
		{Name: "thirst", Category: "systemic", DefaultWeight: 1,
			Aliases: []string{"thirsty", "very thirsty", "dry mouth"}},
		{Name: "pain", Category: "general", DefaultWeight: 1,
			Aliases:   []string{"ache", "aching", "hurts", "hurting", "sore", "soreness"},
			Questions: []string{"Where exactly does it hurt?", "On a scale of 1 to 10, how bad is the pain?"}},
	}
}

// DefaultConditions returns the bundled condition records.
func DefaultConditions() []ConditionRecord {
	return []ConditionRecord{
		{Name: "flu", DisplayName: "Influenza", Category: "respiratory", Severity: "moderate",
			Description: "Viral infection affecting the respiratory system",
			Symptoms:    []WeightedSymptom{{"fever", 3}, {"cough", 2}, {"fatigue", 1}, {"body_ache", 2}},
			Recommendations: Recommendations{
				Immediate:  []string{"Rest and stay home to avoid spreading the infection"},
				SelfCare:   []string{"Drink plenty of fluids", "Use fever reducers as directed"},
				Escalation: []string{"See a doctor if breathing becomes difficult", "Seek care if fever lasts more than 3 days"},
			}},
		{Name: "common_cold", DisplayName: "Common Cold", Category: "respiratory", Severity: "mild",
			Description: "Viral upper respiratory tract infection",
			Symptoms:    []WeightedSymptom{{"runny_nose", 3}, {"sneezing", 2}, {"sore_throat", 2}, {"cough", 1}, {"fatigue", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Rest"},
				SelfCare:   []string{"Fluids", "Over-the-counter cold remedies", "Warm salt water gargles"},
				Escalation: []string{"See a doctor if symptoms last longer than 10 days"},
			}},
		{Name: "covid19", DisplayName: "COVID-19", Category: "respiratory", Severity: "moderate",
			Description: "Coronavirus disease",
			Symptoms:    []WeightedSymptom{{"fever", 2}, {"cough", 2}, {"loss_of_taste", 3}, {"shortness_of_breath", 2}, {"fatigue", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Isolate from others", "Take a test if available"},
				SelfCare:   []string{"Monitor symptoms", "Rest and hydrate"},
				Escalation: []string{"Seek medical care immediately if breathing becomes difficult"},
			}},
		{Name: "pneumonia", DisplayName: "Pneumonia", Category: "respiratory", Severity: "severe",
			Description: "Lung infection causing inflammation",
			Symptoms:    []WeightedSymptom{{"cough", 3}, {"fever", 2}, {"shortness_of_breath", 3}, {"chest_pain", 2}, {"chills", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"See a doctor promptly"},
				SelfCare:   []string{"Rest", "Fluids"},
				Escalation: []string{"Go to emergency care if lips turn blue or breathing is severely laboured"},
			}},
		{Name: "strep_throat", DisplayName: "Strep Throat", Category: "respiratory", Severity: "moderate",
			Description: "Bacterial throat infection",
			Symptoms:    []WeightedSymptom{{"sore_throat", 3}, {"fever", 2}, {"headache", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Book a throat swab with a clinician"},
				SelfCare:   []string{"Warm fluids", "Pain relief as directed"},
				Escalation: []string{"Seek care if you cannot swallow liquids"},
			}},
		{Name: "migraine", DisplayName: "Migraine", Category: "neurological", Severity: "moderate",
			Description: "Recurrent severe headache disorder",
			Symptoms:    []WeightedSymptom{{"headache", 3}, {"sensitivity_to_light", 2}, {"nausea", 2}, {"dizziness", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Rest in a dark, quiet room"},
				SelfCare:   []string{"Pain medication early in an attack", "Keep a trigger diary"},
				Escalation: []string{"Seek emergency care for a sudden, worst-ever headache"},
			}},
		{Name: "tension_headache", DisplayName: "Tension Headache", Category: "neurological", Severity: "mild",
			Description: "Headache caused by muscle tension and stress",
			Symptoms:    []WeightedSymptom{{"headache", 3}, {"pain", 1}, {"fatigue", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Take a break from screens"},
				SelfCare:   []string{"Gentle neck stretches", "Regular sleep"},
				Escalation: []string{"See a doctor if headaches become frequent"},
			}},
		{Name: "food_poisoning", DisplayName: "Food Poisoning", Category: "gastrointestinal", Severity: "moderate",
			Description: "Illness from contaminated food",
			Symptoms:    []WeightedSymptom{{"nausea", 2}, {"vomiting", 3}, {"diarrhea", 3}, {"abdominal_pain", 2}, {"fever", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Stop eating the suspected food"},
				SelfCare:   []string{"Small sips of oral rehydration solution", "Bland food once vomiting settles"},
				Escalation: []string{"Seek care for blood in stool or signs of dehydration"},
			}},
		{Name: "gastritis", DisplayName: "Gastritis", Category: "gastrointestinal", Severity: "mild",
			Description: "Inflammation of the stomach lining",
			Symptoms:    []WeightedSymptom{{"abdominal_pain", 3}, {"nausea", 2}, {"vomiting", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Avoid alcohol and spicy food"},
				SelfCare:   []string{"Smaller meals", "Antacids as directed"},
				Escalation: []string{"See a doctor if pain persists beyond a week"},
			}},
		{Name: "asthma", DisplayName: "Asthma", Category: "respiratory", Severity: "moderate",
			Description: "Chronic inflammation of the airways",
			Symptoms:    []WeightedSymptom{{"wheezing", 3}, {"shortness_of_breath", 3}, {"cough", 2}, {"chest_pain", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Use your reliever inhaler if prescribed"},
				SelfCare:   []string{"Avoid known triggers"},
				Escalation: []string{"Call emergency services if the inhaler does not help"},
			}},
		{Name: "angina", DisplayName: "Angina", Category: "cardiovascular", Severity: "severe",
			Description: "Chest pain from reduced blood flow to the heart",
			Symptoms:    []WeightedSymptom{{"chest_pain", 3}, {"shortness_of_breath", 2}, {"sweating", 1}, {"nausea", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Stop any activity and rest"},
				SelfCare:   []string{"Keep a record of when pain occurs"},
				Escalation: []string{"Call emergency services if pain lasts more than a few minutes"},
			}},
		{Name: "anxiety_disorder", DisplayName: "Anxiety Disorder", Category: "psychological", Severity: "mild",
			Description: "Mental health condition with physical symptoms",
			Symptoms:    []WeightedSymptom{{"nervousness", 3}, {"palpitations", 2}, {"dizziness", 1}, {"shortness_of_breath", 1}, {"sweating", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Slow, paced breathing"},
				SelfCare:   []string{"Relaxation techniques", "Limit caffeine"},
				Escalation: []string{"Speak with a healthcare provider about counselling"},
			}},
		{Name: "allergies", DisplayName: "Allergic Rhinitis", Category: "immunological", Severity: "mild",
			Description: "Immune reaction to airborne allergens",
			Symptoms:    []WeightedSymptom{{"sneezing", 3}, {"runny_nose", 2}, {"itching", 2}, {"rash", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Avoid the suspected allergen"},
				SelfCare:   []string{"Antihistamines as directed"},
				Escalation: []string{"Call emergency services for swelling of the face or throat"},
			}},
		{Name: "dehydration", DisplayName: "Dehydration", Category: "systemic", Severity: "moderate",
			Description: "The body has lost more fluid than it takes in",
			Symptoms:    []WeightedSymptom{{"thirst", 3}, {"dizziness", 2}, {"headache", 1}, {"fatigue", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Drink water or oral rehydration solution"},
				SelfCare:   []string{"Rest somewhere cool"},
				Escalation: []string{"Seek care for confusion or no urination for 8 hours"},
			}},
		{Name: "muscle_strain", DisplayName: "Muscle Strain", Category: "musculoskeletal", Severity: "mild",
			Description: "Overstretched or torn muscle fibres",
			Symptoms:    []WeightedSymptom{{"back_pain", 3}, {"pain", 2}, {"body_ache", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Rest the affected area"},
				SelfCare:   []string{"Ice for the first 48 hours, then heat", "Gentle stretching"},
				Escalation: []string{"See a doctor for numbness or weakness in the legs"},
			}},
		{Name: "arthritis", DisplayName: "Arthritis", Category: "musculoskeletal", Severity: "moderate",
			Description: "Inflammation of one or more joints",
			Symptoms:    []WeightedSymptom{{"joint_pain", 3}, {"pain", 1}, {"fatigue", 1}},
			Recommendations: Recommendations{
				Immediate:  []string{"Rest painful joints"},
				SelfCare:   []string{"Low-impact exercise", "Warm compresses"},
				Escalation: []string{"See a doctor for hot, swollen joints"},
			}},
		{Name: "eczema", DisplayName: "Eczema", Category: "dermatological", Severity: "mild",
			Description: "Chronic itchy inflammation of the skin",
			Symptoms:    []WeightedSymptom{{"itching", 3}, {"rash", 3}},
			Recommendations: Recommendations{
				Immediate:  []string{"Avoid scratching"},
				SelfCare:   []string{"Fragrance-free moisturiser", "Mild soaps"},
				Escalation: []string{"See a doctor if the rash weeps or crusts"},
			}},
	}
}
