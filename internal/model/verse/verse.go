package verse

import "fmt"

// Verse is one shloka of the Bhagavad Gita together with retrieval tags.
type Verse struct {
	ID              string   `json:"id"`
	Chapter         int      `json:"chapter"`
	Verse           int      `json:"verse"`
	Shloka          string   `json:"shloka"`
	Transliteration string   `json:"transliteration"`
	EngMeaning      string   `json:"eng_meaning"`
	Themes          []string `json:"themes,omitempty"`
	Keywords        []string `json:"-"`
	Emotions        []string `json:"-"`
}

// Ref formats the verse as "chapter.verse".
func (v Verse) Ref() string {
	return fmt.Sprintf("%d.%d", v.Chapter, v.Verse)
}

// FallbackID names the verse returned when retrieval finds nothing.
const FallbackID = "BG2.47"

// Seed returns the built-in verse corpus.
func Seed() []Verse {
	return []Verse{
		{
			ID:              "BG2.47",
			Chapter:         2,
			Verse:           47,
			Shloka:          "कर्मण्येवाधिकारस्ते मा फलेषु कदाचन। मा कर्मफलहेतुर्भूर्मा ते सङ्गोऽस्त्वकर्मणि॥",
			Transliteration: "karmaṇy-evādhikāras te mā phaleṣhu kadāchana mā karma-phala-hetur bhūr mā te saṅgo 'stv akarmaṇi",
			EngMeaning:      "You have a right to perform your prescribed duty, but not to the fruits of action. Never consider yourself the cause of the results of your activities, and never be attached to not doing your duty.",
			Themes:          []string{"karma yoga", "detachment"},
			Keywords:        []string{"work", "job", "career", "result", "outcome", "exam", "success", "fail", "duty", "action", "effort", "karma"},
			Emotions:        []string{"nervousness", "fear", "disappointment"},
		},
		{
			ID:              "BG2.14",
			Chapter:         2,
			Verse:           14,
			Shloka:          "मात्रास्पर्शास्तु कौन्तेय शीतोष्णसुखदुःखदाः। आगमापायिनोऽनित्यास्तांस्तितिक्षस्व भारत॥",
			Transliteration: "mātrā-sparśhās tu kaunteya śhītoṣhṇa-sukha-duḥkha-dāḥ āgamāpāyino 'nityās tans titikṣhasva bhārata",
			EngMeaning:      "O son of Kunti, the contact between the senses and the sense objects gives rise to fleeting perceptions of happiness and distress. These are non-permanent, and come and go like the winter and summer seasons. O descendant of Bharat, one must learn to tolerate them without being disturbed.",
			Themes:          []string{"endurance", "impermanence"},
			Keywords:        []string{"pain", "suffering", "tolerate", "endure", "hard", "difficult", "tough", "pleasure", "temporary"},
			Emotions:        []string{"sadness", "annoyance", "disappointment"},
		},
		{
			ID:              "BG2.20",
			Chapter:         2,
			Verse:           20,
			Shloka:          "न जायते म्रियते वा कदाचिन्नायं भूत्वा भविता वा न भूयः। अजो नित्यः शाश्वतोऽयं पुराणो न हन्यते हन्यमाने शरीरे॥",
			Transliteration: "na jāyate mriyate vā kadāchin nāyaṁ bhūtvā bhavitā vā na bhūyaḥ ajo nityaḥ śhāśhvato 'yaṁ purāṇo na hanyate hanyamāne śharīre",
			EngMeaning:      "The soul is neither born, nor does it ever die; nor having once existed, does it ever cease to be. The soul is without birth, eternal, immortal, and ageless. It is not destroyed when the body is destroyed.",
			Themes:          []string{"the eternal self"},
			Keywords:        []string{"death", "died", "soul", "die", "passed away", "lost", "loss", "eternal", "father", "mother"},
			Emotions:        []string{"grief", "sadness", "fear"},
		},
		{
			ID:              "BG2.27",
			Chapter:         2,
			Verse:           27,
			Shloka:          "जातस्य हि ध्रुवो मृत्युर्ध्रुवं जन्म मृतस्य च। तस्मादपरिहार्येऽर्थे न त्वं शोचितुमर्हसि॥",
			Transliteration: "jātasya hi dhruvo mṛityur dhruvaṁ janma mṛitasya cha tasmād aparihārye 'rthe na tvaṁ śhochitum arhasi",
			EngMeaning:      "Death is certain for one who has been born, and rebirth is inevitable for one who has died. Therefore, you should not lament over the inevitable.",
			Themes:          []string{"acceptance", "grief"},
			Keywords:        []string{"death", "grief", "mourning", "funeral", "inevitable", "lament", "pet", "miss"},
			Emotions:        []string{"grief", "sadness"},
		},
		{
			ID:              "BG2.48",
			Chapter:         2,
			Verse:           48,
			Shloka:          "योगस्थः कुरु कर्माणि सङ्गं त्यक्त्वा धनञ्जय। सिद्ध्यसिद्ध्योः समो भूत्वा समत्वं योग उच्यते॥",
			Transliteration: "yoga-sthaḥ kuru karmāṇi saṅgaṁ tyaktvā dhanañjaya siddhy-asiddhyoḥ samo bhūtvā samatvaṁ yoga uchyate",
			EngMeaning:      "Be steadfast in the performance of your duty, O Arjun, abandoning attachment to success and failure. Such equanimity is called Yoga.",
			Themes:          []string{"equanimity"},
			Keywords:        []string{"balance", "calm", "stress", "pressure", "success", "failure", "yoga", "equanimity", "anxious"},
			Emotions:        []string{"nervousness", "disappointment"},
		},
		{
			ID:              "BG2.63",
			Chapter:         2,
			Verse:           63,
			Shloka:          "क्रोधाद्भवति सम्मोहः सम्मोहात्स्मृतिविभ्रमः। स्मृतिभ्रंशाद् बुद्धिनाशो बुद्धिनाशात्प्रणश्यति॥",
			Transliteration: "krodhād bhavati sammohaḥ sammohāt smṛiti-vibhramaḥ smṛiti-bhranśhād buddhi-nāśho buddhi-nāśhāt praṇaśhyati",
			EngMeaning:      "Anger leads to clouding of judgment, which results in bewilderment of the memory. When the memory is bewildered, the intellect gets destroyed; and when the intellect is destroyed, one is ruined.",
			Themes:          []string{"anger", "self-control"},
			Keywords:        []string{"angry", "anger", "rage", "furious", "hate", "frustrated", "temper", "mad", "revenge"},
			Emotions:        []string{"anger", "annoyance"},
		},
		{
			ID:              "BG2.70",
			Chapter:         2,
			Verse:           70,
			Shloka:          "आपूर्यमाणमचलप्रतिष्ठं समुद्रमापः प्रविशन्ति यद्वत्। तद्वत्कामा यं प्रविशन्ति सर्वे स शान्तिमाप्नोति न कामकामी॥",
			Transliteration: "āpūryamāṇam achala-pratiṣhṭhaṁ samudram āpaḥ praviśhanti yadvat tadvat kāmā yaṁ praviśhanti sarve sa śhāntim āpnoti na kāma-kāmī",
			EngMeaning:      "Just as the ocean remains undisturbed by the incessant flow of waters from rivers merging into it, likewise the sage who is unmoved despite the flow of desirable objects all around him attains peace, and not the person who strives to satisfy desires.",
			Themes:          []string{"peace", "desire"},
			Keywords:        []string{"desire", "want", "peace", "craving", "money", "envy", "jealous", "content"},
			Emotions:        []string{"annoyance", "desire"},
		},
		{
			ID:              "BG4.7",
			Chapter:         4,
			Verse:           7,
			Shloka:          "यदा यदा हि धर्मस्य ग्लानिर्भवति भारत। अभ्युत्थानमधर्मस्य तदात्मानं सृजाम्यहम्॥",
			Transliteration: "yadā yadā hi dharmasya glānir bhavati bhārata abhyutthānam adharmasya tadātmānaṁ sṛijāmy aham",
			EngMeaning:      "Whenever there is a decline in righteousness and an increase in unrighteousness, O Arjun, at that time I manifest myself on earth.",
			Themes:          []string{"dharma", "divine presence"},
			Keywords:        []string{"injustice", "unfair", "evil", "dharma", "righteous", "world", "krishna", "god"},
			Emotions:        []string{"anger", "fear"},
		},
		{
			ID:              "BG6.5",
			Chapter:         6,
			Verse:           5,
			Shloka:          "उद्धरेदात्मनात्मानं नात्मानमवसादयेत्। आत्मैव ह्यात्मनो बन्धुरात्मैव रिपुरात्मनः॥",
			Transliteration: "uddhared ātmanātmānaṁ nātmānam avasādayet ātmaiva hyātmano bandhur ātmaiva ripur ātmanaḥ",
			EngMeaning:      "Elevate yourself through the power of your mind, and not degrade yourself, for the mind can be the friend and also the enemy of the self.",
			Themes:          []string{"self-mastery"},
			Keywords:        []string{"myself", "confidence", "worthless", "motivation", "lazy", "stuck", "hopeless", "self", "improve"},
			Emotions:        []string{"sadness", "remorse", "confusion"},
		},
		{
			ID:              "BG6.35",
			Chapter:         6,
			Verse:           35,
			Shloka:          "असंशयं महाबाहो मनो दुर्निग्रहं चलम्। अभ्यासेन तु कौन्तेय वैराग्येण च गृह्यते॥",
			Transliteration: "asanśhayaṁ mahā-bāho mano durnigrahaṁ chalam abhyāsena tu kaunteya vairāgyeṇa cha gṛihyate",
			EngMeaning:      "O mighty-armed son of Kunti, what you say is correct; the mind is indeed very difficult to restrain. But by practice and detachment, it can be controlled.",
			Themes:          []string{"meditation", "discipline"},
			Keywords:        []string{"mind", "focus", "distracted", "restless", "meditation", "overthinking", "thoughts", "control", "practice"},
			Emotions:        []string{"nervousness", "confusion"},
		},
		{
			ID:              "BG18.66",
			Chapter:         18,
			Verse:           66,
			Shloka:          "सर्वधर्मान्परित्यज्य मामेकं शरणं व्रज। अहं त्वा सर्वपापेभ्यो मोक्षयिष्यामि मा शुचः॥",
			Transliteration: "sarva-dharmān parityajya mām ekaṁ śharaṇaṁ vraja ahaṁ tvāṁ sarva-pāpebhyo mokṣhayiṣhyāmi mā śhuchaḥ",
			EngMeaning:      "Abandon all varieties of dharmas and simply surrender unto me alone. I shall liberate you from all sinful reactions; do not fear.",
			Themes:          []string{"surrender", "liberation"},
			Keywords:        []string{"guilt", "guilty", "sin", "forgive", "surrender", "regret", "moksha", "liberation", "afraid"},
			Emotions:        []string{"remorse", "fear", "grief"},
		},
	}
}
