package examforge

import "text/template"

const englishSystemPrompt = `You are a senior psychometrician and child and adolescent psychiatrist with 20+ years of experience writing board certification items to NBME/USMLE standards.

# Item writing rules

## Clinical vignette
- Open with age, gender and referral context.
- Body: key symptoms with duration and severity, relevant developmental, family and medical history, relevant findings. Only necessary information.
- Close by leading naturally into a focused lead-in question.
- Behaviour, language and cognition must be realistic for the child's age. No stereotypes and no internal contradictions.

## Options
- Exactly 4 options (A, B, C, D), all clinically plausible, one single best answer.
- Options of similar length and grammatically consistent with the lead-in.
- Distractors based on real, common trainee errors.

## Forbidden
- "All of the above" / "None of the above".
- Negative stems ("which is NOT", "EXCEPT").
- Absolute terms: "always", "never", "only".
- Grammatical or length cues pointing to the correct answer.
- Pure recall questions.

## Explanation
- Evidence-based rationale for the correct answer with a citation: Source: <book>, page <n>.
- For every distractor: why it is wrong, the common error behind it, and when it would be correct.

# Output: JSON only, no other text

{
  "questions": [
    {
      "stem": "clinical vignette + lead-in",
      "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
      "correct": "A",
      "explanation": "...",
      "difficulty": "easy|medium|hard",
      "bloom_level": "knowledge|comprehension|application|analysis|evaluation|synthesis",
      "category": "diagnosis|treatment|pharmacology|assessment|emergency|development|comorbidity|psychotherapy",
      "clinical_pearl": "short clinical tip",
      "key_takeaway": "the one thing to remember",
      "patient_age": 8,
      "patient_gender": "female"
    }
  ]
}`

const englishUserTemplate = `Write {{.Count}} board-level MCQs on: {{.TopicEN}} ({{.TopicHE}})

## Settings

**Difficulty:**
{{.Difficulty}}

**Cognitive level (Bloom):**
{{.Bloom}}

**Question category:**
{{.Category}}

**Question goal:** {{.Task}}
{{if .Specs}}
**Per-question settings (follow in order):**
{{.Specs}}{{end}}
---

## Chapter: {{.Chapter}}

### Selected subtopics (write questions on these only):
{{.Subtopics}}

---

## Reference material from the textbooks. This is your only source:

{{.Content}}

---

## Critical instructions

1. **Base every question only on the material above.** Do not invent facts.
2. **Cite the exact source in the explanation**: book name and page number (see "--- Page X ---").
3. **Explain every wrong option**: what the error is and when it would be right.
4. **Include a Clinical Pearl and a Key Takeaway** in every question.
5. **Vary patient ages and genders** across vignettes.
6. **Keep option lengths similar**. Give no psychometric cues.

## Format: return JSON only, no backticks, no extra text.`

var englishPrompts = &PromptSet{
	Language:    LanguageEnglish,
	System:      englishSystemPrompt,
	NoSubtopics: "(no detailed subtopics)",
	NoContent:   "(no reference material was loaded for this topic; rely on current authoritative guidelines and cite them)",
	user:        template.Must(template.New("user_en").Parse(englishUserTemplate)),
	specLine:    "%d. difficulty: %s, Bloom level: %s, category: %s",
	difficulty: map[Difficulty]string{
		DifficultyEasy: `Difficulty: easy
- Typical, classic presentation
- Distractors clearly belong to different categories
- Asks for the first, most obvious step
- Suitable for a first-year resident`,
		DifficultyMedium: `Difficulty: medium
- Moderate complexity: comorbidity or atypical presentation
- Distractors are clinically close and from the same cluster
- Requires weighing several clinical findings
- Suitable for a second or third-year resident`,
		DifficultyHard: `Difficulty: hard
- Complex case: rare presentation, competing diagnoses, conflicting considerations
- Distractors are very close and need fine discrimination
- Requires in-depth knowledge of current guidelines and research
- Suitable for a senior resident or specialist`,
	},
	bloom: map[BloomLevel]string{
		BloomKnowledge: `Write a knowledge question:
- Anchor a core fact in a short clinical context
- The fact must matter for practice, not trivia`,
		BloomComprehension: `Write a comprehension question:
- Ask the examinee to interpret or explain a finding or mechanism
- The answer must follow from understanding, not memorised wording`,
		BloomApplication: `Write an application question:
- Present a detailed vignette with enough information to decide
- Require applying theory to a specific case
- Examples: "What is the preferred initial treatment?", "What is the next step?"`,
		BloomAnalysis: `Write an analysis question:
- Present complex clinical data: test results, history, parent or teacher reports
- The examinee must separate relevant from irrelevant details
- Examples: "What is the most likely diagnosis?", "Which finding is decisive?"`,
		BloomEvaluation: `Write an evaluation question:
- Present a situation with several legitimate management options
- The examinee must weigh trade-offs and choose the best one
- Examples: "Which approach is preferable?", "What is the most important consideration?"`,
		BloomSynthesis: `Write a synthesis question:
- Require integrating history, examination, guidelines and research
- The examinee must build a comprehensive plan or reach a complex conclusion
- Example: "What is the most comprehensive management plan?"`,
	},
	category: map[Category]string{
		CategoryDiagnosis:     "Focus on differential diagnosis: a presentation compatible with several diagnoses that the examinee must tell apart.",
		CategoryTreatment:     "Focus on treatment selection: account for age, comorbidity, family preferences and severity.",
		CategoryPharmacology:  "Focus on pharmacology: dosing, adverse effects, interactions and monitoring. Include the child's age and weight.",
		CategoryAssessment:    "Focus on assessment: which instrument, which laboratory test, and in what order.",
		CategoryEmergency:     "Focus on emergencies: suicide risk, aggression, acute psychosis. Stress urgency and priorities.",
		CategoryDevelopment:   "Focus on development: milestones, deviations from the norm, red flags for a specific age.",
		CategoryComorbidity:   "Focus on comorbidity: a patient with several diagnoses and overlapping symptoms to disentangle.",
		CategoryPsychotherapy: "Focus on psychotherapy: choice of modality, age fit, treatment goals and evidence base.",
	},
	task: map[ClinicalTask]string{
		TaskMixed:           "mixed: combine different question types",
		TaskApply:           "apply knowledge to a clinical case",
		TaskDiscriminate:    "discriminate between close options",
		TaskDecideUncertain: "decide under uncertainty",
		TaskPrioritize:      "recognise urgency and prioritise",
		TaskIntegrate:       "integrate across domains",
		TaskEvaluate:        "critical appraisal",
		TaskAdapt:           "complex clinical judgement",
	},
}
