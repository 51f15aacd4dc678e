package examforge

import "text/template"

const hebrewSystemPrompt = `אתה מומחה בינלאומי מוביל בפסיכומטריקה ובפסיכיאטריה של הילד והמתבגר, בעל 20+ שנות ניסיון בפיתוח מבחני הסמכה רפואיים בסטנדרט NBME/USMLE.

# עקרונות חובה ליצירת שאלות

## מבנה הויניטה הקלינית
- פתיחה: גיל, מגדר, הקשר הפניה.
- גוף: תסמינים עיקריים (משך, חומרה, הקשר), היסטוריה רלוונטית, ממצאי בדיקה. רק מידע הכרחי.
- סגירה: מובילה באופן טבעי לשאלה ממוקדת.
- התיאור חייב להתאים התפתחותית לגיל הילד, ללא סטריאוטיפים וללא סתירות פנימיות.

## התשובות
- בדיוק 4 תשובות (A, B, C, D), כולן סבירות קלינית, רק תשובה אחת הטובה ביותר.
- אורך דומה ועקביות דקדוקית עם השאלה.
- מסיחים המבוססים על טעויות נפוצות של מתמחים.

## איסורים מוחלטים
- "כל התשובות נכונות" / "אף תשובה לא נכונה".
- שאלות שליליות ("מה לא נכון?", "EXCEPT", "NOT").
- מונחים מוחלטים: "תמיד", "אף פעם", "בכל המקרים", "רק".
- רמזים בניסוח או באורך שמובילים לתשובה.
- שאלות ברמת זכירה בלבד.

## הסבר לכל שאלה
- נימוק קליני מבוסס-ראיות לתשובה הנכונה והפניה למקור: **מקור:** [שם הספר], עמוד [מספר].
- לכל תשובה שגויה: מדוע היא שגויה, מהי הטעות הנפוצה, ומתי הייתה נכונה.

# פורמט פלט - JSON בלבד, ללא טקסט נוסף:

{
  "questions": [
    {
      "stem": "תיאור מקרה קליני + שאלה ממוקדת",
      "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
      "correct": "A",
      "explanation": "...",
      "difficulty": "easy|medium|hard",
      "bloom_level": "knowledge|comprehension|application|analysis|evaluation|synthesis",
      "category": "diagnosis|treatment|pharmacology|assessment|emergency|development|comorbidity|psychotherapy",
      "clinical_pearl": "טיפ קליני קצר",
      "key_takeaway": "המסר המרכזי",
      "patient_age": 8,
      "patient_gender": "female"
    }
  ]
}`

const hebrewUserTemplate = `צור {{.Count}} שאלות MCQ ברמת מבחן הסמכה בנושא: {{.TopicHE}} ({{.TopicEN}})

## הגדרות לשאלה זו:

**רמת קושי:**
{{.Difficulty}}

**רמת חשיבה (Bloom):**
{{.Bloom}}

**קטגוריית שאלה:**
{{.Category}}

**מטרת השאלה:** {{.Task}}
{{if .Specs}}
**הגדרות לכל שאלה (לפי הסדר):**
{{.Specs}}{{end}}
---

## הנושא שייך לפרק: {{.Chapter}}

### תת-נושאים שנבחרו (צור שאלות רק על אלו):
{{.Subtopics}}

---

## חומר מקור מספרי הלימוד — זה המקור היחיד שלך:

{{.Content}}

---

## הנחיות קריטיות:

1. **בסס כל שאלה אך ורק על החומר למעלה** — אל תמציא מידע
2. **ציין מקור מדויק בהסבר** — שם ספר + מספר עמוד (ראה "--- Page X ---")
3. **הסבר מפורט לכל תשובה שגויה** — מה הטעות, מתי זה כן נכון
4. **כלול Clinical Pearl ו-Key Takeaway** בכל שאלה
5. **גוון גילאים ומינים** של המטופלים בויניטות
6. **ודא שאורך התשובות דומה** — אל תתן רמזים פסיכומטריים

## פורמט: החזר JSON בלבד, ללא backticks, ללא טקסט נוסף.`

var hebrewPrompts = &PromptSet{
	Language:    LanguageHebrew,
	System:      hebrewSystemPrompt,
	NoSubtopics: "(אין תת-נושאים מפורטים)",
	NoContent:   "(לא נטען חומר מקור לנושא זה; הסתמך על הנחיות מקצועיות עדכניות וציין אותן)",
	user:        template.Must(template.New("user_he").Parse(hebrewUserTemplate)),
	specLine:    "%d. רמת קושי: %s, רמת Bloom: %s, קטגוריה: %s",
	difficulty: map[Difficulty]string{
		DifficultyEasy: `רמת קושי: קל
- מקרה קליני עם מצג טיפוסי וקלאסי
- המסיחים שייכים לקטגוריות שונות בבירור
- שאלה על הצעד הראשון והברור ביותר
- מתאים למתמחה בשנה ראשונה`,
		DifficultyMedium: `רמת קושי: בינוני
- מקרה עם מורכבות בינונית — תחלואה נלווית או הצגה לא טיפוסית
- המסיחים קרובים קלינית ושייכים לאותו אשכול
- דורש שקלול של מספר נתונים קליניים
- מתאים למתמחה בשנים 2-3`,
		DifficultyHard: `רמת קושי: קשה
- מקרה מורכב — הצגה נדירה, מספר אבחנות מתחרות, שיקולים סותרים
- המסיחים קרובים מאוד ודורשים הבחנה עדינה
- דורש ידע מעמיק של הנחיות עדכניות ומחקר
- מתאים למתמחה בכיר/מומחה`,
	},
	bloom: map[BloomLevel]string{
		BloomKnowledge: `צור שאלת ידע (Knowledge):
- עגן עובדה מרכזית בהקשר קליני קצר
- העובדה חייבת להיות חשובה לפרקטיקה, לא טריוויה`,
		BloomComprehension: `צור שאלת הבנה (Comprehension):
- בקש מהנבחן לפרש או להסביר ממצא או מנגנון
- התשובה נובעת מהבנה ולא מניסוח שנשנן`,
		BloomApplication: `צור שאלת יישום (Application):
- הצג מקרה קליני מפורט עם מספיק מידע לקבלת החלטה
- השאלה צריכה לדרוש יישום ידע תיאורטי על מקרה ספציפי
- דוגמאות: "מהו הטיפול הראשוני המועדף?", "מהו הצעד הבא בטיפול?"`,
		BloomAnalysis: `צור שאלת ניתוח (Analysis):
- הצג מידע קליני מורכב: תוצאות בדיקות, היסטוריה, דיווחי הורים/מורים
- הנבחן צריך לנתח ולהבחין בין פרטים רלוונטיים ללא-רלוונטיים
- דוגמאות: "מהי האבחנה הסבירה ביותר?", "מה הממצא המכריע?"`,
		BloomEvaluation: `צור שאלת הערכה (Evaluation):
- הצג מצב שבו יש מספר אפשרויות טיפוליות לגיטימיות
- הנבחן צריך להעריך יתרונות/חסרונות ולבחור את הטוב ביותר
- דוגמאות: "איזו גישה עדיפה?", "מה השיקול החשוב ביותר?"`,
		BloomSynthesis: `צור שאלת סינתזה (Synthesis):
- דרוש שילוב מידע ממקורות שונים: אנמנזה + בדיקה + הנחיות + מחקר
- הנבחן צריך לבנות תוכנית מקיפה או להגיע למסקנה מורכבת
- דוגמה: "מהי התוכנית הטיפולית המקיפה ביותר?"`,
	},
	category: map[Category]string{
		CategoryDiagnosis:     "מקד את השאלה באבחנה מבדלת — הצג תמונה קלינית שיכולה להתאים למספר אבחנות וגרום לנבחן להבחין.",
		CategoryTreatment:     "מקד בבחירת טיפול — כלול שיקולים של גיל, תחלואה נלווית, העדפות משפחה, ורמת חומרה.",
		CategoryPharmacology:  "מקד בפרמקולוגיה — מינון, תופעות לוואי, אינטראקציות, ומעקב. כלול גיל ומשקל הילד.",
		CategoryAssessment:    "מקד בהערכה ובדיקות — איזה כלי הערכה, איזו בדיקה מעבדתית, מה סדר העדיפויות.",
		CategoryEmergency:     "מקד במצבי חירום — סיכון אובדני, אגרסיה, פסיכוזה חריפה. הדגש דחיפות וסדר עדיפויות.",
		CategoryDevelopment:   "מקד בהתפתחות — אבני דרך, סטיות מהנורמה, red flags. התאם לגיל ספציפי.",
		CategoryComorbidity:   "מקד בתחלואה נלווית — הצג מטופל עם מספר אבחנות וגרום להבחנה בין תסמינים חופפים.",
		CategoryPsychotherapy: "מקד בפסיכותרפיה — בחירת מודאליות, התאמה לגיל, יעדים טיפוליים, evidence-base.",
	},
	task: map[ClinicalTask]string{
		TaskMixed:           "מגוון — שלב סוגי שאלות שונים",
		TaskApply:           "יישום ידע למקרה קליני",
		TaskDiscriminate:    "הבחנה בין אפשרויות קרובות",
		TaskDecideUncertain: "קבלת החלטות בתנאי אי-ודאות",
		TaskPrioritize:      "זיהוי דחיפות ותיעדוף",
		TaskIntegrate:       "אינטגרציה בין-תחומית",
		TaskEvaluate:        "הערכה ביקורתית",
		TaskAdapt:           "שיפוט קליני מורכב",
	},
}
