package examforge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const codeFence = "```"

// envelopeSchema checks only the outer shape. Field-level problems inside a
// question are left to the validator so they surface as findings.
const envelopeSchema = `{
	"type": "object",
	"properties": {
		"questions": {
			"type": "array",
			"items": {"type": "object"}
		}
	},
	"required": ["questions"]
}`

var envelopeLoader = gojsonschema.NewStringLoader(envelopeSchema)

// StripCodeFences removes a ``` or ```json fence around the response body.
// Text that is not fenced is returned trimmed and otherwise unchanged.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "{") {
		return text
	}

	start := strings.Index(text, codeFence)
	if start < 0 {
		return text
	}
	text = text[start+len(codeFence):]
	if strings.HasPrefix(strings.ToLower(text), "json") {
		text = text[len("json"):]
	}
	if end := strings.Index(text, codeFence); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// ParseGenerationResponse parses the generation service output into drafts.
// Any failure is a MalformedResponse carrying the raw text for diagnostics.
func ParseGenerationResponse(raw string) ([]QuestionDraft, error) {
	malformed := func(err error, msg string) error {
		gerr := newGenerationError(ErrMalformedResponse, err, "%s", msg)
		gerr.Raw = raw
		return gerr
	}

	body := StripCodeFences(raw)
	if body == "" {
		return nil, malformed(nil, "generation service returned an empty response")
	}

	result, err := gojsonschema.Validate(envelopeLoader, gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, malformed(err, "failed to parse generation response as JSON")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, malformed(nil, fmt.Sprintf("generation response has an unexpected shape: %s", strings.Join(msgs, "; ")))
	}

	var envelope struct {
		Questions []wireDraft `json:"questions"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, malformed(err, "failed to decode generation response")
	}

	drafts := make([]QuestionDraft, 0, len(envelope.Questions))
	for _, w := range envelope.Questions {
		drafts = append(drafts, w.draft())
	}
	return drafts, nil
}

// wireDraft mirrors the service's question object with every field left raw,
// so a wrong JSON type in one field does not fail the whole batch.
type wireDraft struct {
	Stem          json.RawMessage `json:"stem"`
	Options       json.RawMessage `json:"options"`
	Correct       json.RawMessage `json:"correct"`
	Explanation   json.RawMessage `json:"explanation"`
	Difficulty    json.RawMessage `json:"difficulty"`
	BloomLevel    json.RawMessage `json:"bloom_level"`
	Category      json.RawMessage `json:"category"`
	ClinicalPearl json.RawMessage `json:"clinical_pearl"`
	KeyTakeaway   json.RawMessage `json:"key_takeaway"`
	PatientAge    json.RawMessage `json:"patient_age"`
	PatientGender json.RawMessage `json:"patient_gender"`
}

func (w wireDraft) draft() QuestionDraft {
	return QuestionDraft{
		Stem:          flexText(w.Stem),
		Options:       flexOptions(w.Options),
		Correct:       OptionKey(strings.TrimSpace(flexText(w.Correct))),
		Explanation:   flexText(w.Explanation),
		Difficulty:    Difficulty(flexText(w.Difficulty)),
		BloomLevel:    BloomLevel(flexText(w.BloomLevel)),
		Category:      Category(flexText(w.Category)),
		ClinicalPearl: flexText(w.ClinicalPearl),
		KeyTakeaway:   flexText(w.KeyTakeaway),
		PatientAge:    flexInt(w.PatientAge),
		PatientGender: flexText(w.PatientGender),
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// flexText reads a JSON string; other scalars and composites become their JSON text
func flexText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func flexInt(raw json.RawMessage) int {
	if isNull(raw) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	n, err := strconv.Atoi(strings.TrimSpace(flexText(raw)))
	if err != nil {
		return 0
	}
	return n
}

// flexOptions accepts the expected {"A": ...} object and, failing that,
// a plain array assigned to A, B, C, ... in order.
func flexOptions(raw json.RawMessage) map[OptionKey]string {
	opts := map[OptionKey]string{}
	if isNull(raw) {
		return opts
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byKey); err == nil {
		for k, v := range byKey {
			opts[OptionKey(strings.ToUpper(strings.TrimSpace(k)))] = flexText(v)
		}
		return opts
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		keys := append(append([]OptionKey{}, AnswerKeys...), OptionE)
		for i, v := range list {
			if i >= len(keys) {
				break
			}
			opts[keys[i]] = flexText(v)
		}
	}
	return opts
}
