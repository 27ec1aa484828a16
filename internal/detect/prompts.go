package detect

import "fmt"

const detectionSystem = "You are an expert claim detection system. Output only valid JSON."

const entitySystem = "You are an entity extraction expert. Output only valid JSON."

const detectionTemplate = `Analyze the given text and determine if it contains a factual claim that can be verified.

A CLAIM is a statement that:
- asserts a fact about the world
- can be proven true or false with evidence
- is not purely opinion, speculation or a question

NOT CLAIMS:
- pure opinions ("I think chocolate is the best")
- questions ("Is climate change real?")
- commands or requests
- purely descriptive personal experiences

TEXT:
%s

Respond with a JSON object:
{
  "is_claim": true or false,
  "claim_text": "the extracted claim, or an empty string",
  "entities": [{"text": "entity", "type": "person/organization/location/date/other", "confidence": 0.0-1.0}],
  "claim_type": "health/politics/general/science/business",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation"
}

Rules:
- if no claim exists set is_claim to false
- extract key entities (people, organizations, locations, dates)
- confidence is how certain you are that this is a verifiable claim`

const entityTemplate = `Extract key entities from this text.

TEXT:
%s

Respond with a JSON object:
{
  "entities": [{"text": "entity", "type": "person/organization/location/date/number/other", "confidence": 0.0-1.0}]
}`

func detectionPrompt(text string) string { return fmt.Sprintf(detectionTemplate, text) }

func entityPrompt(text string) string { return fmt.Sprintf(entityTemplate, text) }
