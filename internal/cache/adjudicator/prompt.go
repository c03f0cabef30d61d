package adjudicator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildPrompt renders the classification task for an LLM backend. The
// instructions mirror the decision policy: exact_match only when a candidate
// question genuinely restates the query, similar_match for topical overlap,
// no_match otherwise, and selections must come from the candidate list
func buildPrompt(query string, candidates []QA) (string, error) {
	candidatesJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	return fmt.Sprintf(`You are matching a user query against a set of previously answered questions.

Query: %q

Candidates (question/answer pairs):
%s

Decide how the query relates to the candidates:
- "exact_match": the query is semantically identical to one or more candidate questions, and those candidates' answers fully answer the query with no interpretive gap.
- "similar_match": the query is topically related to one or more candidates but is not an exact restatement; select the most relevant ones.
- "no_match": no candidate answers the query; select nothing.

Respond with ONLY a JSON object, no explanations, no markdown, no code blocks:
{"match_type": "exact_match" | "similar_match" | "no_match", "questions": ["<question text copied verbatim from a candidate>", ...]}

The "questions" array must contain only question texts copied exactly from the candidates above, in order of relevance. For "no_match" it must be empty.`,
		query, string(candidatesJSON)), nil
}

// parseClassification extracts the JSON verdict from raw LLM output,
// tolerating surrounding prose or markdown fences
func parseClassification(output string) (Classification, error) {
	output = strings.TrimSpace(output)

	// Strip markdown code fences if present
	if strings.HasPrefix(output, "```") {
		output = strings.TrimPrefix(output, "```json")
		output = strings.TrimPrefix(output, "```")
		output = strings.TrimSuffix(strings.TrimSpace(output), "```")
		output = strings.TrimSpace(output)
	}

	// Fall back to the first {...} block for chatty backends
	if !strings.HasPrefix(output, "{") {
		start := strings.Index(output, "{")
		end := strings.LastIndex(output, "}")
		if start == -1 || end <= start {
			return Classification{}, fmt.Errorf("no JSON object in output: %q", output)
		}
		output = output[start : end+1]
	}

	var result Classification
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification: %w", err)
	}

	if !result.MatchType.Valid() {
		return Classification{}, fmt.Errorf("invalid match type: %q", result.MatchType)
	}
	if result.MatchType == MatchNone {
		result.Questions = nil
	}

	return result, nil
}
