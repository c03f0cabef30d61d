package adjudicator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ClaudeAdjudicator implements Adjudicator using the Claude CLI
type ClaudeAdjudicator struct{}

// NewClaudeAdjudicator creates a new Claude adjudicator
func NewClaudeAdjudicator() *ClaudeAdjudicator {
	return &ClaudeAdjudicator{}
}

// IsClaudeCLIInstalled checks if the claude CLI is available
func IsClaudeCLIInstalled() bool {
	_, err := exec.LookPath("claude")
	return err == nil
}

// Classify asks Claude whether the query matches any candidate
func (c *ClaudeAdjudicator) Classify(ctx context.Context, query string, candidates []QA) (Classification, error) {
	prompt, err := buildPrompt(query, candidates)
	if err != nil {
		return Classification{}, err
	}

	output, err := c.callClaude(ctx, prompt)
	if err != nil {
		return Classification{}, err
	}

	return parseClassification(output)
}

// callClaude calls the Claude CLI with the given prompt
func (c *ClaudeAdjudicator) callClaude(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, "claude", prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to call claude CLI: %w\nStderr: %s", err, stderr.String())
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", fmt.Errorf("claude CLI returned empty response")
	}

	return output, nil
}
