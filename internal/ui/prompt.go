package ui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
)

// SelectEmbeddingProvider prompts the user to pick an embedding provider
func SelectEmbeddingProvider() (string, error) {
	var provider string
	prompt := &survey.Select{
		Message: "Select an embedding provider:",
		Options: []string{"ollama", "openai"},
		Default: "ollama",
	}

	if err := survey.AskOne(prompt, &provider); err != nil {
		return "", err
	}

	return provider, nil
}

// SelectStoreBackend prompts the user to pick a vector store backend
func SelectStoreBackend() (string, error) {
	var backend string
	prompt := &survey.Select{
		Message: "Select a vector store backend:",
		Options: []string{"sqlite", "postgres", "weaviate", "memory"},
		Default: "sqlite",
	}

	if err := survey.AskOne(prompt, &backend); err != nil {
		return "", err
	}

	return backend, nil
}

// SelectAdjudicatorBackend prompts the user to pick a match adjudicator
func SelectAdjudicatorBackend() (string, error) {
	var backend string
	prompt := &survey.Select{
		Message: "Select a match adjudicator:",
		Options: []string{"claude-code", "openai"},
		Default: "claude-code",
	}

	if err := survey.AskOne(prompt, &backend); err != nil {
		return "", err
	}

	return backend, nil
}

// PromptInput asks for a free-form value with a default
func PromptInput(message, defaultValue string) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}

	if err := survey.AskOne(prompt, &value); err != nil {
		return "", err
	}

	return value, nil
}

// PromptRequiredInput asks for a free-form value that must not be empty
func PromptRequiredInput(message string) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: message,
	}

	if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return value, nil
}

// ShowAnswer displays a cache hit with its match type
func ShowAnswer(matchType, question, answer string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n[%s] %s\n", matchType, question)
	fmt.Printf("  %s\n", answer)
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("! %s\n", message)
}
