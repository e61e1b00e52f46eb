package ai

import (
	"fmt"
	"strings"
)

const educationalTemplate = "As a helpful educational assistant, please help with this homework question:\n%s\n\n" +
	"Please provide a clear, educational response that helps the student understand the concept."

// BuildPrompt wraps a student's question in the educational instruction template.
func BuildPrompt(query string) string {
	return fmt.Sprintf(educationalTemplate, strings.TrimSpace(query))
}
