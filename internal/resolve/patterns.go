package resolve

import "regexp"

// Patterns for pulling a project name out of phrases like
// "the Johnson deck", "Chen project", or "at Henderson's".
var projectNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:the|a)\s+([A-Z][a-z]+(?:\s+[a-z]+)?)\s+(?:project|job|deck|remodel|kitchen|bathroom)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+)\s+(?:project|job|site)`),
	regexp.MustCompile(`(?i)(?:at|for)\s+([A-Z][a-z]+(?:'s)?)`),
}
