package llm

import (
	"fmt"
	"strings"
)

const truncationMarker = "\n... (truncated for length)"

const reviewSystemPrompt = `You are an expert code reviewer. Return ONLY a JSON object with these top-level fields:
- "summary": {"totalFiles", "overallQuality" (excellent|good|fair|poor), "mainLanguages", "architecturePattern", "keyFindings"}
- "criticalIssues": array of {"severity" (critical|high|medium|low), "category" (security|performance|reliability|maintainability), "title", "description", "files", "recommendation"}
- "potentialBugs": array of {"file", "line", "issue", "severity", "suggestion"}
- "fileReviews": array of {"file", "score" (A|B|C|D|F), "strengths", "issues", "suggestions"}
- "recommendations": {"immediate", "shortTerm", "longTerm"}
- "metrics": {"codeComplexity", "testCoverage", "documentationQuality", "codeConsistency"}

Focus on code quality, security, potential bugs, performance, maintainability,
architecture, testing and documentation, plus any custom rules given.
Return valid JSON only, no markdown fencing or explanation.`

// buildPrompt renders the review request into system and user prompts. Each
// file's content is truncated at charLimit with a marker so one giant file
// cannot blow the request size.
func buildPrompt(req ReviewRequest, charLimit int) (system, user string) {
	system = reviewSystemPrompt

	var sb strings.Builder
	fmt.Fprintf(&sb, "Repository: %s/%s (branch: %s)\n\n", req.Owner, req.Repo, req.Branch)

	sb.WriteString("CUSTOM RULES TO FOLLOW:\n")
	if len(req.Rules) == 0 {
		sb.WriteString("- No custom rules specified\n")
	} else {
		for _, rule := range req.Rules {
			sb.WriteString("- " + rule + "\n")
		}
	}

	fmt.Fprintf(&sb, "\nFILES TO REVIEW (%d):\n", len(req.Files))
	for _, f := range req.Files {
		fmt.Fprintf(&sb, "- %s (%d chars)\n", f.Path, len(f.Content))
	}

	sb.WriteString("\n--- DETAILED FILE CONTENTS ---")
	for _, f := range req.Files {
		content := f.Content
		if len(content) > charLimit {
			content = content[:charLimit] + truncationMarker
		}
		fmt.Fprintf(&sb, "\n\n=== %s ===\n%s\n", f.Path, content)
	}

	return system, sb.String()
}
