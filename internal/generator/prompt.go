package generator

import (
	"fmt"
	"strings"
)

const systemPrompt = "You write git commit messages in the Conventional Commits format. " +
	"Answer with the commit message only, without explanations or code fences."

// maxPromptFiles bounds the file list sent to the model
const maxPromptFiles = 50

func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Write a commit message for the following changes.\n\n")
	b.WriteString("Changed files:\n")
	for i, c := range req.Changes {
		if i == maxPromptFiles {
			fmt.Fprintf(&b, "- ... and %d more\n", len(req.Changes)-maxPromptFiles)
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", c.Path, c.Kind)
	}

	b.WriteString("\nSuggested message from static analysis:\n")
	b.WriteString(req.Draft.String())
	b.WriteString("\n")

	if req.Diff != "" {
		b.WriteString("\nStaged diff:\n")
		b.WriteString(req.Diff)
		b.WriteString("\n")
	}

	b.WriteString("\nFormat:\n<type>[optional scope]: <description>\n\n[optional body]\n\n[optional footer(s)]\n\n")
	b.WriteString("Types: feat, fix, docs, style, refactor, perf, test, chore. ")
	b.WriteString("Keep the suggested type and scope unless the diff clearly contradicts them, ")
	b.WriteString("and keep any BREAKING CHANGE footer.")
	return b.String()
}
