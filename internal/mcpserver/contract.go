package mcpserver

// PromptFormatContract describes the prompt definition file format that
// LLM consumers should follow when authoring or editing prompt files.
const PromptFormatContract = `# Prompt File Format

A prompt file is a Markdown file stored in the vault. Its YAML frontmatter
carries generation parameters; everything after the frontmatter is the
system instruction sent to the model.

## Structure

` + "```" + `markdown
---
model: llama3.1                     # OPTIONAL - overrides the configured model
num_ctx: 4096                       # OPTIONAL - context window, must be > 0
temperature: 0.7                    # OPTIONAL - must be >= 0
top_p: 0.9                          # OPTIONAL - must be > 0
repeat_penalty: 1.1                 # OPTIONAL - must be > 0
isContinuous: true                  # OPTIONAL - keep conversation state per note
includeLinks: true                  # OPTIONAL - expand plain [[wikilinks]] too
excludePatterns: |                  # OPTIONAL - regexes, one per line, matched
  ^\[draft                          #   against the link form [display](target)
---

You are a thoughtful journaling companion. Read the entry and reply with
a short reflection.
` + "```" + `

## Rules

1. **The instruction body is required.** A prompt file with no text after
   the frontmatter is treated as missing.
2. **Parameters are lenient.** Numeric and boolean values may be quoted;
   a value that fails its constraint is ignored, not an error.
3. **Per-note overrides.** A note's own frontmatter may carry ` + "`" + `prompt` + "`" + `
   (inline instruction text) or ` + "`" + `prompt-file` + "`" + ` (a vault-relative path)
   to override the configured prompt. Either may be a plain string or a
   mapping keyed by prompt name.
4. **Continuous prompts** (` + "`" + `isContinuous: true` + "`" + `) carry conversation
   state per note for 30 minutes after the last exchange.
5. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
temperature: 0.4
isContinuous: true
---

You are a gentle writing coach. Point out one recurring theme in the
entry and ask a single open question about it.
` + "```" + `
`
