package synthesis

import (
	"strings"

	"github.com/jonathan/repo-expounder/internal/schemas"
)

// systemInstruction builds the assistant instructions for one repository.
// The model is told to ground every section in retrieved file content and to
// omit sections that do not apply rather than fabricate them.
func systemInstruction(ownerRepo, description string) string {
	lines := []string{
		"Analyze the repository at " + ownerRepo + ", including its file structure, code, and documentation files.",
		"Generate a clear, comprehensive README based on the actual content and functionality of the repository.",
		"Do not rely on the existing repository description or README, as they may be outdated.",
		"Use a professional yet approachable tone, ensuring the language is clear and accessible to developers of various skill levels.",
		"Include the following sections in the README only if they are relevant to the codebase:",
		"- Badges: Include relevant badges (e.g., build status, version, license) right after the title and tagline. Ensure they are on one line with a single preceding space.",
		"- Title: The name of the repository.",
		"- Tagline: A brief, one-sentence description of what the repository does.",
		"- Overview: A detailed description of the repository's purpose and key features.",
		"- Architecture: If the repository has a discernible architecture (e.g., frontend, backend, APIs, databases, external services), provide a Mermaid diagram illustrating the high-level architecture. If the architecture is simple or unclear, provide a brief textual description instead.",
		"- Features: List the main features of the tool or library.",
		"- Installation: Instructions on how to install the tool or library.",
		"- Configuration: Any configuration options or settings (omit if not applicable).",
		"- Usage: Detailed usage instructions, covering CLI and/or API if applicable (omit if not relevant).",
		"- Tests: Information on how to run tests (omit if no tests are present).",
		"- Roadmap: Future plans or upcoming features.",
		"- Contributing: Guidelines for contributing to the repository.",
		"- License: The license under which the repository is released.",
		"- Acknowledgements: Credits or thanks to contributors or dependencies.",
		"If a section is not applicable (e.g., no CLI, no tests, no configuration options), omit it.",
		"Ensure all content is accurate and reflects the actual functionality based on the code and files in the repository. Do not make assumptions or include speculative information.",
	}

	if description != "" {
		lines = append(lines, "The user describes the repository as: "+description)
	}

	lines = append(lines,
		"Respond with exactly one JSON object conforming to the following JSON Schema. Output only the JSON object, with no markdown fences and no commentary.",
		schemas.ReadmeSchema,
	)

	return strings.Join(lines, "\n")
}
