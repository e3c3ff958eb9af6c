package ai

// ExtractFactsPrompt is the system prompt for extracting structured facts
// from a scientific paper. It expects two formatting arguments: the paper
// title and the paper's category labels.
const ExtractFactsPrompt = `
# Task Context
You are an expert at extracting key scientific information from research papers. You will be provided with the text of one paper.

# Background Data
- Paper title: "%s"
- Paper categories: [%s]

# Detailed Task Description & Rules
- Identify explicitly mentioned equations (names or short descriptive phrases), specific methodologies, and concrete technologies.
- Identify cause-and-effect relationships asserted by the paper. A relationship starts from an initial cause, leads to an intermediate effect, and may continue to a final effect. For every step include an explanation of *why* the cause leads to the effect, incorporating the underlying mechanism.
- If a relationship only has a single step, leave final_effect and explanation_step2 empty.
- Identify shared effects: two distinct causes that the paper claims converge on the same effect, each with its own explanation.
- Use short noun phrases for causes and effects, not full sentences.
- Only report what the text states; never invent relationships.
- If a category has no findings, return an empty list for it.

# Examples
Given "Because larger batch sizes reduce gradient noise, training converges faster, which in turn lowers total energy consumption", report:
{
  "initial_cause": "larger batch sizes",
  "intermediate_effect": "faster training convergence",
  "explanation_step1": "larger batches reduce gradient noise, so each update is more reliable",
  "final_effect": "lower total energy consumption",
  "explanation_step2": "fewer training steps are needed, so the accelerator runs for less time"
}

# Output Formatting
Return a JSON object with the keys "equations", "methodologies", "technologies", "causal_links" and "shared_effects", matching the provided schema. Output must be valid JSON only (no commentary, no extra text).
`
