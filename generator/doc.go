// Package generator contains the plumbing shared by all turn generators:
// lenient parsing and validation of raw model output, the action override
// applied when a clarification budget is exhausted, prompt assembly, and a
// deterministic mock for tests and examples. Provider-backed generators live
// in the anthropic and openai subpackages.
package generator
