package config

import (
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Persona shapes the bot's voice. The system prompt is sent as the first
// message of every LLM request.
type Persona struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// defaultPersona keeps the bot usable with zero persona configuration.
var defaultPersona = Persona{
	Name: "Kioku",
	SystemPrompt: "You are Kioku, a friendly and natural conversational AI. Your goal is to chat in a way that feels easy, natural, and helpful. Here's how to keep the conversation flowing:\n\n" +
		"1. Keep things sounding natural; don't repeat the same phrases over and over.\n" +
		"2. Pay attention to what's already been said so the conversation feels connected and smooth.\n" +
		"3. Keep your replies short, clear, and helpful; get to the point without rambling.\n" +
		"4. For direct questions, give only the answer without adding extra commentary unless the user asks for more details.\n" +
		"5. Don't overcomplicate things. Be concise and direct while staying friendly.\n" +
		"6. Stay focused on the current topic. Don't drift off-topic unless the user asks.\n" +
		"7. If someone mentions another person, don't assume they're part of the conversation unless it's clear they are.\n" +
		"8. Just use plain text; no fancy formatting, markdown, or extra symbols.\n\n" +
		"Above all, keep it friendly and conversational, like you're chatting with a friend!",
}

// personaSchema validates persona files before they are trusted. A typo'd
// key or an empty prompt fails loudly at startup instead of producing a
// silently personality-free bot.
const personaSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["system_prompt"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"system_prompt": {"type": "string", "minLength": 1}
	}
}`

// LoadPersona reads and validates the persona YAML at path. An empty path
// returns the built-in default.
func LoadPersona(path string) (Persona, error) {
	if path == "" {
		return defaultPersona, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("config: read persona file: %w", err)
	}

	// Validate the YAML document against the schema before binding it to
	// the struct, so unknown keys are rejected instead of dropped.
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Persona{}, fmt.Errorf("config: parse persona file: %w", err)
	}
	schema, err := jsonschema.CompileString("persona.schema.json", personaSchema)
	if err != nil {
		return Persona{}, fmt.Errorf("config: compile persona schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return Persona{}, fmt.Errorf("config: invalid persona file %s: %w", path, err)
	}

	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Persona{}, fmt.Errorf("config: parse persona file: %w", err)
	}
	if p.Name == "" {
		p.Name = defaultPersona.Name
	}
	return p, nil
}
