package extract

import "github.com/batchmates/batchmates/internal/openai"

// summarizePrompt instructs the model to pull structured profile data
// out of a casual intro message.
const summarizePrompt = `
You are a programmer with a solid technical foundation. You are extracting structured information from a
casual introduction. Given the input text, extract key data in JSON format that captures the person's:

- name (if stated or inferable)
- current role and/or institution
- technical skills and interests (languages, tools, topics)
- goals at the program
- location
- non technical notable hobbies or communities
- anything else

Respond only in JSON like this and do not include any markdown. Keep it concise:

{
  "name": "",
  "role_and_institution": "",
  "technical_skills_and_interests": [],
  "goals": [],
  "location": "",
  "non_technical_hobbies_and_interest": [],
  "other": []
}
`

// buildPrompt assembles the chat messages for one person's extraction.
func buildPrompt(name, text string) []openai.Message {
	return []openai.Message{
		{Role: "developer", Content: summarizePrompt},
		{Role: "user", Content: "Here is the info from " + name + ": " + text},
	}
}

// profileSchema returns the JSON schema for structured profile output.
func profileSchema() *openai.Schema {
	stringArray := func(desc string) openai.SchemaProperty {
		return openai.SchemaProperty{
			Type:        "array",
			Description: desc,
			Items:       &openai.SchemaProperty{Type: "string"},
		}
	}
	return &openai.Schema{
		Type: "object",
		Properties: map[string]openai.SchemaProperty{
			"name":                               {Type: "string", Description: "The person's name"},
			"role_and_institution":               {Type: "string", Description: "Current role and/or institution"},
			"location":                           {Type: "string", Description: "Where the person is based"},
			"technical_skills_and_interests":     stringArray("Languages, tools, technical topics"),
			"goals":                              stringArray("What the person wants to work on or learn"),
			"non_technical_hobbies_and_interest": stringArray("Hobbies and communities outside tech"),
			"other":                              stringArray("Anything else notable"),
		},
		Required: []string{
			"name", "role_and_institution", "location",
			"technical_skills_and_interests", "goals",
			"non_technical_hobbies_and_interest", "other",
		},
	}
}
