package vocab

// condensePrompt instructs the normalizer model to produce the bounded
// tag vocabulary and the raw-item → tag mapping.
const condensePrompt = `
You are analyzing a list of people's interests, hobbies, and technical skills to identify shared traits.
Your job is to normalize and group similar items under standardized tags, with a strong emphasis on technical topics.

Given a set of items with technical skills, goals, and non-technical hobbies, do the following:

1. Create a set of **standardized tags** (max 45-50).
   - Tags should be lowercase, simple phrases.
   - **Prioritize technical granularity**: ~80% of tags should be technical/skills-based, ~20% non-technical hobbies.
   - For technical items:
     * Keep specificity where there's meaningful clustering (e.g., separate "machine learning", "computer graphics", "systems programming")
     * Merge only when concepts truly overlap (e.g., "react" + "vue" + "angular" → "frontend frameworks")
     * Preserve niche technical interests that appear multiple times (e.g., "rust", "emulators", "compilers")
   - For non-technical items:
     * Group more aggressively into broad categories (e.g., "soccer" + "basketball" + "running" → "sports")
     * Only create separate tags for non-technical interests if they appear frequently
   - Balance granularity with popularity: if 10+ people mention a specific technical area, give it its own tag

2. Create a mapping from **each original item → its standardized tag**.
   - Do not lose any original items.
   - If an item fits multiple categories, choose the most dominant/specific one.
   - If an item is nonsensical, skip it.

Return two JSON objects with no markdown following the format below exactly:

{
  "standardized_tags": [
    "machine learning",
    "computer graphics",
    "systems programming",
    "web development",
    "rust",
    "emulators",
    "compilers",
    "sports",
    "music",
    ...
  ],
  "mappings": {
    "ray tracing": "computer graphics",
    "Rust": "rust",
    "React development": "web development",
    "Knitting": "crafts",
    "soccer": "sports",
    "pico-8": "game development",
    "Taekwondo": "martial arts",
    ...
  }
}
`
