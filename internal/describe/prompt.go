package describe

// instructionPrompt asks the model for a single JSON object describing the clip.
const instructionPrompt = `You are a music audio analyst. Listen to this clip and identify it if you can.
Also describe it with musical genres (rock, pop, jazz, electronic, ...) and
descriptive keywords (energetic, melancholic, danceable, ...).

Return ONLY a valid JSON object in this format:

{
  "title": "Song title if identified, otherwise \"Unidentified Track\"",
  "artist": "Artist name if identified, otherwise \"Unknown Artist\"",
  "album": null,
  "releaseDate": null,
  "label": null,
  "songLink": null,
  "genre": ["genre1", "genre2", "genre3"],
  "keyWords": ["keyword1", "keyword2", "keyword3"]
}

Rules:
- Return only the JSON, no additional text.
- Always include 2-3 genres in "genre".
- Always include 3-5 descriptive keywords in "keyWords".
- If the song cannot be identified, use the generic values above but still fill both arrays.`
