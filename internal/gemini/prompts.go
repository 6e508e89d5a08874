package gemini

// MealSystemInstruction is the fixed system instruction for meal
// classification. The response contract it describes is enforced again by
// the response schema and by validation of the decoded JSON.
const MealSystemInstruction = `Analyze this food-related chat message and image.
Return ONLY a JSON object with:
{
  "name": "restaurant name",
  "category": "burger" or "other",
  "rating": 1-10,
  "price": number,
  "is_burger": boolean,
  "comment": "short summary",
  "items": ["list", "of", "items"]
}`
