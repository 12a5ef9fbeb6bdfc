package importer

// SampleJSON is the template shown to users before they upload a
// document, kept small enough to read on a phone.
const SampleJSON = `{
  "title": "Solar System",
  "description": "Warm-up round",
  "timerSeconds": 30,
  "questions": [
    {
      "text": "Which planet is closest to the Sun?",
      "options": ["Venus", "Mercury", "Mars"],
      "correctOption": 1,
      "explanation": "Mercury orbits at about 58 million km."
    },
    {
      "text": "How many moons does Mars have?",
      "options": ["One", "Two", "Four"],
      "correctOption": 1
    }
  ]
}`
