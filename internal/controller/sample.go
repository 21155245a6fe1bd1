package controller

// SampleScript is loaded by ScriptEditor.UseSample.
const SampleScript = `Title: A Romantic Dinner

Scene: A cosy restaurant
Time: evening
Mood: romantic, warm

Characters:
- Ming: 25 year old man, gentle and polite, wearing a white shirt
- Ya: 23 year old woman, sweet and cheerful, wearing a pink dress

Scene: The first course
Ming: The moonlight is beautiful tonight, just like you.
Ya: You always know what to say.
Ming: With you I run out of words, so I only say what I really feel.

Scene: Dessert on the terrace
Ya: This place is lovely.
Ming: I picked it for you. I hope you like it.
Ya: I love it. Thank you for the thought.
`
