package gemini

// transcribePrompt requests a timestamped segment array for one window.
// Args: window start offset (seconds), window duration (seconds).
const transcribePrompt = `Please transcribe this audio for captioning TV shows, videocasts, or webnovels, with accurate timestamps.
This audio chunk starts at %.2f seconds in the original video and is %.2f seconds long.

IMPORTANT: In addition to speech, also identify:
- Music: Describe the music style or mood and mark as "[♪ Upbeat jazz music ♪]" or similar
- Sound effects: Describe important sounds and mark as "[Sound: door slamming]" or similar
- Ambient noise: Note significant background sounds like "[Crowd chattering]"
- Silence: If there's silence but contextually important, indicate as "[Silence]" or "[Tense silence]"

Ensure each caption segment is self-contained and meaningful to viewers. Split long sentences at natural breaks.

Return the result as a JSON array with each segment containing:
1. "text": The transcribed text, including speech AND non-speech elements
2. "start": Start time in seconds (relative to the start of this chunk)
3. "end": End time in seconds (relative to the start of this chunk)
4. "type": "speech" for spoken dialogue, "music" for music, "sound" for sound effects, "silence" for meaningful silence

Format:
[
    {"text": "This is the first segment", "start": 0.0, "end": 2.5, "type": "speech"},
    {"text": "[♪ Upbeat music ♪]", "start": 2.5, "end": 5.0, "type": "music"},
    {"text": "[Sound: door slamming]", "start": 5.0, "end": 5.5, "type": "sound"},
    {"text": "[Tense silence]", "start": 5.5, "end": 8.0, "type": "silence"}
]

For audio content you can't understand clearly, mark it as "[unintelligible]".
Make sure the timestamps are accurate and reflect the actual timing of speech and sounds.`

// classifyPrompt asks for a single {type, text} object describing one
// gap slice. Args: gap start, gap end (seconds).
const classifyPrompt = `Analyze this audio gap between %.2fs and %.2fs.

Determine if it contains:
1. Music or background score
2. Sound effects
3. Ambient noise
4. Meaningful silence

Only return a JSON object with:
- "type": one of "music", "sound", "silence"
- "text": description of what you hear, formatted as "[♪ Music description ♪]", "[Sound: sound description]", or "[Silence]"

Format:
{"type": "music", "text": "[♪ Suspenseful music ♪]"}
{"type": "sound", "text": "[Sound: footsteps approaching]"}
{"type": "silence", "text": "[Tense silence]"}

If there's nothing meaningful, simply return {"type": "silence", "text": "[Silence]"}`

// optimizePrompt requests the single global timing pass. Text and
// ordering must be preserved; only boundaries may move. Arg: the
// serialized segment array.
const optimizePrompt = `I have a set of caption segments for a video that need timing optimization.
The goal is to make the captions more readable and properly timed for viewers.

Here are the current segments:
%s

Please analyze these segments and optimize the timing based on these rules:

1. Speech segments should align with natural speech patterns and sentence breaks
2. Music and sound segments should have appropriate durations (not too short)
3. Combine very short segments that are part of the same sentence
4. Ensure gaps between captions are appropriate for readability
5. Maintain original ordering but adjust start/end times
6. Don't change the content of the text, only the timing

Return the optimized segments as a JSON array with the same structure, preserving all fields.`
