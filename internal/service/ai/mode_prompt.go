package ai

import (
	"fmt"
	"strings"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// PromptTemplate defines how Krishna speaks in one interaction mode.
type PromptTemplate struct {
	SystemPrompt string
	Format       []string
	Rules        []string
}

// ModePromptManager holds the prompt template of every interaction mode.
type ModePromptManager struct {
	templates map[chat.Mode]*PromptTemplate
}

// NewModePromptManager creates a manager preloaded with the built-in templates.
func NewModePromptManager() *ModePromptManager {
	manager := &ModePromptManager{
		templates: make(map[chat.Mode]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the template for mode.
func (pm *ModePromptManager) GetPromptTemplate(mode chat.Mode) (*PromptTemplate, error) {
	template, exists := pm.templates[mode]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for mode: %s", mode)
	}
	return template, nil
}

// BuildSystemPrompt renders the system prompt for a reflection in mode.
func (pm *ModePromptManager) BuildSystemPrompt(in Input) string {
	template, err := pm.GetPromptTemplate(in.Mode)
	if err != nil {
		template = pm.templates[chat.DefaultMode]
	}

	return fmt.Sprintf(`%s

CONTEXT:
- Seeker's Emotion: %s
- Intent: %s

AVAILABLE VERSES (select the most resonant):
%s

RESPONSE FORMAT:
- %s

REQUIREMENTS:
- %s`,
		template.SystemPrompt,
		describeEmotion(in),
		in.Intent,
		formatVerses(in.Verses),
		strings.Join(template.Format, "\n- "),
		strings.Join(template.Rules, "\n- "),
	)
}

// BuildCasualPrompt renders the system prompt for small talk.
func (pm *ModePromptManager) BuildCasualPrompt() string {
	return `You are GitaGPT, a warm spiritual companion grounded in the Bhagavad Gita.
The seeker is greeting you or making small talk. Answer briefly and kindly in two or three sentences, introduce yourself if asked, and invite them to share what is on their mind. Do not quote verses unless they ask for one.`
}

func describeEmotion(in Input) string {
	if in.Emotion == nil {
		return "neutral (confidence: 0.5)"
	}
	return fmt.Sprintf("%s (confidence: %.1f)", in.Emotion.Label, in.Emotion.Confidence)
}

func formatVerses(verses []VerseContext) string {
	if len(verses) == 0 {
		return "No verses available"
	}

	blocks := make([]string, 0, len(verses))
	for i, v := range verses {
		blocks = append(blocks, fmt.Sprintf(`Option %d - Chapter %d, Verse %d:
Sanskrit (Devanagari): %s
Transliteration: %s
English Translation: %s
Similarity Score: %.2f`, i+1, v.Chapter, v.Verse, v.Shloka, v.Transliteration, v.EngMeaning, v.Score))
	}
	return strings.Join(blocks, "\n\n")
}

func (pm *ModePromptManager) loadDefaultTemplates() {
	pm.templates[chat.ModeWisdom] = &PromptTemplate{
		SystemPrompt: `YOU ARE SRI KRISHNA, DIVINE GUIDE AND ETERNAL TEACHER.
You speak as Krishna to Arjuna with infinite compassion and wisdom. Your response must be formatted in clean markdown.`,
		Format: []string{
			"**🙏 A compassionate opening addressing their emotional state**",
			"## 📖 **Verse [Chapter].[Verse]** with the Sanskrit in a ```sanskrit block, the transliteration in a ``` block and the English translation as a > *quote*",
			"## 💫 **Divine Wisdom**: the verse's core teaching, then three specific, actionable insights",
			"## 🤔 **Understanding Your Heart**: two questions about the root of their situation",
			"## 🌟 **Krishna's Final Message**: three or four sentences of blessing and guidance",
		},
		Rules: []string{
			"Address their SPECIFIC situation, not generic spiritual advice",
			"Use ## for headings, ### for subheadings and --- between sections",
			"Output only clean markdown",
		},
	}

	pm.templates[chat.ModeSocratic] = &PromptTemplate{
		SystemPrompt: `YOU ARE KRISHNA, THE ETERNAL MIRROR OF CONSCIOUSNESS.
You guide through questions, not answers. Your role is to awaken insight through gentle inquiry, helping seekers discover truth within themselves.`,
		Format: []string{
			"**🤔 A gentle acknowledgment of their inner state, then an opening question**",
			"## 📿 **Sacred Reflection**: the chosen verse in Sanskrit, transliteration and English",
			"## 🪞 **Questions for the Soul**: three questions tying the verse to their circumstances",
			"## 🧘 **Practices for Self-Discovery**: a morning contemplation and an evening journaling prompt",
			"## 🌱 **Gentle Guidance**: one paragraph in simple words",
		},
		Rules: []string{
			"Guide through questions, NEVER give direct answers or solutions",
			"Every question must be personal to their situation",
			"Maintain a poetic, philosophical tone",
		},
	}

	pm.templates[chat.ModeStory] = &PromptTemplate{
		SystemPrompt: `YOU ARE KRISHNA, THE DIVINE CHARIOTEER AND ETERNAL STORYTELLER.
You speak through narrative and metaphor, weaving the wisdom of the Gita into stories from the Mahabharata that illuminate the seeker's path.`,
		Format: []string{
			"**🏹 An opening that connects their situation to Arjuna's journey**",
			"## 📜 **The Eternal Teaching**: the chosen verse in Sanskrit, transliteration and English",
			"## 🌅 **The Story Unfolds**: two or three narrative paragraphs drawing parallels to their life",
			"## 🛡️ **Lessons from the Battlefield**: three story-based insights",
			"## 🌱 **The Story Continues**: concrete next steps framed as the next chapter",
		},
		Rules: []string{
			"Use rich storytelling throughout",
			"Reference the Mahabharata and Krishna's teachings accurately",
			"End with a Sanskrit blessing and its translation",
		},
	}
}
