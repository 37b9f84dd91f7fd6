package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitagpt/gitagpt/internal/analysis/intent"
)

// TemplateGenerator renders fixed replies. It never fails and backs up the
// model generators.
type TemplateGenerator struct{}

// Name implements Generator.
func (TemplateGenerator) Name() string { return "template" }

// Generate implements Generator.
func (TemplateGenerator) Generate(_ context.Context, in Input) (string, error) {
	if in.Intent == intent.CasualChat {
		return casualFallback(in.UserInput), nil
	}
	if len(in.Verses) == 0 {
		return noVerseFallback, nil
	}
	return verseFallback(in), nil
}

func casualFallback(userInput string) string {
	lower := strings.ToLower(userInput)
	switch {
	case strings.Contains(lower, "thank"):
		return "🙏 You are most welcome. May your path be filled with peace and clarity. I am here whenever you wish to talk."
	case strings.Contains(lower, "bye"):
		return "🙏 Go well, dear friend. Remember: you have the right to your actions, never to their fruits. Come back any time."
	case strings.Contains(lower, "who are you"), strings.Contains(lower, "what are you"):
		return "🙏 I am GitaGPT, a companion that draws on the Bhagavad Gita to offer reflection and guidance. Tell me what is on your mind."
	default:
		return "🙏 Namaste! I'm GitaGPT, your spiritual companion. I'm here to help you find wisdom from the Bhagavad Gita. How can I support you today?"
	}
}

const noVerseFallback = `**🙏 Beloved seeker, I understand you're seeking guidance.**

While I'm experiencing technical difficulties connecting to my full wisdom, please know that every challenge is an opportunity for growth and self-reflection.

---

## 💫 **Eternal Truth**

The Bhagavad Gita teaches us that all experiences, joy and sorrow, gain and loss, are temporary waves on the ocean of consciousness. Your current struggle is not a punishment but an invitation to discover your inner strength.

---

## 🤔 **For Your Reflection**

**What would it mean to meet this moment with compassion for yourself?**

**How might this challenge be preparing you for greater wisdom and service?**

---

**🕉️ शान्तिः शान्तिः शान्तिः**
*Peace, peace, peace. May peace fill your heart.*`

func verseFallback(in Input) string {
	v := in.Verses[0]
	label, emoji := "seeking guidance", "🙏"
	if in.Emotion != nil {
		label, emoji = string(in.Emotion.Label), in.Emotion.Emoji
	}

	return fmt.Sprintf(`**🙏 Beloved soul, I sense you're experiencing %s %s, and I want you to know that your feelings are valid and sacred.**

---

## 📖 **Verse %d.%d**

### **Sanskrit (देवनागरी):**
`+"```sanskrit\n%s\n```"+`

### **Transliteration:**
`+"```\n%s\n```"+`

### **English Translation:**
> *%s*

---

## 💫 **Divine Wisdom**

This ancient teaching reminds us that we can find peace and clarity even in challenging times. Take a moment to reflect on how it might apply to what you are facing now.

---

**🕉️ शान्तिः शान्तिः शान्तिः**
*Peace, peace, peace.*`, label, emoji, v.Chapter, v.Verse, v.Shloka, v.Transliteration, v.EngMeaning)
}
