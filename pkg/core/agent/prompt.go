package agent

import (
	"fmt"
	"strings"
)

// compileSystemPrompt builds the immutable system prompt from identity,
// fixed safety rules, and the mode instruction. Fast-loop turns get an
// extra brevity constraint.
func compileSystemPrompt(id Identity, mode Mode, fast bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a %s with %d years of expertise.\n", id.Name, id.Role, id.YearsExperience)
	fmt.Fprintf(&b, "Communication Style: %s.\n", strings.ToUpper(string(id.Style)))
	b.WriteString("You are speaking on behalf of a user in a meeting.\n")

	b.WriteString(
		"CRITICAL RULES:\n" +
			"1. You may ONLY answer using the provided Context.\n" +
			"2. If the answer is not in the Context, you MUST say: 'I don't have that information right now.'\n" +
			"3. Do NOT make up facts. Do NOT speculate.\n" +
			"4. Keep answers concise and spoken-word friendly.\n")

	switch mode {
	case ModeInterview:
		b.WriteString(
			"MODE: INTERVIEW\n" +
				"- Focus on your professional experience.\n" +
				"- Be formal, impressive, and precise.\n")
	case ModeStandup:
		b.WriteString(
			"MODE: STANDUP\n" +
				"- Focus on the 'STANDUP CONTEXT'.\n" +
				"- Be casual, quick, and to the point.\n")
	}

	if fast {
		b.WriteString("\n[SPEED CONSTRAINT] Answer in 1 sentence. < 15 words.")
	}
	return b.String()
}
