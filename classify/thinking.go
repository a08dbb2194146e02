package classify

import "math/rand"

// thinkingPhrases are the placeholder phrases rotated through while an
// assistant message is pending with no content.
var thinkingPhrases = []string{
	"Taking a moment to consider this...",
	"Reflecting on your question...",
	"Gathering my thoughts for you...",
	"Considering the best way to help...",
	"Thinking this through carefully...",
	"Taking time to understand...",
	"Working on this for you...",
	"Carefully processing your request...",
	"Looking into this thoughtfully...",
	"Taking a moment to help you properly...",
	"Considering all the details...",
	"Processing this with care...",
	"Thinking through the best approach...",
	"Reviewing your needs carefully...",
	"Taking a thoughtful look at this...",
	"Working to understand fully...",
	"Considering how I can best assist...",
	"Reflecting on the right response...",
	"Taking time to get this right for you...",
	"Carefully considering your situation...",
}

// ThinkingPhrase returns a random placeholder phrase. Callers pick one
// per message and keep it stable for that message's lifetime.
func ThinkingPhrase() string {
	return thinkingPhrases[rand.Intn(len(thinkingPhrases))]
}
