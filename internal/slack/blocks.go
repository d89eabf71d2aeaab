package slack

// Block Kit subset used by this bot: header, section, divider, context.
// https://api.slack.com/block-kit

type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

type TextObject struct {
	Type string `json:"type"` // "plain_text" or "mrkdwn"
	Text string `json:"text"`
}

func Header(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: "plain_text", Text: text}}
}

func Section(mrkdwn string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: mrkdwn}}
}

func Divider() Block {
	return Block{Type: "divider"}
}

func Context(mrkdwn string) Block {
	return Block{Type: "context", Elements: []TextObject{{Type: "mrkdwn", Text: mrkdwn}}}
}
