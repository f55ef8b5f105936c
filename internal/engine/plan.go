package engine

// Choice is one selectable option attached to a message. The presentation
// adapter renders it as a button and feeds ActionID back via OnUserAction.
type Choice struct {
	Label    string `json:"label"`
	ActionID string `json:"action_id"`
}

// Message is one outbound chat message.
type Message struct {
	Body string `json:"body"`
	// Choices, when present, is rendered as a menu under the message.
	Choices []Choice `json:"choices,omitempty"`
	// DeletePrevious hints the adapter to remove its previous prompt
	// (used for transient "analyzing" notices and menu dismissal).
	DeletePrevious bool `json:"delete_previous,omitempty"`
}

// Plan is the ordered sequence of messages produced for one inbound event.
type Plan struct {
	Messages []Message `json:"messages"`
}

func (p *Plan) say(body string) {
	p.Messages = append(p.Messages, Message{Body: body})
}

func (p *Plan) offer(body string, choices []Choice) {
	p.Messages = append(p.Messages, Message{Body: body, Choices: choices})
}

func (p *Plan) replace(body string, choices []Choice) {
	p.Messages = append(p.Messages, Message{Body: body, Choices: choices, DeletePrevious: true})
}
