package shop

// Control tokens carried by navigation buttons.
const (
	PayloadCart     = "cart"
	PayloadBack     = "back"
	PayloadMainMenu = "main_menu"
)

// Button is a single inline button.
type Button struct {
	Label   string
	Payload string
}

// Keyboard is an ordered list of button rows.
type Keyboard [][]Button

// Action is the outbound effect produced for an event. The set of implementations is closed.
type Action interface {
	isAction()
}

// ReplyText sends a new text message.
type ReplyText struct {
	Text     string
	Keyboard Keyboard
}

// ReplacePhoto deletes the message that carried the pressed button and sends a photo in its place.
type ReplacePhoto struct {
	PhotoURL string
	Caption  string
	Keyboard Keyboard
}

// ReplyTextReplacingPrior deletes the message that carried the pressed button and sends text in its place.
type ReplyTextReplacingPrior struct {
	Text     string
	Keyboard Keyboard
}

// NoReply leaves the conversation unchanged.
type NoReply struct{}

func (ReplyText) isAction()               {}
func (ReplacePhoto) isAction()            {}
func (ReplyTextReplacingPrior) isAction() {}
func (NoReply) isAction()                 {}
