package bus

// Message pairs a topic with the payload to send on it.
type Message struct {
	Topic   string
	Payload any
}
