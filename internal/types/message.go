package types

// Message is one decoded message from the update stream.
//
// ChatID is zero when the owning chat could not be resolved; that is valid
// for the empty-message variant but an invariant violation when persisting
// a new or edited event. Date is unix seconds, zero when absent. Raw is the
// client's opaque serialized form of the whole message object.
type Message struct {
	ID     int64
	ChatID int64
	Date   int64
	Text   string
	Raw    []byte
	Media  Media // nil when the message carries no attachment
}

// Update is the closed set of update-stream variants the archiver reacts
// to. Anything the remote service sends beyond these arrives as
// UnknownUpdate and is ignored.
type Update interface {
	isUpdate()
}

// NewMessage is a freshly received message.
type NewMessage struct {
	Msg Message
}

// EditedMessage is a message the sender has since edited.
type EditedMessage struct {
	Msg Message
}

// DeletedMessages reports message deletions. The remote protocol does not
// say which chat the ids belonged to.
type DeletedMessages struct {
	IDs []int64
}

// UnknownUpdate is any update kind the archiver does not record.
type UnknownUpdate struct {
	Kind string
}

func (NewMessage) isUpdate()      {}
func (EditedMessage) isUpdate()   {}
func (DeletedMessages) isUpdate() {}
func (UnknownUpdate) isUpdate()   {}
