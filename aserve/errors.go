package aserve

import "fmt"

// RequestError is returned from [Client.Prove] and [Client.CheckMembership]
// when the server rejected the request as invalid.
type RequestError struct {
	Msg string
}

func (e RequestError) Error() string {
	return "proof request rejected: " + e.Msg
}

// UnexpectedStatusError is returned from the [Client] methods
// when the server replied with a status byte the client does not know.
type UnexpectedStatusError struct {
	Status Status
}

func (e UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected proof response status %s", e.Status)
}
