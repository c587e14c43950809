package aserve

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/aquic"
	"github.com/gordian-engine/allotree/arecord"
	"github.com/gordian-engine/allotree/internal/abitset"
)

// Client requests proofs from a [Server] over an established connection.
type Client struct {
	Conn aquic.Conn

	// Deadline for each stream's writes and reads.
	// Zero means no deadline.
	Timeout time.Duration
}

// Prove opens a new stream on c.Conn and requests a proof of req.
//
// If the server does not have req, the error is [allotree.AllocationNotFoundError].
// If the server rejected the request, the error is [RequestError].
func (c Client) Prove(ctx context.Context, req ProofRequest) (ProofResponse, *bitset.BitSet, error) {
	st, err := c.Conn.OpenStreamSync(ctx)
	if err != nil {
		return ProofResponse{}, nil, fmt.Errorf("failed to open proof stream: %w", err)
	}

	return RequestProof(st, c.Timeout, req)
}

// CheckMembership opens a new stream on c.Conn
// and asks which of records are in the served tree.
// Bit i of the returned bitset is set when records[i] is present.
//
// If the server rejected the request, the error is [RequestError].
func (c Client) CheckMembership(ctx context.Context, records []arecord.Record) (MembershipResponse, *bitset.BitSet, error) {
	st, err := c.Conn.OpenStreamSync(ctx)
	if err != nil {
		return MembershipResponse{}, nil, fmt.Errorf("failed to open membership stream: %w", err)
	}

	return RequestMembership(st, c.Timeout, records)
}

// RequestProof runs the client side of a single proof exchange on st.
func RequestProof(st aquic.Stream, timeout time.Duration, req ProofRequest) (ProofResponse, *bitset.BitSet, error) {
	if err := sendRequest(st, timeout, ProtocolID, req); err != nil {
		return ProofResponse{}, nil, err
	}

	var resp ProofResponse
	status, err := readResponse(st, &resp)
	if err != nil {
		return ProofResponse{}, nil, err
	}

	switch status {
	case StatusOK:
		// Handled below.
	case StatusNotFound:
		return resp, nil, allotree.AllocationNotFoundError{Record: req}
	case StatusInvalid:
		return resp, nil, RequestError{Msg: resp.Error}
	default:
		return resp, nil, UnexpectedStatusError{Status: status}
	}

	nSiblings := len(resp.Calldata) - 4
	if nSiblings < 0 {
		return resp, nil, fmt.Errorf(
			"proof response has %d calldata elements, need at least 4",
			len(resp.Calldata),
		)
	}

	path := bitset.New(uint(nSiblings))
	var dec abitset.RawDecoder
	// Deadline was already set for the whole exchange.
	if err := dec.ReceiveBitset(st, 0, path); err != nil {
		return resp, nil, fmt.Errorf("failed to receive proof path: %w", err)
	}

	return resp, path, nil
}

// RequestMembership runs the client side of a single membership exchange on st.
func RequestMembership(st aquic.Stream, timeout time.Duration, records []arecord.Record) (MembershipResponse, *bitset.BitSet, error) {
	if err := sendRequest(st, timeout, MembershipProtocolID, MembershipRequest{Records: records}); err != nil {
		return MembershipResponse{}, nil, err
	}

	var resp MembershipResponse
	status, err := readResponse(st, &resp)
	if err != nil {
		return MembershipResponse{}, nil, err
	}

	switch status {
	case StatusOK:
		// Handled below.
	case StatusInvalid:
		return resp, nil, RequestError{Msg: resp.Error}
	default:
		return resp, nil, UnexpectedStatusError{Status: status}
	}

	found := bitset.New(uint(len(records)))
	var dec abitset.AdaptiveDecoder
	if err := dec.ReceiveBitset(st, 0, found); err != nil {
		return resp, nil, fmt.Errorf("failed to receive membership bitset: %w", err)
	}

	if got := int(found.Count()); got != resp.Found {
		return resp, nil, fmt.Errorf(
			"membership bitset has %d records set but response reports %d",
			got, resp.Found,
		)
	}

	return resp, found, nil
}

// sendRequest sets the exchange deadlines, writes the framed request,
// and closes the send side of st.
func sendRequest(st aquic.Stream, timeout time.Duration, pid byte, req any) error {
	if timeout > 0 {
		deadline := time.Now().Add(timeout)
		if err := st.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
		if err := st.SetReadDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	out, err := appendFrame([]byte{pid}, req)
	if err != nil {
		return err
	}
	if _, err := st.Write(out); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("failed to close request side of stream: %w", err)
	}
	return nil
}

func readResponse(st aquic.Stream, resp any) (Status, error) {
	var sb [1]byte
	if _, err := io.ReadFull(st, sb[:]); err != nil {
		return 0, fmt.Errorf("failed to read response status: %w", err)
	}

	if err := readFrame(st, resp); err != nil {
		return 0, err
	}
	return Status(sb[0]), nil
}
