// Package aquic wraps the subset of quic-go used by the proof service
// behind small interfaces, so that handlers can be tested
// against in-memory streams.
package aquic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/quic-go/quic-go"
)

// ApplicationErrorCode is used for [Conn.CloseWithError].
type ApplicationErrorCode uint64

// Conn is the interface representing a QUIC connection.
//
// This is a subset of the methods on [*quic.Conn].
type Conn interface {
	AcceptStream(context.Context) (Stream, error)

	// OpenStream is never called; only the blocking variant.
	OpenStreamSync(context.Context) (Stream, error)

	CloseWithError(
		code ApplicationErrorCode, msg string,
	) error

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

var _ Conn = ConnAdapter{}

// ConnAdapter wraps a [*quic.Conn], implementing the [Conn] interface.
//
// Create an instance with [WrapConn].
type ConnAdapter struct {
	qc *quic.Conn
}

// WrapConn wraps the given connection,
// returning a value implementing [Conn].
func WrapConn(qc *quic.Conn) ConnAdapter {
	return ConnAdapter{qc: qc}
}

func (c ConnAdapter) AcceptStream(ctx context.Context) (Stream, error) {
	s, err := c.qc.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return WrapStream(s), nil
}

func (c ConnAdapter) OpenStreamSync(ctx context.Context) (Stream, error) {
	s, err := c.qc.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return WrapStream(s), nil
}

func (c ConnAdapter) CloseWithError(
	code ApplicationErrorCode, msg string,
) error {
	if (code >> 62) > 0 {
		panic(fmt.Errorf(
			"BUG: application error code must fit in 62 bits (got 0x%x)", code,
		))
	}
	return c.qc.CloseWithError(quic.ApplicationErrorCode(code), msg)
}

func (c ConnAdapter) LocalAddr() net.Addr { return c.qc.LocalAddr() }

func (c ConnAdapter) RemoteAddr() net.Addr { return c.qc.RemoteAddr() }

// Listener accepts incoming QUIC connections.
type Listener interface {
	Accept(context.Context) (Conn, error)
	Addr() net.Addr
	Close() error
}

var _ Listener = ListenerAdapter{}

// ListenerAdapter wraps a [*quic.Listener] to satisfy [Listener].
type ListenerAdapter struct {
	ql *quic.Listener
}

// WrapListener wraps ql into a ListenerAdapter.
func WrapListener(ql *quic.Listener) ListenerAdapter {
	return ListenerAdapter{ql: ql}
}

func (l ListenerAdapter) Accept(ctx context.Context) (Conn, error) {
	qc, err := l.ql.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return WrapConn(qc), nil
}

func (l ListenerAdapter) Addr() net.Addr { return l.ql.Addr() }

func (l ListenerAdapter) Close() error { return l.ql.Close() }

// Listen starts a QUIC listener on the given UDP address.
func Listen(addr string, tlsConf *tls.Config, cfg *quic.Config) (ListenerAdapter, error) {
	ql, err := quic.ListenAddr(addr, tlsConf, cfg)
	if err != nil {
		return ListenerAdapter{}, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return WrapListener(ql), nil
}

// Dial opens a QUIC connection to addr.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, cfg *quic.Config) (Conn, error) {
	qc, err := quic.DialAddr(ctx, addr, tlsConf, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return WrapConn(qc), nil
}
