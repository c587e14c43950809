package aquictest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TLSPair is a matching server and client TLS configuration
// backed by a throwaway self-signed certificate
// valid for localhost and 127.0.0.1.
type TLSPair struct {
	Server *tls.Config
	Client *tls.Config

	Cert *x509.Certificate
}

// NewTLSPair generates a new certificate and returns a TLSPair.
// Both configs advertise the given ALPN protocols.
func NewTLSPair(t testing.TB, nextProtos ...string) TLSPair {
	t.Helper()

	pubKey, privKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	require.NoError(t, err)

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Test Proof Server"},
			CommonName:   "localhost",
		},
		NotBefore: now.Add(-time.Minute),
		NotAfter:  now.Add(time.Hour),

		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1)},

		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	template.KeyUsage |= x509.KeyUsageCertSign

	der, err := x509.CreateCertificate(rand.Reader, template, template, pubKey, privKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert)

	return TLSPair{
		Server: &tls.Config{
			Certificates: []tls.Certificate{
				{
					Certificate: [][]byte{der},
					PrivateKey:  privKey,

					Leaf: cert,
				},
			},
			NextProtos: nextProtos,
		},
		Client: &tls.Config{
			RootCAs:    pool,
			NextProtos: nextProtos,
		},

		Cert: cert,
	}
}
