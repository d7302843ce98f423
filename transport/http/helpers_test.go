// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/conduit/event"

	"github.com/stretchr/testify/require"
)

var echoProcessor = ProcessorFunc(func(ctx context.Context, h *Handle, body []byte, ex Exchange) (Result, error) {
	return Completed(body), nil
})

func startServer(t *testing.T, p Processor, cfg Config, opts ...ServerOption) *Server {
	t.Helper()

	srv := NewServer(p, opts...)
	ctx := context.Background()
	require.NoError(t, srv.Init(ctx, cfg))
	require.NoError(t, srv.Listen(ctx, 0, "127.0.0.1"))
	t.Cleanup(func() {
		srv.Close()
	})
	return srv
}

func portOf(t *testing.T, srv *Server) int {
	t.Helper()

	addr, ok := srv.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}

// freePort returns a port nothing is listening on.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

type recorded[K comparable, E any] struct {
	Kind  K
	Event E
}

type recorder[K comparable, E any] struct {
	mu     sync.Mutex
	events []recorded[K, E]
	errs   []*event.Error
}

func (r *recorder[K, E]) on(kind K) event.Handler[E] {
	return func(ctx context.Context, e E) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, recorded[K, E]{Kind: kind, Event: e})
	}
}

func (r *recorder[K, E]) onError(ctx context.Context, err *event.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[K, E]) kinds() []K {
	r.mu.Lock()
	defer r.mu.Unlock()

	ks := make([]K, 0, len(r.events))
	for _, e := range r.events {
		ks = append(ks, e.Kind)
	}
	return ks
}

func (r *recorder[K, E]) snapshot() []recorded[K, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded[K, E](nil), r.events...)
}

func (r *recorder[K, E]) errors() []*event.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*event.Error(nil), r.errs...)
}

func (r *recorder[K, E]) count(kind K) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func recordServer(srv *Server) *recorder[ServerEventKind, ServerEvent] {
	rec := new(recorder[ServerEventKind, ServerEvent])
	for _, kind := range []ServerEventKind{ServerInit, ServerConnect, ServerReceive, ServerRespond} {
		srv.On(kind, rec.on(kind))
	}
	srv.OnError(rec.onError)
	return rec
}

func recordClient(c *Client) *recorder[ClientEventKind, ClientEvent] {
	rec := new(recorder[ClientEventKind, ClientEvent])
	kinds := []ClientEventKind{
		ClientInit,
		ClientSend,
		ClientConnect,
		ClientReceive,
		ClientDisconnect,
		ClientHandshake,
	}
	for _, kind := range kinds {
		c.On(kind, rec.on(kind))
	}
	c.OnError(rec.onError)
	return rec
}

// writeSelfSignedCert writes a PEM encoded key pair valid for 127.0.0.1
// and localhost and returns the parsed certificate.
func writeSelfSignedCert(t *testing.T, dir string) (SSL, *x509.Certificate) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	require.NoError(t, err)

	ssl := SSL{
		Cert: filepath.Join(dir, "cert.pem"),
		Key:  filepath.Join(dir, "key.pem"),
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	require.NoError(t, os.WriteFile(ssl.Cert, certPEM, 0o600))
	require.NoError(t, os.WriteFile(ssl.Key, keyPEM, 0o600))
	return ssl, cert
}
