// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"crypto/tls"
	"time"
)

// SSL holds the file paths of a PEM encoded key pair.
type SSL struct {
	Key  string `config:"key"`
	Cert string `config:"cert"`
}

// TLSConfig loads the key pair into a server side [tls.Config].
func (s SSL) TLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.Cert, s.Key)
	if err != nil {
		return nil, ConfigError{Cause: err}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}, nil
}

// Config is handed to [Server.Init].
type Config struct {
	// SSL switches the server to HTTPS when set.
	SSL *SSL `config:"ssl"`

	// ProcessTimeout bounds how long a processor may take per exchange.
	// Zero disables the bound.
	ProcessTimeout time.Duration `config:"processTimeout"`
}

// ClientConfig is handed to [Client.Init]. Its fields become the binding
// layer of every request's options.
type ClientConfig struct {
	Scheme string            `config:"scheme"`
	Host   string            `config:"host"`
	Port   int               `config:"port"`
	Header map[string]string `config:"header"`
}

func (c ClientConfig) requestOptions() RequestOptions {
	ro := RequestOptions{
		Scheme: c.Scheme,
		Host:   c.Host,
		Port:   c.Port,
	}
	if len(c.Header) == 0 {
		return ro
	}
	ro.Header = make(map[string][]string, len(c.Header))
	for k, v := range c.Header {
		ro.Header[k] = []string{v}
	}
	return ro
}
