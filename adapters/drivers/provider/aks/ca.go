package aks

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/yaegashi/botpressops/domain/model"
)

// postgresCACertURLs are the roots Azure Database for PostgreSQL server
// certificates chain to.
var postgresCACertURLs = []string{
	"https://cacerts.digicert.com/DigiCertGlobalRootCA.crt.pem",
	"https://cacerts.digicert.com/DigiCertGlobalRootG2.crt.pem",
	"https://www.microsoft.com/pkiops/certs/Microsoft%20RSA%20Root%20Certificate%20Authority%202017.crt",
}

const maxCACertSize = 1 << 20

// DatabaseCACertificate returns the PEM bundle for verifying the flexible
// server, read from AZURE_POSTGRES_CA_FILE when set or downloaded otherwise.
func (d *driver) DatabaseCACertificate(ctx context.Context, db *model.DatabaseCluster) (_ string, err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DatabaseCACertificate")
	defer func() { cleanup(err) }()

	if path := d.setting(settingPostgresCAFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", settingPostgresCAFile, err)
		}
		return normalizeCertificates(data)
	}
	return d.fetchCABundle(ctx, postgresCACertURLs)
}

func (d *driver) fetchCABundle(ctx context.Context, urls []string) (string, error) {
	client := d.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	var bundle bytes.Buffer
	for _, u := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return "", fmt.Errorf("build request for %s: %w", u, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("download CA certificate %s: %w", u, err)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxCACertSize))
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("read CA certificate %s: %w", u, err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("download CA certificate %s: %s", u, resp.Status)
		}
		pemText, err := normalizeCertificates(data)
		if err != nil {
			return "", fmt.Errorf("CA certificate %s: %w", u, err)
		}
		bundle.WriteString(pemText)
	}
	return bundle.String(), nil
}

// normalizeCertificates accepts PEM or DER input and returns the certificates
// as concatenated PEM blocks. Non-certificate PEM blocks are dropped.
func normalizeCertificates(data []byte) (string, error) {
	var out bytes.Buffer
	if bytes.Contains(data, []byte("-----BEGIN")) {
		rest := data
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				break
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			if _, err := x509.ParseCertificate(block.Bytes); err != nil {
				return "", fmt.Errorf("parse certificate: %w", err)
			}
			if err := pem.Encode(&out, &pem.Block{Type: "CERTIFICATE", Bytes: block.Bytes}); err != nil {
				return "", err
			}
		}
	} else {
		if _, err := x509.ParseCertificate(data); err != nil {
			return "", fmt.Errorf("parse DER certificate: %w", err)
		}
		if err := pem.Encode(&out, &pem.Block{Type: "CERTIFICATE", Bytes: data}); err != nil {
			return "", err
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no certificates found")
	}
	return out.String(), nil
}
