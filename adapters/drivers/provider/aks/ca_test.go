package aks

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testCertificateDER(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return der
}

func TestNormalizeCertificates(t *testing.T) {
	der := testCertificateDER(t, "root-a")
	pemCert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	t.Run("der", func(t *testing.T) {
		got, err := normalizeCertificates(der)
		if err != nil {
			t.Fatalf("normalizeCertificates() error = %v", err)
		}
		if got != string(pemCert) {
			t.Errorf("normalizeCertificates() = %q", got)
		}
	})
	t.Run("pem with other blocks", func(t *testing.T) {
		in := append([]byte("comment\n"), pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}})...)
		in = append(in, pemCert...)
		got, err := normalizeCertificates(in)
		if err != nil {
			t.Fatalf("normalizeCertificates() error = %v", err)
		}
		if got != string(pemCert) {
			t.Errorf("normalizeCertificates() = %q", got)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if _, err := normalizeCertificates([]byte("not a certificate")); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("pem without certificates", func(t *testing.T) {
		if _, err := normalizeCertificates(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}})); err == nil {
			t.Error("expected error")
		}
	})
}

func TestFetchCABundle(t *testing.T) {
	derA := testCertificateDER(t, "root-a")
	derB := testCertificateDER(t, "root-b")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.pem":
			_ = pem.Encode(w, &pem.Block{Type: "CERTIFICATE", Bytes: derA})
		case "/b.crt":
			_, _ = w.Write(derB)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := &driver{httpClient: srv.Client()}
	got, err := d.fetchCABundle(context.Background(), []string{srv.URL + "/a.pem", srv.URL + "/b.crt"})
	if err != nil {
		t.Fatalf("fetchCABundle() error = %v", err)
	}
	if n := strings.Count(got, "-----BEGIN CERTIFICATE-----"); n != 2 {
		t.Errorf("bundle has %d certificates, want 2", n)
	}

	if _, err := d.fetchCABundle(context.Background(), []string{srv.URL + "/missing"}); err == nil {
		t.Error("expected error for missing certificate")
	}
}

func TestDatabaseCACertificateFromFile(t *testing.T) {
	der := testCertificateDER(t, "root-file")
	path := filepath.Join(t.TempDir(), "ca.crt")
	if err := os.WriteFile(path, der, 0o600); err != nil {
		t.Fatal(err)
	}
	d := &driver{settings: map[string]string{settingPostgresCAFile: path}}
	got, err := d.DatabaseCACertificate(context.Background(), nil)
	if err != nil {
		t.Fatalf("DatabaseCACertificate() error = %v", err)
	}
	if !strings.HasPrefix(got, "-----BEGIN CERTIFICATE-----") {
		t.Errorf("DatabaseCACertificate() = %q", got)
	}
}
