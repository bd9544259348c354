package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"log"
	"os"
)

// Writes an ECDSA P-256 key pair that `tag --signing-key` accepts.
func createSigningKey() ([]byte, []byte, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	keyBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return nil, nil, err
	}

	pubPem := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: keyBytes})
	privPem := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})

	return pubPem, privPem, nil
}

func main() {
	priv := flag.String("key", "tag.key", "Path the private key is written to.")
	pub := flag.String("pub", "tag.pub", "Path the public key is written to.")
	flag.Parse()

	pubPem, privPem, err := createSigningKey()
	if err != nil {
		log.Fatal("Error creating signing key: ", err)
	}
	if err := os.WriteFile(*priv, privPem, 0o600); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*pub, pubPem, 0o644); err != nil {
		log.Fatal(err)
	}
}
