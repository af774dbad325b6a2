package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	ecies "github.com/ecies/go"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

var ErrInvalidSignature = errors.New("invalid signature")

func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ethcrypto.GenerateKey()
}

// LoadKey reads a hex encoded secp256k1 private key.
func LoadKey(keyFile string) (*ecdsa.PrivateKey, error) {
	return ethcrypto.LoadECDSA(keyFile)
}

func SaveKey(keyFile string, key *ecdsa.PrivateKey) error {
	return ethcrypto.SaveECDSA(keyFile, key)
}

func Address(key *ecdsa.PrivateKey) common.Address {
	return ethcrypto.PubkeyToAddress(key.PublicKey)
}

func Hash(message []byte) common.Hash {
	return ethcrypto.Keccak256Hash(message)
}

// Sign returns a 65 byte compact recoverable signature over keccak256(message).
func Sign(key *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	hash := Hash(message)
	privKey, _ := btcec.PrivKeyFromBytes(btcec.S256(), ethcrypto.FromECDSA(key))
	return btcec.SignCompact(btcec.S256(), privKey, hash.Bytes(), false)
}

// Recover returns the address that produced signature over message.
func Recover(message []byte, signature []byte) (common.Address, error) {
	if len(signature) != signatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	hash := Hash(message)
	pubKey, _, err := btcec.RecoverCompact(btcec.S256(), signature, hash.Bytes())
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return ethcrypto.PubkeyToAddress(*pubKey.ToECDSA()), nil
}

func Verify(address common.Address, message []byte, signature []byte) bool {
	signer, err := Recover(message, signature)
	if err != nil {
		return false
	}
	return signer == address
}

// CheckPubKey validates a hex encoded secp256k1 public key, compressed or not.
func CheckPubKey(pubKeyHex string) error {
	pubKey, err := hex.DecodeString(strings.TrimPrefix(pubKeyHex, "0x"))
	if err != nil {
		return err
	}
	_, err = btcec.ParsePubKey(pubKey, btcec.S256())
	return err
}

// Encrypt encrypts message to the hex encoded public key with ECIES.
func Encrypt(pubKeyHex string, message []byte) ([]byte, error) {
	key, err := ecies.NewPublicKeyFromHex(strings.TrimPrefix(pubKeyHex, "0x"))
	if err != nil {
		return nil, err
	}
	return ecies.Encrypt(key, message)
}

func Decrypt(privKeyHex string, encrypted []byte) ([]byte, error) {
	key, err := ecies.NewPrivateKeyFromHex(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, err
	}
	return ecies.Decrypt(key, encrypted)
}
