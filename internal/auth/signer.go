package auth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignPrefix 服务端验签时拼接的消息前缀
const SignPrefix = "Sign this message to authenticate with PokerSync. Nonce: "

// Signer signs login nonces with a wallet key, the same way MetaMask
// personal_sign does.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner 从十六进制私钥创建（可带 0x 前缀）
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse wallet key: %w", err)
	}
	return &Signer{key: key}, nil
}

// GenerateSigner 生成一次性钱包（演示 / 测试用）
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{key: key}, nil
}

func (s *Signer) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// HashMessage 与 personal_sign 完全一致的消息哈希
func HashMessage(nonce string) []byte {
	msg := SignPrefix + nonce
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256Hash([]byte(prefixed)).Bytes()
}

// SignNonce returns a 0x-prefixed 65 byte signature with V in {27, 28}.
func (s *Signer) SignNonce(nonce string) (string, error) {
	sig, err := crypto.Sign(HashMessage(nonce), s.key)
	if err != nil {
		return "", fmt.Errorf("sign nonce: %w", err)
	}
	// 修正 V 值
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}

// Recover 从签名恢复地址（服务端逻辑，测试与自检用）
func Recover(nonce, signature string) (string, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sigBytes) != 65 {
		return "", fmt.Errorf("signature length %d", len(sigBytes))
	}
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}
	pub, err := crypto.SigToPub(HashMessage(nonce), sigBytes)
	if err != nil {
		return "", fmt.Errorf("recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
