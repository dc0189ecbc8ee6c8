package services

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var errUnsupportedHash = errors.New("unsupported password hash")

// Werkzeug defaults when a method string omits its parameters.
const (
	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptKeyLen     = 64
)

// isWerkzeugHash reports whether stored looks like "method$salt$hexdigest"
// as written by werkzeug's generate_password_hash.
func isWerkzeugHash(stored string) bool {
	return strings.HasPrefix(stored, "pbkdf2") || strings.HasPrefix(stored, "scrypt")
}

// checkWerkzeugHash verifies password against a werkzeug pbkdf2 or scrypt hash.
func checkWerkzeugHash(stored, password string) (bool, error) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false, fmt.Errorf("%w: malformed", errUnsupportedHash)
	}
	method, salt, digest := parts[0], parts[1], parts[2]

	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false, fmt.Errorf("%w: digest is not hex", errUnsupportedHash)
	}

	args := strings.Split(method, ":")
	var got []byte
	switch args[0] {
	case "pbkdf2":
		got, err = werkzeugPBKDF2(args[1:], []byte(password), []byte(salt))
	case "scrypt":
		got, err = werkzeugScrypt(args[1:], []byte(password), []byte(salt))
	default:
		err = fmt.Errorf("%w: method %q", errUnsupportedHash, args[0])
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func werkzeugPBKDF2(args []string, password, salt []byte) ([]byte, error) {
	name := "sha256"
	iterations := werkzeugPBKDF2Iterations
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: pbkdf2 iterations %q", errUnsupportedHash, args[1])
		}
		iterations = n
	}

	var h func() hash.Hash
	switch name {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	default:
		return nil, fmt.Errorf("%w: pbkdf2 digest %q", errUnsupportedHash, name)
	}
	return pbkdf2.Key(password, salt, iterations, h().Size(), h), nil
}

func werkzeugScrypt(args []string, password, salt []byte) ([]byte, error) {
	params := []int{1 << 15, 8, 1}
	for i, arg := range args {
		if i >= len(params) {
			break
		}
		v, err := strconv.Atoi(arg)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: scrypt parameter %q", errUnsupportedHash, arg)
		}
		params[i] = v
	}
	key, err := scrypt.Key(password, salt, params[0], params[1], params[2], werkzeugScryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnsupportedHash, err)
	}
	return key, nil
}
